package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/google/uuid"
)

const birthdateLayout = "2006-01-02"

const avatarPlaceholder = "https://placehold.co/64x64/e2e8f0/475569?text="

// ProfileStore is the part of the record store profiles need.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetAllProfiles(ctx context.Context) ([]*models.Profile, error)
	PutProfile(ctx context.Context, p *models.Profile) error
	DeleteProfile(ctx context.Context, id string) error
}

// ProfileInput creates a profile. Name is used when OriginalName is empty;
// TranslatedName falls back to the original name.
type ProfileInput struct {
	Name           string
	OriginalName   string
	TranslatedName string
	Avatar         string
	Birthdate      string
	Timezone       string
	Language       string
}

// ProfileUpdate changes the non-nil fields of a profile.
type ProfileUpdate struct {
	OriginalName   *string
	TranslatedName *string
	Avatar         *string
	Birthdate      *string
	Timezone       *string
	Language       *string
}

// NicknameInput describes a nickname. SourceValue defaults to Display.
type NicknameInput struct {
	Display     string
	SourceValue string
	TargetValue string
}

type ProfileService interface {
	List(ctx context.Context) ([]*models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, in ProfileInput) (*models.Profile, error)
	Update(ctx context.Context, id string, upd ProfileUpdate) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
	AddNickname(ctx context.Context, profileID string, in NicknameInput) (*models.Nickname, error)
	UpdateNickname(ctx context.Context, profileID, nicknameID string, in NicknameInput) (*models.Nickname, error)
	DeleteNickname(ctx context.Context, profileID, nicknameID string) error
}

type profileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) ProfileService {
	return &profileService{store: store}
}

func (s *profileService) List(ctx context.Context) ([]*models.Profile, error) {
	return s.store.GetAllProfiles(ctx)
}

// Get returns the profile or common.ErrNotFound.
func (s *profileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s: %w", id, common.ErrNotFound)
	}
	return p, nil
}

func (s *profileService) Create(ctx context.Context, in ProfileInput) (*models.Profile, error) {
	name := strings.TrimSpace(in.OriginalName)
	if name == "" {
		name = strings.TrimSpace(in.Name)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: profile name is required", common.ErrInvalidInput)
	}

	translated := strings.TrimSpace(in.TranslatedName)
	if translated == "" {
		translated = name
	}

	p := &models.Profile{
		ID:             uuid.NewString(),
		OriginalName:   name,
		TranslatedName: translated,
		Avatar:         in.Avatar,
		Birthdate:      strings.TrimSpace(in.Birthdate),
		Timezone:       strings.TrimSpace(in.Timezone),
		Language:       strings.TrimSpace(in.Language),
		Nicknames:      []models.Nickname{},
	}
	if p.Avatar == "" {
		p.Avatar = PlaceholderAvatar(name)
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	if err := s.store.PutProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *profileService) Update(ctx context.Context, id string, upd ProfileUpdate) (*models.Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&p.OriginalName, upd.OriginalName)
	set(&p.TranslatedName, upd.TranslatedName)
	set(&p.Birthdate, upd.Birthdate)
	set(&p.Timezone, upd.Timezone)
	set(&p.Language, upd.Language)
	if upd.Avatar != nil {
		p.Avatar = *upd.Avatar
	}

	if p.OriginalName == "" {
		return nil, fmt.Errorf("%w: profile name is required", common.ErrInvalidInput)
	}
	if p.TranslatedName == "" {
		p.TranslatedName = p.OriginalName
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	if err := s.store.PutProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *profileService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProfile(ctx, id)
}

func (s *profileService) AddNickname(ctx context.Context, profileID string, in NicknameInput) (*models.Nickname, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	n, err := newNickname(uuid.NewString(), in)
	if err != nil {
		return nil, err
	}
	p.Nicknames = append(p.Nicknames, n)

	if err := s.store.PutProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &n, nil
}

func (s *profileService) UpdateNickname(ctx context.Context, profileID, nicknameID string, in NicknameInput) (*models.Nickname, error) {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	_, idx := p.Nickname(nicknameID)
	if idx < 0 {
		return nil, fmt.Errorf("nickname %s: %w", nicknameID, common.ErrNotFound)
	}

	n, err := newNickname(nicknameID, in)
	if err != nil {
		return nil, err
	}
	p.Nicknames[idx] = n

	if err := s.store.PutProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return &n, nil
}

func (s *profileService) DeleteNickname(ctx context.Context, profileID, nicknameID string) error {
	p, err := s.Get(ctx, profileID)
	if err != nil {
		return err
	}
	_, idx := p.Nickname(nicknameID)
	if idx < 0 {
		return fmt.Errorf("nickname %s: %w", nicknameID, common.ErrNotFound)
	}
	p.Nicknames = append(p.Nicknames[:idx], p.Nicknames[idx+1:]...)

	if err := s.store.PutProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// PlaceholderAvatar is the avatar URL of a profile without a picture: the
// first letter of the name on a neutral tile.
func PlaceholderAvatar(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	initial := "?"
	if r != utf8.RuneError {
		initial = strings.ToUpper(string(r))
	}
	return avatarPlaceholder + url.QueryEscape(initial)
}

func newNickname(id string, in NicknameInput) (models.Nickname, error) {
	display := strings.TrimSpace(in.Display)
	if display == "" {
		return models.Nickname{}, fmt.Errorf("%w: nickname display is required", common.ErrInvalidInput)
	}
	source := strings.TrimSpace(in.SourceValue)
	if source == "" {
		source = display
	}
	return models.Nickname{
		ID:          id,
		Display:     display,
		SourceValue: source,
		TargetValue: strings.TrimSpace(in.TargetValue),
	}, nil
}

func validateProfile(p *models.Profile) error {
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", common.ErrInvalidInput, p.Timezone)
		}
	}
	if p.Birthdate != "" {
		if _, err := time.Parse(birthdateLayout, p.Birthdate); err != nil {
			return fmt.Errorf("%w: birthdate must be YYYY-MM-DD", common.ErrInvalidInput)
		}
	}
	return nil
}
