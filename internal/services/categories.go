package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/langx"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/google/uuid"
)

// CategoryStore is the part of the record store categories need.
type CategoryStore interface {
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetAllCategories(ctx context.Context) ([]*models.Category, error)
	PutCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// PhraseInput is the text pair of a phrase; either side may be empty.
type PhraseInput struct {
	SourceText string
	TargetText string
}

type CategoryService interface {
	List(ctx context.Context) ([]*models.Category, error)
	ListByLanguage(ctx context.Context, language string) ([]*models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, title, language string) (*models.Category, error)
	Rename(ctx context.Context, id, title string) (*models.Category, error)
	Reorder(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	AddPhrase(ctx context.Context, categoryID string, in PhraseInput) (*models.Phrase, error)
	UpdatePhrase(ctx context.Context, categoryID, phraseID string, in PhraseInput) (*models.Phrase, error)
	DeletePhrase(ctx context.Context, categoryID, phraseID string) error
}

type categoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) CategoryService {
	return &categoryService{store: store}
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	return s.store.GetAllCategories(ctx)
}

// ListByLanguage keeps the display order of List.
func (s *categoryService) ListByLanguage(ctx context.Context, language string) ([]*models.Category, error) {
	all, err := s.store.GetAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Category, 0, len(all))
	for _, c := range all {
		if langx.Same(c.Language, language) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *categoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	return c, nil
}

// Create appends a category after the last one. language defaults to the
// default source language.
func (s *categoryService) Create(ctx context.Context, title, language string) (*models.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: category title is required", common.ErrInvalidInput)
	}
	if language = langx.Normalize(language); language == "" {
		language = models.DefaultSourceLang
	}

	all, err := s.store.GetAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	order := len(all)
	for _, c := range all {
		if c.Order >= order {
			order = c.Order + 1
		}
	}

	c := &models.Category{
		ID:       uuid.NewString(),
		Title:    title,
		Order:    order,
		Language: language,
		Phrases:  []models.Phrase{},
	}
	if err := s.store.PutCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

func (s *categoryService) Rename(ctx context.Context, id, title string) (*models.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: category title is required", common.ErrInvalidInput)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Title = title
	if err := s.store.PutCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// Reorder gives the listed categories the orders 0..n-1 in the given
// sequence. Categories not listed keep their order.
func (s *categoryService) Reorder(ctx context.Context, ids []string) error {
	for i, id := range ids {
		c, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if c.Order == i {
			continue
		}
		c.Order = i
		if err := s.store.PutCategory(ctx, c); err != nil {
			return fmt.Errorf("save category: %w", err)
		}
	}
	return nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}

func (s *categoryService) AddPhrase(ctx context.Context, categoryID string, in PhraseInput) (*models.Phrase, error) {
	c, err := s.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	p, err := newPhrase(uuid.NewString(), in)
	if err != nil {
		return nil, err
	}
	c.Phrases = append(c.Phrases, p)

	if err := s.store.PutCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return &p, nil
}

func (s *categoryService) UpdatePhrase(ctx context.Context, categoryID, phraseID string, in PhraseInput) (*models.Phrase, error) {
	c, err := s.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	_, idx := c.Phrase(phraseID)
	if idx < 0 {
		return nil, fmt.Errorf("phrase %s: %w", phraseID, common.ErrNotFound)
	}
	p, err := newPhrase(phraseID, in)
	if err != nil {
		return nil, err
	}
	c.Phrases[idx] = p

	if err := s.store.PutCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return &p, nil
}

func (s *categoryService) DeletePhrase(ctx context.Context, categoryID, phraseID string) error {
	c, err := s.Get(ctx, categoryID)
	if err != nil {
		return err
	}
	_, idx := c.Phrase(phraseID)
	if idx < 0 {
		return fmt.Errorf("phrase %s: %w", phraseID, common.ErrNotFound)
	}
	c.Phrases = append(c.Phrases[:idx], c.Phrases[idx+1:]...)

	if err := s.store.PutCategory(ctx, c); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func newPhrase(id string, in PhraseInput) (models.Phrase, error) {
	p := models.Phrase{
		ID:         id,
		SourceText: strings.TrimSpace(in.SourceText),
		TargetText: strings.TrimSpace(in.TargetText),
	}
	if p.SourceText == "" && p.TargetText == "" {
		return models.Phrase{}, fmt.Errorf("%w: phrase text is required", common.ErrInvalidInput)
	}
	return p, nil
}
