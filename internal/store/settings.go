package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/models"
)

// settingsDoc returns the stored settings document, materializing and
// persisting the defaults when there is none.
func (s *Store) settingsDoc(ctx context.Context) (models.Doc, error) {
	d, err := s.Get(ctx, models.TableUserSettings, models.SettingsKey)
	if err != nil {
		return nil, err
	}
	if d != nil {
		return d, nil
	}

	d, err = models.ToDoc(models.DefaultUserSettings(s.now()))
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, models.TableUserSettings, d); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "default user settings created")
	return d, nil
}

// GetUserSettings always returns the settings record. The first call on an
// empty store persists the defaults, so later calls read the same record.
func (s *Store) GetUserSettings(ctx context.Context) (*models.UserSettings, error) {
	d, err := s.settingsDoc(ctx)
	if err != nil {
		return nil, err
	}
	var us models.UserSettings
	if err := models.FromDoc(d, &us); err != nil {
		return nil, fmt.Errorf("decode user settings: %w", err)
	}
	return &us, nil
}

// UpdateUserSettings merges patch into the current settings and stores the
// result (read-merge-write). Two concurrent callers race; the later write
// wins. Fields of the stored document unknown to UserSettings are kept.
func (s *Store) UpdateUserSettings(ctx context.Context, patch models.Doc) (*models.UserSettings, error) {
	d, err := s.settingsDoc(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		d[k] = v
	}

	var us models.UserSettings
	if err := models.FromDoc(d, &us); err != nil {
		return nil, fmt.Errorf("invalid settings patch: %w", err)
	}
	if err := s.Put(ctx, models.TableUserSettings, d); err != nil {
		return nil, err
	}
	return &us, nil
}

// SetOnboardingCompleted records whether the onboarding flow has finished.
func (s *Store) SetOnboardingCompleted(ctx context.Context, completed bool) (*models.UserSettings, error) {
	return s.UpdateUserSettings(ctx, models.Doc{"onboardingCompleted": completed})
}

// IsOnboardingCompleted reports the onboarding flag.
func (s *Store) IsOnboardingCompleted(ctx context.Context) (bool, error) {
	us, err := s.GetUserSettings(ctx)
	if err != nil {
		return false, err
	}
	return us.OnboardingCompleted, nil
}

// SetAPIKey stores the provider key; an empty key clears it.
func (s *Store) SetAPIKey(ctx context.Context, key string) (*models.UserSettings, error) {
	var v any
	if key != "" {
		v = key
	}
	return s.UpdateUserSettings(ctx, models.Doc{"apiKey": v})
}

// UpdateUsage stores a fresh usage snapshot stamped with the store clock.
func (s *Store) UpdateUsage(ctx context.Context, count, limit int64) (models.Usage, error) {
	u := models.Usage{CharacterCount: count, CharacterLimit: limit, LastUpdated: s.now().UnixMilli()}
	if _, err := s.UpdateUserSettings(ctx, models.Doc{"usage": u}); err != nil {
		return models.Usage{}, err
	}
	return u, nil
}

// GetUsage returns the stored usage snapshot, or the defaults when the
// record has none.
func (s *Store) GetUsage(ctx context.Context) (models.Usage, error) {
	us, err := s.GetUserSettings(ctx)
	if err != nil {
		return models.Usage{}, err
	}
	if us.Usage.CharacterLimit == 0 && us.Usage.LastUpdated == 0 {
		return models.DefaultUsage(s.now()), nil
	}
	return us.Usage, nil
}
