package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/famlink/internal/models"
)

func getTyped[T any](ctx context.Context, s *Store, table, key string) (*T, error) {
	d, err := s.Get(ctx, table, key)
	if err != nil || d == nil {
		return nil, err
	}
	var v T
	if err := models.FromDoc(d, &v); err != nil {
		return nil, fmt.Errorf("decode %s[%s]: %w", table, key, err)
	}
	return &v, nil
}

func getAllTyped[T any](ctx context.Context, s *Store, table string) ([]*T, error) {
	docs, err := s.GetAll(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := models.FromDoc(d, &v); err != nil {
			return nil, fmt.Errorf("decode %s[%s]: %w", table, d.Key(models.KeyField(table)), err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func putTyped(ctx context.Context, s *Store, table string, v any) error {
	d, err := models.ToDoc(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}
	return s.Put(ctx, table, d)
}

// GetProfile returns the profile with id, or (nil, nil).
func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return getTyped[models.Profile](ctx, s, models.TableProfiles, id)
}

// GetAllProfiles returns every profile.
func (s *Store) GetAllProfiles(ctx context.Context) ([]*models.Profile, error) {
	return getAllTyped[models.Profile](ctx, s, models.TableProfiles)
}

// PutProfile upserts p.
func (s *Store) PutProfile(ctx context.Context, p *models.Profile) error {
	if p.Nicknames == nil {
		p.Nicknames = []models.Nickname{}
	}
	return putTyped(ctx, s, models.TableProfiles, p)
}

// DeleteProfile removes the profile and, with it, its nicknames.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	return s.Delete(ctx, models.TableProfiles, id)
}

// GetCategory returns the category with id, or (nil, nil).
func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return getTyped[models.Category](ctx, s, models.TableCategories, id)
}

// GetAllCategories returns every category sorted ascending by Order; equal
// orders fall back to ID so the result is deterministic.
func (s *Store) GetAllCategories(ctx context.Context) ([]*models.Category, error) {
	cats, err := getAllTyped[models.Category](ctx, s, models.TableCategories)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].ID < cats[j].ID
	})
	return cats, nil
}

// PutCategory upserts c.
func (s *Store) PutCategory(ctx context.Context, c *models.Category) error {
	if c.Phrases == nil {
		c.Phrases = []models.Phrase{}
	}
	return putTyped(ctx, s, models.TableCategories, c)
}

// PutCategories upserts every category in one transaction; on error none
// of them is written.
func (s *Store) PutCategories(ctx context.Context, cats []*models.Category) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		for _, c := range cats {
			if err := tx.PutCategory(ctx, c); err != nil {
				return fmt.Errorf("category %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// DeleteCategory removes the category and its phrases.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.Delete(ctx, models.TableCategories, id)
}

// GetTranslation returns the cache entry stored under hash, or (nil, nil).
func (s *Store) GetTranslation(ctx context.Context, hash string) (*models.TranslationEntry, error) {
	return getTyped[models.TranslationEntry](ctx, s, models.TableTranslations, hash)
}

// GetAllTranslations returns every cache entry.
func (s *Store) GetAllTranslations(ctx context.Context) ([]*models.TranslationEntry, error) {
	return getAllTyped[models.TranslationEntry](ctx, s, models.TableTranslations)
}

// PutTranslation upserts e.
func (s *Store) PutTranslation(ctx context.Context, e *models.TranslationEntry) error {
	return putTyped(ctx, s, models.TableTranslations, e)
}
