// Package backup exports the whole store to a snapshot and restores it,
// optionally encrypted, to and from a local directory or an S3 bucket.
package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/logging"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/store"
	"golang.org/x/sync/errgroup"
)

// Service reads and replaces the store contents.
type Service struct {
	store *store.Store
	log   logging.Logger
}

func NewService(st *store.Store, log logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{store: st, log: log}
}

// Export copies the four tables. The reads are independent: writes made
// while Export runs may show up in some tables and not in others.
func (s *Service) Export(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		ExportDate: s.store.Now().UTC().Format(time.RFC3339Nano),
		Version:    models.SnapshotVersion,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Profiles, err = s.store.GetAllProfiles(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Categories, err = s.store.GetAllCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.UserSettings, err = s.store.GetUserSettings(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Translations, err = s.store.GetAllTranslations(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	s.log.Info(ctx, "store exported",
		"profiles", len(snap.Profiles),
		"categories", len(snap.Categories),
		"translations", len(snap.Translations))
	return snap, nil
}

// Import replaces the store contents with snap. Every record is checked
// before anything is written, and clearing and repopulating run in one
// transaction: a rejected or failed import leaves the store as it was.
//
// Parameters:
//   - ctx: bounds the transaction.
//   - snap: a snapshot at the current version, as returned by Decode or
//     Export. Missing settings fall back to the defaults.
//
// Returns:
//   - error: wraps common.ErrInvalidBackup when a record is rejected, or
//     the store error that aborted the transaction.
func (s *Service) Import(ctx context.Context, snap *models.Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Store) error {
		for _, t := range models.Tables {
			if err := tx.Clear(ctx, t); err != nil {
				return err
			}
		}
		for _, p := range snap.Profiles {
			if err := tx.PutProfile(ctx, p); err != nil {
				return err
			}
		}
		for _, c := range snap.Categories {
			if err := tx.PutCategory(ctx, c); err != nil {
				return err
			}
		}
		for _, e := range snap.Translations {
			if err := tx.PutTranslation(ctx, e); err != nil {
				return err
			}
		}
		if snap.UserSettings != nil {
			d, err := models.ToDoc(snap.UserSettings)
			if err != nil {
				return err
			}
			if err := tx.Put(ctx, models.TableUserSettings, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "import failed, store unchanged", "error", err)
		return fmt.Errorf("import: %w", err)
	}

	s.log.Info(ctx, "store imported",
		"version", snap.Version,
		"profiles", len(snap.Profiles),
		"categories", len(snap.Categories),
		"translations", len(snap.Translations))
	return nil
}

func validate(snap *models.Snapshot) error {
	if snap == nil || snap.Version <= 0 {
		return fmt.Errorf("%w: missing version", common.ErrInvalidBackup)
	}
	if snap.Version > models.SnapshotVersion {
		return fmt.Errorf("%w: version %d is newer than supported %d", common.ErrInvalidBackup, snap.Version, models.SnapshotVersion)
	}
	for i, p := range snap.Profiles {
		if p == nil || strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: profile %d has no id", common.ErrInvalidBackup, i)
		}
	}
	for i, c := range snap.Categories {
		if c == nil || strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: category %d has no id", common.ErrInvalidBackup, i)
		}
	}
	for i, e := range snap.Translations {
		if e == nil || strings.TrimSpace(e.Hash) == "" {
			return fmt.Errorf("%w: translation %d has no hash", common.ErrInvalidBackup, i)
		}
	}
	if snap.UserSettings != nil && snap.UserSettings.ID != models.SettingsKey {
		return fmt.Errorf("%w: settings id %q, want %q", common.ErrInvalidBackup, snap.UserSettings.ID, models.SettingsKey)
	}
	return nil
}

// Encode renders snap as a backup file, encrypted when passphrase is set.
func Encode(snap *models.Snapshot, passphrase []byte) ([]byte, error) {
	plain, err := Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	if len(passphrase) == 0 {
		return plain, nil
	}
	return Seal(plain, passphrase)
}

// Decode parses a backup file written by Encode or by an older version.
func (s *Service) Decode(data, passphrase []byte) (*models.Snapshot, error) {
	if IsEncrypted(data) {
		if len(passphrase) == 0 {
			return nil, common.ErrWrongPassword
		}
		plain, err := Open(data, passphrase)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	return Unmarshal(data, s.store.Pipeline())
}

// Save exports the store and writes it to sink under name.
func (s *Service) Save(ctx context.Context, sink Sink, name string, passphrase []byte) error {
	snap, err := s.Export(ctx)
	if err != nil {
		return err
	}
	data, err := Encode(snap, passphrase)
	if err != nil {
		return err
	}
	if err := sink.Put(ctx, name, data); err != nil {
		return fmt.Errorf("write backup %s: %w", name, err)
	}
	s.log.Info(ctx, "backup written", "name", name, "bytes", len(data), "encrypted", len(passphrase) > 0)
	return nil
}

// Restore reads name from sink and imports it.
func (s *Service) Restore(ctx context.Context, sink Sink, name string, passphrase []byte) error {
	data, err := sink.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("read backup %s: %w", name, err)
	}
	snap, err := s.Decode(data, passphrase)
	if err != nil {
		return err
	}
	return s.Import(ctx, snap)
}

// FileName is the default name of a backup taken at t.
func FileName(t time.Time) string {
	return "famlink-backup-" + t.UTC().Format("20060102-150405") + ".json"
}
