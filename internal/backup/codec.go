package backup

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/cryptox"
	"github.com/dmitrijs2005/famlink/internal/migrations"
	"github.com/dmitrijs2005/famlink/internal/models"
)

// rawSnapshot is a backup file before its records are upgraded to the
// current shape.
type rawSnapshot struct {
	Profiles     []models.Doc `json:"profiles"`
	Categories   []models.Doc `json:"categories"`
	UserSettings models.Doc   `json:"userSettings"`
	Translations []models.Doc `json:"translations"`
	ExportDate   string       `json:"exportDate"`
	Version      *int64       `json:"version"`
}

// Marshal renders snap as indented JSON.
func Marshal(snap *models.Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Unmarshal parses a plain backup file. Snapshots written by an older
// schema are brought up to date with the rows transforms of p.
func Unmarshal(data []byte, p *migrations.Pipeline) (*models.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw rawSnapshot
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidBackup, err)
	}
	if raw.Version == nil || *raw.Version <= 0 {
		return nil, fmt.Errorf("%w: missing version", common.ErrInvalidBackup)
	}
	from, latest := *raw.Version, p.Latest()
	if from > latest {
		return nil, fmt.Errorf("%w: version %d is newer than supported %d", common.ErrInvalidBackup, from, latest)
	}

	upgrade := func(table string, rows []models.Doc) ([]models.Doc, error) {
		out, err := p.Upgrade(table, rows, from, latest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidBackup, err)
		}
		return out, nil
	}

	var err error
	if raw.Profiles, err = upgrade(models.TableProfiles, raw.Profiles); err != nil {
		return nil, err
	}
	if raw.Categories, err = upgrade(models.TableCategories, raw.Categories); err != nil {
		return nil, err
	}
	if raw.Translations, err = upgrade(models.TableTranslations, raw.Translations); err != nil {
		return nil, err
	}
	if raw.UserSettings != nil {
		rows, err := upgrade(models.TableUserSettings, []models.Doc{raw.UserSettings})
		if err != nil {
			return nil, err
		}
		raw.UserSettings = rows[0]
	}

	for _, r := range raw.Profiles {
		models.StringIDs(models.TableProfiles, r)
	}
	for _, r := range raw.Categories {
		models.StringIDs(models.TableCategories, r)
	}

	snap := &models.Snapshot{ExportDate: raw.ExportDate, Version: models.SnapshotVersion}
	if snap.Profiles, err = decodeAll[models.Profile](models.TableProfiles, raw.Profiles); err != nil {
		return nil, err
	}
	if snap.Categories, err = decodeAll[models.Category](models.TableCategories, raw.Categories); err != nil {
		return nil, err
	}
	if snap.Translations, err = decodeAll[models.TranslationEntry](models.TableTranslations, raw.Translations); err != nil {
		return nil, err
	}
	if raw.UserSettings != nil {
		var s models.UserSettings
		if err := models.FromDoc(raw.UserSettings, &s); err != nil {
			return nil, fmt.Errorf("%w: userSettings: %v", common.ErrInvalidBackup, err)
		}
		snap.UserSettings = &s
	}
	return snap, nil
}

func decodeAll[T any](table string, rows []models.Doc) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for i, r := range rows {
		var v T
		if err := models.FromDoc(r, &v); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", common.ErrInvalidBackup, table, i, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// IsEncrypted reports whether data is a passphrase-protected backup.
func IsEncrypted(data []byte) bool {
	var head struct {
		Format string `json:"format"`
	}
	return json.Unmarshal(data, &head) == nil && head.Format == cryptox.EnvelopeFormat
}

// Seal wraps a plain backup file in an encrypted envelope.
func Seal(plain, passphrase []byte) ([]byte, error) {
	env, err := cryptox.Seal(plain, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt backup: %w", err)
	}
	return json.MarshalIndent(env, "", "  ")
}

// Open returns the plain backup inside an envelope written by Seal.
func Open(sealed, passphrase []byte) ([]byte, error) {
	var env cryptox.Envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidBackup, err)
	}
	return cryptox.Open(&env, passphrase)
}
