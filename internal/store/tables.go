package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/dbx"
	"github.com/dmitrijs2005/famlink/internal/models"
)

func sqlTable(table string) (string, error) {
	if !slices.Contains(models.Tables, table) {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownTable, table)
	}
	return models.SQLTable(table), nil
}

func decode(table, key string, data []byte) (models.Doc, error) {
	d, err := models.DecodeDoc(data)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w: %v", table, key, common.ErrMalformedRecord, err)
	}
	return d, nil
}

// Get returns the record stored under key, or (nil, nil) when there is none.
// A record that is not valid JSON yields an error matching
// common.ErrMalformedRecord.
func (s *Store) Get(ctx context.Context, table, key string) (models.Doc, error) {
	t, err := sqlTable(table)
	if err != nil {
		return nil, err
	}

	query, args, err := dbx.Builder.Select("data").From(t).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.q.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", table, key, err)
	}
	return decode(table, key, data)
}

// ForEach calls fn for every record of table in key order. A record that
// cannot be decoded is passed with a nil doc and a non-nil decodeErr, so
// callers may skip or repair it. Iteration stops at the first error fn returns.
func (s *Store) ForEach(ctx context.Context, table string, fn func(key string, doc models.Doc, decodeErr error) error) error {
	t, err := sqlTable(table)
	if err != nil {
		return err
	}

	rows, err := dbx.Query(ctx, s.q, dbx.Builder.Select("key", "data").From(t).OrderBy("key"))
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}

	type raw struct {
		key  string
		data []byte
	}
	var all []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.key, &r.data); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}
	rows.Close()

	// rows are released before fn runs so fn may write to the same table
	for _, r := range all {
		doc, derr := decode(table, r.key, r.data)
		if err := fn(r.key, doc, derr); err != nil {
			return err
		}
	}
	return nil
}

// GetAll returns every record of table in key order. Any malformed record
// fails the whole call.
func (s *Store) GetAll(ctx context.Context, table string) ([]models.Doc, error) {
	out := make([]models.Doc, 0)
	err := s.ForEach(ctx, table, func(_ string, doc models.Doc, derr error) error {
		if derr != nil {
			return derr
		}
		out = append(out, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put upserts doc under the key found in the table's key field.
func (s *Store) Put(ctx context.Context, table string, doc models.Doc) error {
	t, err := sqlTable(table)
	if err != nil {
		return err
	}
	models.StringIDs(table, doc)
	key := doc.Key(models.KeyField(table))
	if key == "" {
		return fmt.Errorf("put %s: record has no %q", table, models.KeyField(table))
	}
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("put %s[%s]: encode: %w", table, key, err)
	}

	ins := dbx.Builder.Insert(t).Columns("key", "data").Values(key, string(data)).
		Suffix("ON CONFLICT(key) DO UPDATE SET data = excluded.data")
	if _, err := dbx.Exec(ctx, s.q, ins); err != nil {
		return fmt.Errorf("failed to put %s[%s]: %w", table, key, err)
	}
	return nil
}

// Update merges patch into the top level of the record stored under key and
// returns the result. The key field cannot be changed. A missing record
// yields common.ErrNotFound.
func (s *Store) Update(ctx context.Context, table, key string, patch models.Doc) (models.Doc, error) {
	cur, err := s.Get(ctx, table, key)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("update %s[%s]: %w", table, key, common.ErrNotFound)
	}

	keyField := models.KeyField(table)
	for k, v := range patch {
		if k == keyField {
			continue
		}
		cur[k] = v
	}
	if err := s.Put(ctx, table, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, table, key string) error {
	t, err := sqlTable(table)
	if err != nil {
		return err
	}
	if _, err := dbx.Exec(ctx, s.q, dbx.Builder.Delete(t).Where(sq.Eq{"key": key})); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", table, key, err)
	}
	return nil
}

// Clear removes every record of table.
func (s *Store) Clear(ctx context.Context, table string) error {
	t, err := sqlTable(table)
	if err != nil {
		return err
	}
	if _, err := dbx.Exec(ctx, s.q, dbx.Builder.Delete(t)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

// Count returns the number of records in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	t, err := sqlTable(table)
	if err != nil {
		return 0, err
	}
	query, args, err := dbx.Builder.Select("COUNT(*)").From(t).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
