package migrations

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/dbx"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/pressly/goose/v3"
)

// GooseMigrations turns every step into a goose Go migration. Each one runs
// in its own transaction, so a failing step leaves no partially rewritten
// table behind and goose's version table is not advanced.
func (p *Pipeline) GooseMigrations() []*goose.Migration {
	out := make([]*goose.Migration, 0, len(p.steps))
	for _, s := range p.steps {
		out = append(out, goose.NewGoMigration(s.Version, &goose.GoFunc{RunTx: runStep(s)}, nil))
	}
	return out
}

func runStep(s Step) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, table := range s.Creates {
			if err := createTable(ctx, tx, table); err != nil {
				return fmt.Errorf("step %d (%s): %w", s.Version, s.Name, err)
			}
		}
		for _, tt := range s.Transforms {
			if err := rewriteRows(ctx, tx, tt.Table, tt.Fn); err != nil {
				return fmt.Errorf("step %d (%s): %w", s.Version, s.Name, err)
			}
		}
		return nil
	}
}

func createTable(ctx context.Context, db dbx.DBTX, table string) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  key  TEXT PRIMARY KEY,
  data TEXT NOT NULL
)`, models.SQLTable(table))
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

type storedRow struct {
	key  string
	data []byte
}

// rewriteRows loads every row of table, applies fn and writes back the rows
// whose encoding changed.
func rewriteRows(ctx context.Context, db dbx.DBTX, table string, fn Transform) error {
	sqlTable := models.SQLTable(table)

	rows, err := dbx.Query(ctx, db, dbx.Builder.Select("key", "data").From(sqlTable).OrderBy("key"))
	if err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}
	var all []storedRow
	for rows.Next() {
		var r storedRow
		if err := rows.Scan(&r.key, &r.data); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s: %w", table, err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	rows.Close()

	for _, r := range all {
		doc, err := models.DecodeDoc(r.data)
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", table, r.key, err)
		}
		next, err := fn(doc)
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", table, r.key, err)
		}
		data, err := next.Encode()
		if err != nil {
			return fmt.Errorf("%s[%s]: encode: %w", table, r.key, err)
		}
		if bytes.Equal(data, r.data) {
			continue
		}
		upd := dbx.Builder.Update(sqlTable).Set("data", string(data)).Where("key = ?", r.key)
		if _, err := dbx.Exec(ctx, db, upd); err != nil {
			return fmt.Errorf("%s[%s]: write: %w", table, r.key, err)
		}
	}
	return nil
}
