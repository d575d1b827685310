// Package dbx provides the small DB abstractions shared by the store and the
// migration pipeline: a minimal interface implemented by both *sql.DB and
// *sql.Tx, a transaction helper and squirrel-based statement helpers.
package dbx

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// DBTX is the subset of database/sql used by the store.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Builder is the statement builder for SQLite ("?" placeholders).
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := dbx.Exec(ctx, tx, dbx.Builder.Delete("profiles"))
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Exec renders a squirrel statement and executes it on db.
func Exec(ctx context.Context, db DBTX, s sq.Sqlizer) (sql.Result, error) {
	query, args, err := s.ToSql()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

// Query renders a squirrel statement and runs it on db. The caller closes rows.
func Query(ctx context.Context, db DBTX, s sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := s.ToSql()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}
