package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := Exec(ctx, tx, Builder.Insert("t").Columns("v").Values("ok"))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := Exec(ctx, tx, Builder.Insert("t").Columns("v").Values("fail"))
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	func() {
		defer func() {
			require.NotNil(t, recover(), "panic must be rethrown")
		}()
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
			require.NoError(t, e)
			panic("kaboom")
		})
	}()

	require.Equal(t, 0, countRows(t, db), "must rollback on panic")
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestQuery_RendersBuilder(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		_, err := Exec(ctx, db, Builder.Insert("t").Columns("v").Values(v))
		require.NoError(t, err)
	}

	rows, err := Query(ctx, db, Builder.Select("v").From("t").Where("v <> ?", "b").OrderBy("v"))
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		got = append(got, v)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"a", "c"}, got)
}

func TestExec_InvalidStatement(t *testing.T) {
	db := setupDB(t)
	// an insert without values cannot be rendered
	_, err := Exec(context.Background(), db, Builder.Insert("t"))
	require.Error(t, err)
}
