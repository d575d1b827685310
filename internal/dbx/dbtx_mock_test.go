package dbx

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestWithTx_CommitErrorIsReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM profiles WHERE key = ?`)).
		WithArgs("lena").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := Exec(ctx, tx, Builder.Delete("profiles").Where("key = ?", "lena"))
		return err
	})
	require.ErrorContains(t, err, "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_ExecErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories (key,data) VALUES (?,?)`)).
		WithArgs("greetings", `{}`).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := Exec(ctx, tx, Builder.Insert("categories").Columns("key", "data").Values("greetings", `{}`))
		return err
	})
	require.ErrorContains(t, err, "constraint failed")
	require.NoError(t, mock.ExpectationsWereMet())
}
