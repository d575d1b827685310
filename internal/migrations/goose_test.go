package migrations

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrations.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func provider(t *testing.T, db *sql.DB, p *Pipeline) *goose.Provider {
	t.Helper()
	prov, err := goose.NewProvider(goose.DialectSQLite3, db, nil,
		goose.WithGoMigrations(p.GooseMigrations()...),
		goose.WithDisableGlobalRegistry(true),
	)
	require.NoError(t, err)
	return prov
}

func upTo(t *testing.T, db *sql.DB, version int64) {
	t.Helper()
	steps := Default().Steps()[:version]
	p, err := New(steps...)
	require.NoError(t, err)
	_, err = provider(t, db, p).Up(context.Background())
	require.NoError(t, err)
}

func insert(t *testing.T, db *sql.DB, table, key, data string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO `+models.SQLTable(table)+` (key, data) VALUES (?, ?)`, key, data)
	require.NoError(t, err)
}

func readDoc(t *testing.T, db *sql.DB, table, key string) string {
	t.Helper()
	var data string
	require.NoError(t, db.QueryRow(`SELECT data FROM `+models.SQLTable(table)+` WHERE key = ?`, key).Scan(&data))
	return data
}

func TestGoose_UpgradesLegacyRows(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	upTo(t, db, 1)
	insert(t, db, models.TableProfiles, "p1",
		`{"id":"p1","displayName":"Léna","mainTranslation":"蕾娜","nicknames":[{"id":"n1","display":"Star","fr_value":"mon étoile","cn_value":"我的小星星"}]}`)
	insert(t, db, models.TableCategories, "c1",
		`{"id":"c1","title":"Hi","order":0,"phrases":[{"id":"x","fr":"Salut {nom}","cn":"{nom}你好"}]}`)

	prov := provider(t, db, Default())
	_, err := prov.Up(ctx)
	require.NoError(t, err)

	v, err := prov.GetDBVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)

	d, err := models.DecodeDoc([]byte(readDoc(t, db, models.TableProfiles, "p1")))
	require.NoError(t, err)
	var prof models.Profile
	require.NoError(t, models.FromDoc(d, &prof))
	assert.Equal(t, "Léna", prof.OriginalName)
	assert.Equal(t, "我的小星星", prof.Nicknames[0].TargetValue)

	d, err = models.DecodeDoc([]byte(readDoc(t, db, models.TableCategories, "c1")))
	require.NoError(t, err)
	var cat models.Category
	require.NoError(t, models.FromDoc(d, &cat))
	assert.Equal(t, "Salut {name}", cat.Phrases[0].SourceText)

	// tables created by later steps exist
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM translations`).Scan(&n))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_settings`).Scan(&n))
}

func TestGoose_SecondRunIsNoOp(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	upTo(t, db, 4)
	insert(t, db, models.TableProfiles, "p1", `{"id":"p1","originalName":"A","translatedName":"B","nicknames":[]}`)
	before := readDoc(t, db, models.TableProfiles, "p1")

	res, err := provider(t, db, Default()).Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, before, readDoc(t, db, models.TableProfiles, "p1"))
}

func TestGoose_FailingStepRollsBack(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	upTo(t, db, 1)
	insert(t, db, models.TableProfiles, "a", `{"id":"a","displayName":"first"}`)
	insert(t, db, models.TableProfiles, "b", `{"id":"b","displayName":"second"}`)

	boom := errors.New("boom")
	calls := 0
	p, err := New(
		Default().Steps()[0],
		Step{Version: 2, Name: "half way", Transforms: []TableTransform{{
			Table: models.TableProfiles,
			Fn: func(r Row) (Row, error) {
				calls++
				if calls == 2 {
					return nil, boom
				}
				r["displayName"] = "rewritten"
				return r, nil
			},
		}}},
	)
	require.NoError(t, err)

	prov := provider(t, db, p)
	_, err = prov.Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), boom.Error())

	v, err := prov.GetDBVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.JSONEq(t, `{"id":"a","displayName":"first"}`, readDoc(t, db, models.TableProfiles, "a"))
}

func TestGoose_MalformedRowAbortsStep(t *testing.T) {
	db := openDB(t)
	upTo(t, db, 1)
	insert(t, db, models.TableProfiles, "bad", `{not json`)

	_, err := provider(t, db, Default()).Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profiles[bad]")
}
