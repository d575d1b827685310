package seed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "famlink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// failingStore rejects the first batch it is given.
type failingStore struct {
	*store.Store
	failed bool
}

func (f *failingStore) PutCategories(ctx context.Context, cats []*models.Category) error {
	if !f.failed {
		f.failed = true
		return errors.New("disk full")
	}
	return f.Store.PutCategories(ctx, cats)
}

func TestDefaults_HaveEnglish(t *testing.T) {
	s := New(nil, nil, nil)
	available, err := s.Available()
	require.NoError(t, err)
	assert.Contains(t, available, FallbackLocale)
	assert.Contains(t, available, "fr")
	assert.Contains(t, available, "zh")
}

func TestLoad_KeepsFileOrderAndFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"en.json": {Data: []byte(`{"categories":{"z":"Last letter","a":"First letter"},"phrases":{}}`)},
	}
	s := New(nil, fsys, nil)

	l, err := s.Load("de-DE")
	require.NoError(t, err)
	assert.Equal(t, "en", l.Name)
	require.Len(t, l.Categories, 2)
	assert.Equal(t, "z", l.Categories[0].key)
	assert.Equal(t, "a", l.Categories[1].key)
}

func TestLoad_Malformed(t *testing.T) {
	s := New(nil, fstest.MapFS{"en.json": {Data: []byte(`{"categories":[]}`)}}, nil)
	_, err := s.Load("en")
	require.Error(t, err)

	_, err = New(nil, fstest.MapFS{}, nil).Load("en")
	require.Error(t, err)
}

func TestSetupInitialData_CombinesByIndex(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := New(st, nil, nil)

	n, err := s.SetupInitialData(ctx, "en-US", "zh-Hans")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	all, err := st.GetAllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "greetings", all[0].ID)
	assert.Equal(t, "Greetings", all[0].Title)
	assert.Equal(t, "EN", all[0].Language)
	assert.Equal(t, models.Phrase{ID: "greet2", SourceText: "Good night {name}, sweet dreams.", TargetText: "晚安 {name}，做个好梦。"}, all[0].Phrases[1])

	school := all[3]
	require.Equal(t, "school", school.ID)
	require.Len(t, school.Phrases, 2)
	assert.Equal(t, school.Phrases[1].SourceText, school.Phrases[1].TargetText)
}

func TestSetupInitialData_SkipsWhenCategoriesExist(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	require.NoError(t, st.PutCategory(ctx, &models.Category{ID: "mine", Title: "Mine"}))

	n, err := New(st, nil, nil).SetupInitialData(ctx, "fr", "zh")
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := st.Count(ctx, models.TableCategories)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetupInitialData_FailureCanBeRetried(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	s := New(&failingStore{Store: st}, nil, nil)

	_, err := s.SetupInitialData(ctx, "en", "zh")
	require.Error(t, err)

	count, err := st.Count(ctx, models.TableCategories)
	require.NoError(t, err)
	assert.Zero(t, count)

	n, err := s.SetupInitialData(ctx, "en", "zh")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSetupInitialData_RequiresLanguages(t *testing.T) {
	_, err := New(newStore(t), nil, nil).SetupInitialData(context.Background(), "", "ZH")
	require.Error(t, err)
}
