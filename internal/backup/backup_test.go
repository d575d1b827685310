package backup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "famlink.db"),
		store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func populate(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.PutProfile(ctx, &models.Profile{
		ID: "lena", OriginalName: "Léna", TranslatedName: "蕾娜", Timezone: "Asia/Shanghai",
		Nicknames: []models.Nickname{{ID: "n1", Display: "Star", SourceValue: "my star", TargetValue: "我的小星星"}},
	}))
	require.NoError(t, st.PutCategory(ctx, &models.Category{ID: "b", Title: "Questions", Order: 1, Language: "EN",
		Phrases: []models.Phrase{{ID: "q1", SourceText: "Did you eat well, {name}?", TargetText: "{name}，你吃得好吗？"}}}))
	require.NoError(t, st.PutCategory(ctx, &models.Category{ID: "a", Title: "Greetings", Order: 0, Language: "EN"}))
	require.NoError(t, st.PutTranslation(ctx, &models.TranslationEntry{Hash: "00000000000000aa", SourceText: "hi", SourceLang: "EN", TargetLang: "ZH", TranslatedText: "你好", Timestamp: 1}))
	_, err := st.UpdateUserSettings(ctx, models.Doc{"userName": "Maman", "onboardingCompleted": true})
	require.NoError(t, err)
}

type contents struct {
	Profiles   []*models.Profile
	Categories []*models.Category
	Settings   *models.UserSettings
}

func read(t *testing.T, st *store.Store) contents {
	t.Helper()
	ctx := context.Background()
	p, err := st.GetAllProfiles(ctx)
	require.NoError(t, err)
	c, err := st.GetAllCategories(ctx)
	require.NoError(t, err)
	s, err := st.GetUserSettings(ctx)
	require.NoError(t, err)
	return contents{p, c, s}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	populate(t, st)
	svc := NewService(st, nil)

	before := read(t, st)
	snap, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotVersion, snap.Version)
	assert.Equal(t, "2025-06-01T09:30:00Z", snap.ExportDate)
	assert.Len(t, snap.Translations, 1)

	_, err = st.UpdateUserSettings(ctx, models.Doc{"userName": "changed"})
	require.NoError(t, err)
	require.NoError(t, st.DeleteProfile(ctx, "lena"))

	require.NoError(t, svc.Import(ctx, snap))
	if diff := cmp.Diff(before, read(t, st)); diff != "" {
		t.Errorf("store differs after round trip (-want +got):\n%s", diff)
	}
}

func TestImport_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	populate(t, st)
	svc := NewService(st, nil)
	before := read(t, st)

	tests := []struct {
		name string
		snap *models.Snapshot
	}{
		{"nil", nil},
		{"no version", &models.Snapshot{}},
		{"future version", &models.Snapshot{Version: models.SnapshotVersion + 1}},
		{"profile without id", &models.Snapshot{Version: 4, Profiles: []*models.Profile{{OriginalName: "x"}}}},
		{"category without id", &models.Snapshot{Version: 4, Categories: []*models.Category{{Title: "x"}}}},
		{"translation without hash", &models.Snapshot{Version: 4, Translations: []*models.TranslationEntry{{SourceText: "x"}}}},
		{"foreign settings id", &models.Snapshot{Version: 4, UserSettings: &models.UserSettings{ID: "other"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Import(ctx, tt.snap)
			require.ErrorIs(t, err, common.ErrInvalidBackup)
		})
	}

	if diff := cmp.Diff(before, read(t, st)); diff != "" {
		t.Errorf("rejected import changed the store (-want +got):\n%s", diff)
	}
}

func TestImport_FailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	populate(t, st)
	svc := NewService(st, nil)
	before := read(t, st)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err := svc.Import(cctx, &models.Snapshot{Version: 4})
	require.Error(t, err)

	if diff := cmp.Diff(before, read(t, st)); diff != "" {
		t.Errorf("failed import changed the store (-want +got):\n%s", diff)
	}
}

func TestImport_WithoutSettingsFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	populate(t, st)
	svc := NewService(st, nil)

	require.NoError(t, svc.Import(ctx, &models.Snapshot{Version: 4}))

	s, err := st.GetUserSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUserSettings(fixedNow), s)

	n, err := st.Count(ctx, models.TableTranslations)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecode_UpgradesOldSnapshot(t *testing.T) {
	st := newStore(t)
	svc := NewService(st, nil)

	v3 := `{
	  "version": 3,
	  "exportDate": "2024-01-01T00:00:00Z",
	  "profiles": [{"id": "lena", "displayName": "Léna", "mainTranslation": "蕾娜", "language": "ZH",
	    "nicknames": [{"id": "n1", "display": "Star", "baseLang_value": "my star", "targetLang_value": "我的小星星"}]}],
	  "categories": [{"id": "g", "title": "Greetings", "order": 0, "language": "EN",
	    "phrases": [{"id": "p1", "baseLang": "Good night {name}", "targetLang": "晚安 {name}"}]}],
	  "userSettings": {"id": "global", "parentLanguage": "FR", "targetLanguage": "ZH", "deeplApiKey": "k:fx"}
	}`

	snap, err := svc.Decode([]byte(v3), nil)
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotVersion, snap.Version)

	require.Len(t, snap.Profiles, 1)
	assert.Equal(t, "Léna", snap.Profiles[0].OriginalName)
	assert.Equal(t, "蕾娜", snap.Profiles[0].TranslatedName)
	assert.Equal(t, models.Nickname{ID: "n1", Display: "Star", SourceValue: "my star", TargetValue: "我的小星星"}, snap.Profiles[0].Nicknames[0])

	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Good night {name}", snap.Categories[0].Phrases[0].SourceText)
	assert.Equal(t, "晚安 {name}", snap.Categories[0].Phrases[0].TargetText)

	require.NotNil(t, snap.UserSettings)
	assert.Equal(t, "FR", snap.UserSettings.SourceLang)
	require.NotNil(t, snap.UserSettings.APIKey)
	assert.Equal(t, "k:fx", *snap.UserSettings.APIKey)

	require.NoError(t, svc.Import(context.Background(), snap))
}

func TestDecode_NumericIDsFromOldSnapshot(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	svc := NewService(st, nil)

	v3 := `{
	  "version": 3,
	  "exportDate": "2025-01-01T00:00:00Z",
	  "profiles": [{"id": 1735689600000, "displayName": "Léna", "mainTranslation": "蕾娜",
	    "nicknames": [{"id": 1735689600001, "display": "Star", "baseLang_value": "my star", "targetLang_value": "我的小星星"}]}],
	  "categories": [{"id": 1735689600002, "title": "Greetings", "order": 0,
	    "phrases": [{"id": 1735689600003, "baseLang": "Hi", "targetLang": "你好"}]}]
	}`

	snap, err := svc.Decode([]byte(v3), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Import(ctx, snap))

	profiles, err := st.GetAllProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "1735689600000", profiles[0].ID)
	require.Len(t, profiles[0].Nicknames, 1)
	assert.Equal(t, "1735689600001", profiles[0].Nicknames[0].ID)

	categories, err := st.GetAllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "1735689600002", categories[0].ID)
	assert.Equal(t, "1735689600003", categories[0].Phrases[0].ID)
}

func TestDecode_Invalid(t *testing.T) {
	svc := NewService(newStore(t), nil)

	for _, in := range []string{`not json`, `{}`, `{"version": 0}`, `{"version": 99}`, `{"version": 4, "profiles": [{"id": true}]}`} {
		_, err := svc.Decode([]byte(in), nil)
		require.ErrorIs(t, err, common.ErrInvalidBackup, in)
	}
}

func TestEncodeDecode_Encrypted(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	populate(t, st)
	svc := NewService(st, nil)

	snap, err := svc.Export(ctx)
	require.NoError(t, err)

	data, err := Encode(snap, []byte("family secret"))
	require.NoError(t, err)
	assert.True(t, IsEncrypted(data))
	assert.NotContains(t, string(data), "Léna")

	_, err = svc.Decode(data, nil)
	require.ErrorIs(t, err, common.ErrWrongPassword)
	_, err = svc.Decode(data, []byte("wrong"))
	require.ErrorIs(t, err, common.ErrWrongPassword)

	got, err := svc.Decode(data, []byte("family secret"))
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("decoded snapshot differs (-want +got):\n%s", diff)
	}

	plain, err := Encode(snap, nil)
	require.NoError(t, err)
	assert.False(t, IsEncrypted(plain))
}

func TestSaveRestore_FileSink(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	populate(t, st)
	svc := NewService(st, nil)
	before := read(t, st)

	sink, err := NewFileSink(filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, err)

	name := FileName(fixedNow)
	assert.Equal(t, "famlink-backup-20250601-093000.json", name)
	require.NoError(t, svc.Save(ctx, sink, name, []byte("pw")))

	names, err := sink.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	require.NoError(t, st.DeleteProfile(ctx, "lena"))
	require.NoError(t, svc.Restore(ctx, sink, name, []byte("pw")))
	if diff := cmp.Diff(before, read(t, st)); diff != "" {
		t.Errorf("restore differs (-want +got):\n%s", diff)
	}

	err = svc.Restore(ctx, sink, "missing.json", nil)
	require.ErrorIs(t, err, common.ErrNotFound)
}
