package migrations

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/models"
)

// Default is the schema history of the famlink store.
//
//  1. profiles and categories tables
//  2. language-neutral nickname and phrase fields, {nom} -> {name}
//  3. language tags, translations and userSettings tables
//  4. one naming scheme: sourceLang/targetLang everywhere
func Default() *Pipeline {
	p, err := New(
		Step{
			Version: 1,
			Name:    "initial schema",
			Creates: []string{models.TableProfiles, models.TableCategories},
		},
		Step{
			Version: 2,
			Name:    "language-neutral field names",
			Transforms: []TableTransform{
				{Table: models.TableProfiles, Fn: neutralNicknames},
				{Table: models.TableCategories, Fn: neutralPhrases},
			},
		},
		Step{
			Version: 3,
			Name:    "language tags and translation cache",
			Creates: []string{models.TableTranslations, models.TableUserSettings},
			Transforms: []TableTransform{
				{Table: models.TableProfiles, Fn: backfill("language", "ZH")},
				{Table: models.TableCategories, Fn: backfill("language", "EN")},
			},
		},
		Step{
			Version: 4,
			Name:    "source/target naming",
			Transforms: []TableTransform{
				{Table: models.TableProfiles, Fn: profileNaming},
				{Table: models.TableCategories, Fn: categoryNaming},
				{Table: models.TableUserSettings, Fn: settingsNaming},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// rename moves m[from] to m[to] unless m[to] is already set, in which case
// both are kept. conv may be nil.
func rename(m map[string]any, from, to string, conv func(any) any) {
	v, ok := m[from]
	if !ok {
		return
	}
	if _, exists := m[to]; exists {
		return
	}
	if conv != nil {
		v = conv(v)
	}
	m[to] = v
	delete(m, from)
}

func setDefault(m map[string]any, key string, v any) {
	if cur, ok := m[key]; !ok || cur == nil {
		m[key] = v
	}
}

// eachObject applies fn to every object in m[key]. A missing or null list
// becomes empty; any other non-list value is an error.
func eachObject(m map[string]any, key string, fn func(map[string]any)) error {
	raw, ok := m[key]
	if !ok || raw == nil {
		m[key] = []any{}
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("field %q: expected a list, got %T", key, raw)
	}
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q item %d: expected an object, got %T", key, i, item)
		}
		fn(obj)
	}
	return nil
}

func nomToName(v any) any {
	if s, ok := v.(string); ok {
		return strings.ReplaceAll(s, "{nom}", "{name}")
	}
	return v
}

func backfill(key string, v any) Transform {
	return func(r Row) (Row, error) {
		setDefault(r, key, v)
		return r, nil
	}
}

func neutralNicknames(r Row) (Row, error) {
	err := eachObject(r, "nicknames", func(n map[string]any) {
		rename(n, "fr_value", "baseLang_value", nil)
		rename(n, "cn_value", "targetLang_value", nil)
	})
	return r, err
}

func neutralPhrases(r Row) (Row, error) {
	err := eachObject(r, "phrases", func(p map[string]any) {
		rename(p, "fr", "baseLang", nomToName)
		rename(p, "cn", "targetLang", nomToName)
	})
	return r, err
}

func profileNaming(r Row) (Row, error) {
	rename(r, "displayName", "originalName", nil)
	rename(r, "mainTranslation", "translatedName", nil)
	rename(r, "image", "avatar", nil)
	setDefault(r, "originalName", "")
	setDefault(r, "translatedName", r["originalName"])

	err := eachObject(r, "nicknames", func(n map[string]any) {
		rename(n, "baseLang_value", "sourceValue", nil)
		rename(n, "parentLang_value", "sourceValue", nil)
		rename(n, "targetLang_value", "targetValue", nil)
		rename(n, "kidLang_value", "targetValue", nil)
		setDefault(n, "display", n["sourceValue"])
	})
	models.StringIDs(models.TableProfiles, r)
	return r, err
}

func categoryNaming(r Row) (Row, error) {
	setDefault(r, "order", 0)
	err := eachObject(r, "phrases", func(p map[string]any) {
		rename(p, "baseLang", "sourceText", nil)
		rename(p, "parentLang", "sourceText", nil)
		rename(p, "targetLang", "targetText", nil)
		rename(p, "kidLang", "targetText", nil)
	})
	models.StringIDs(models.TableCategories, r)
	return r, err
}

func settingsNaming(r Row) (Row, error) {
	rename(r, "parentLanguage", "sourceLang", nil)
	rename(r, "sourceLanguage", "sourceLang", nil)
	rename(r, "targetLanguage", "targetLang", nil)
	rename(r, "deeplApiKey", "apiKey", nil)
	rename(r, "deeplUsage", "usage", nil)

	setDefault(r, "sourceLang", models.DefaultSourceLang)
	setDefault(r, "targetLang", models.DefaultTargetLang)
	setDefault(r, "appLanguage", models.DefaultAppLanguage)
	setDefault(r, "userName", "")
	setDefault(r, "signature", "")
	setDefault(r, "onboardingCompleted", false)
	if _, ok := r["apiKey"]; !ok {
		r["apiKey"] = nil
	}
	setDefault(r, "usage", map[string]any{
		"characterCount": 0,
		"characterLimit": models.DefaultCharacterLimit,
		"lastUpdated":    0,
	})
	return r, nil
}
