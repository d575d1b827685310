// Package seed fills an empty store with starter categories and phrases
// taken from per-language locale files.
package seed

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/langx"
	"github.com/dmitrijs2005/famlink/internal/logging"
	"github.com/dmitrijs2005/famlink/internal/models"
	"golang.org/x/sync/errgroup"
)

// FallbackLocale is used when no locale file matches a language.
const FallbackLocale = "en"

//go:embed locales/*.json
var embedded embed.FS

// Defaults returns the locale files shipped with the binary.
func Defaults() fs.FS {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store is the part of the record store seeding writes to.
type Store interface {
	Count(ctx context.Context, table string) (int, error)
	PutCategories(ctx context.Context, cats []*models.Category) error
}

type localePhrase struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type titleEntry struct {
	key   string
	title string
}

// orderedTitles keeps the categories object in file order, which becomes
// the display order.
type orderedTitles []titleEntry

func (o *orderedTitles) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("categories: expected object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("categories: expected key")
		}
		var title string
		if err := dec.Decode(&title); err != nil {
			return fmt.Errorf("categories[%s]: %w", key, err)
		}
		*o = append(*o, titleEntry{key: key, title: title})
	}
	_, err = dec.Token()
	return err
}

// Locale is one parsed locale file.
type Locale struct {
	Name       string                    `json:"-"`
	Categories orderedTitles             `json:"categories"`
	Phrases    map[string][]localePhrase `json:"phrases"`
}

// Seeder writes starter data built from locale files.
type Seeder struct {
	store   Store
	locales fs.FS
	log     logging.Logger
}

// New returns a Seeder reading locales from fsys, or the embedded locales
// when fsys is nil.
func New(store Store, fsys fs.FS, log logging.Logger) *Seeder {
	if fsys == nil {
		fsys = Defaults()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Seeder{store: store, locales: fsys, log: log}
}

// Available lists the locale names present, lower-case.
func (s *Seeder) Available() ([]string, error) {
	files, err := fs.Glob(s.locales, "*.json")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, strings.TrimSuffix(path.Base(f), ".json"))
	}
	return out, nil
}

// Load reads the locale closest to language, falling back to English.
func (s *Seeder) Load(language string) (*Locale, error) {
	available, err := s.Available()
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	name := langx.Match(langx.LocaleFile(language), available, FallbackLocale)

	b, err := fs.ReadFile(s.locales, name+".json")
	if errors.Is(err, fs.ErrNotExist) && name != FallbackLocale {
		name = FallbackLocale
		b, err = fs.ReadFile(s.locales, name+".json")
	}
	if err != nil {
		return nil, fmt.Errorf("read locale %s: %w", name, err)
	}

	l := &Locale{Name: name}
	if err := json.Unmarshal(b, l); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", name, err)
	}
	return l, nil
}

// Combine pairs the phrases of two locales by position. A phrase missing on
// the target side keeps the source text.
func Combine(source, target *Locale, sourceLang string) []*models.Category {
	out := make([]*models.Category, 0, len(source.Categories))
	for i, c := range source.Categories {
		src := source.Phrases[c.key]
		tgt := target.Phrases[c.key]

		phrases := make([]models.Phrase, 0, len(src))
		for j, p := range src {
			targetText := p.Text
			if j < len(tgt) {
				targetText = tgt[j].Text
			}
			phrases = append(phrases, models.Phrase{ID: p.ID, SourceText: p.Text, TargetText: targetText})
		}

		out = append(out, &models.Category{
			ID:       c.key,
			Title:    c.title,
			Order:    i,
			Language: sourceLang,
			Phrases:  phrases,
		})
	}
	return out
}

// SetupInitialData writes the starter categories for the language pair and
// returns how many it wrote. A store that already has categories is left
// alone.
func (s *Seeder) SetupInitialData(ctx context.Context, sourceLang, targetLang string) (int, error) {
	sourceLang, targetLang = langx.Normalize(sourceLang), langx.Normalize(targetLang)
	if sourceLang == "" || targetLang == "" {
		return 0, fmt.Errorf("seed: source and target language are required")
	}

	n, err := s.store.Count(ctx, models.TableCategories)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug(ctx, "categories present, seeding skipped", "count", n)
		return 0, nil
	}

	var source, target *Locale
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		source, err = s.Load(sourceLang)
		return err
	})
	g.Go(func() (err error) {
		target, err = s.Load(targetLang)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	cats := Combine(source, target, sourceLang)
	if err := s.store.PutCategories(ctx, cats); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	s.log.Info(ctx, "initial categories written", "count", len(cats), "source", source.Name, "target", target.Name)
	return len(cats), nil
}
