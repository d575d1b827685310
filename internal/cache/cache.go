// Package cache is the content-addressable translation cache. Entries are
// keyed by a hash of (text, source language, target language) and expire
// TTL after they were written. Expiry is checked lazily on lookup and by
// Sweep; nothing runs in the background.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/logging"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/timex"
)

// DefaultTTL is how long a cached translation stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// SourceCache tags results served from the cache.
const SourceCache = "cache"

const sep = "\x1f"

// Store is the part of the record store the cache needs.
type Store interface {
	Get(ctx context.Context, table, key string) (models.Doc, error)
	Put(ctx context.Context, table string, doc models.Doc) error
	Delete(ctx context.Context, table, key string) error
	Clear(ctx context.Context, table string) error
	ForEach(ctx context.Context, table string, fn func(key string, doc models.Doc, decodeErr error) error) error
}

// Hit is a cached translation.
type Hit struct {
	Text   string
	Source string
}

// Cache reads and writes translation entries through Store.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   logging.Logger
}

// Option configures a Cache.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option      { return func(c *Cache) { c.ttl = ttl } }
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }
func WithLogger(l logging.Logger) Option    { return func(c *Cache) { c.log = l } }

// New returns a Cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: DefaultTTL, now: time.Now, log: logging.Discard()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Hash is the cache key of a (text, source, target) triple: xxhash64 over
// the three values joined by a unit separator, as 16 hex digits. It is not
// collision-free; a collision serves the wrong cached translation.
func Hash(text, sourceLang, targetLang string) string {
	d := xxhash.New()
	_, _ = d.WriteString(text)
	_, _ = d.WriteString(sep)
	_, _ = d.WriteString(sourceLang)
	_, _ = d.WriteString(sep)
	_, _ = d.WriteString(targetLang)
	return fmt.Sprintf("%016x", d.Sum64())
}

func (c *Cache) expired(ts int64) bool {
	return timex.Since(c.now(), ts) >= c.ttl
}

// Lookup returns the cached translation, or nil when there is none. An
// expired entry is deleted and reported as a miss; so is a malformed one,
// which the next Store overwrites.
func (c *Cache) Lookup(ctx context.Context, text, sourceLang, targetLang string) (*Hit, error) {
	key := Hash(text, sourceLang, targetLang)

	d, err := c.store.Get(ctx, models.TableTranslations, key)
	if errors.Is(err, common.ErrMalformedRecord) {
		c.log.Warn(ctx, "malformed cache entry treated as miss", "hash", key, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if d == nil {
		return nil, nil
	}

	var e models.TranslationEntry
	if err := models.FromDoc(d, &e); err != nil || e.TranslatedText == "" {
		c.log.Warn(ctx, "malformed cache entry treated as miss", "hash", key)
		return nil, nil
	}

	if c.expired(e.Timestamp) {
		if err := c.store.Delete(ctx, models.TableTranslations, key); err != nil {
			return nil, fmt.Errorf("cache evict: %w", err)
		}
		c.log.Debug(ctx, "expired cache entry evicted", "hash", key)
		return nil, nil
	}

	return &Hit{Text: e.TranslatedText, Source: SourceCache}, nil
}

// Store upserts the translation of text stamped with the current time.
func (c *Cache) Store(ctx context.Context, text, sourceLang, targetLang, translated string) error {
	e := models.TranslationEntry{
		Hash:           Hash(text, sourceLang, targetLang),
		SourceText:     text,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		TranslatedText: translated,
		Timestamp:      c.now().UnixMilli(),
	}
	d, err := models.ToDoc(e)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, models.TableTranslations, d); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Sweep deletes every expired or unreadable entry and returns how many it removed.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	var stale []string
	err := c.store.ForEach(ctx, models.TableTranslations, func(key string, d models.Doc, derr error) error {
		if derr != nil {
			stale = append(stale, key)
			return nil
		}
		var e models.TranslationEntry
		if err := models.FromDoc(d, &e); err != nil || c.expired(e.Timestamp) {
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}

	for _, key := range stale {
		if err := c.store.Delete(ctx, models.TableTranslations, key); err != nil {
			return 0, fmt.Errorf("cache sweep: %w", err)
		}
	}
	if len(stale) > 0 {
		c.log.Info(ctx, "cache swept", "removed", len(stale))
	}
	return len(stale), nil
}

// Clear drops every cached translation.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx, models.TableTranslations); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}
