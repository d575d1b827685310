package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/famlink/internal/cache"
	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/langx"
	"github.com/dmitrijs2005/famlink/internal/logging"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/relay"
)

// Result sources besides cache.SourceCache.
const (
	SourceSameLanguage = "same-language"
	SourceProvider     = "provider"
)

// The provider must leave {name} untouched, so it is wrapped in an ignored
// XML tag for the request and unwrapped in the answer.
const (
	ignoreTag   = "x"
	tagHandling = "xml"
)

var (
	namePlaceholder = regexp.MustCompile(`\{name\}`)
	ignoreTagRe     = regexp.MustCompile(`</?` + ignoreTag + `>`)
)

// SettingsStore is the part of the record store the translator reads and
// writes.
type SettingsStore interface {
	GetUserSettings(ctx context.Context) (*models.UserSettings, error)
	UpdateUsage(ctx context.Context, count, limit int64) (models.Usage, error)
}

// TranslationCache is implemented by *cache.Cache.
type TranslationCache interface {
	Lookup(ctx context.Context, text, sourceLang, targetLang string) (*cache.Hit, error)
	Store(ctx context.Context, text, sourceLang, targetLang, translated string) error
	Sweep(ctx context.Context) (int, error)
}

// Relay is implemented by *relay.Client.
type Relay interface {
	Translate(ctx context.Context, req relay.TranslateRequest) (*relay.Translation, error)
	Usage(ctx context.Context, apiKey string) (*relay.Usage, error)
}

// Translation is a successful translation and where it came from.
type Translation struct {
	Text   string
	Source string
}

// TranslationResult is the non-throwing form of Translate: exactly one of
// Text or Error is meaningful.
type TranslationResult struct {
	Text   string
	Source string
	Error  error
}

// Translator resolves translations from the same-language shortcut, the
// cache and finally the relay. The API key lives in memory after
// Initialize or SetAPIKey.
type Translator struct {
	settings SettingsStore
	cache    TranslationCache
	relay    Relay
	log      logging.Logger
	metrics  *Metrics

	mu      sync.RWMutex
	apiKey  string
	offline bool
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

func WithTranslatorLogger(l logging.Logger) TranslatorOption {
	return func(t *Translator) { t.log = l }
}

func WithMetrics(m *Metrics) TranslatorOption {
	return func(t *Translator) { t.metrics = m }
}

// WithOffline starts the translator without network access.
func WithOffline(offline bool) TranslatorOption {
	return func(t *Translator) { t.offline = offline }
}

func NewTranslator(settings SettingsStore, c TranslationCache, r Relay, opts ...TranslatorOption) *Translator {
	t := &Translator{settings: settings, cache: c, relay: r, log: logging.Discard()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Initialize loads the API key from settings and sweeps expired cache
// entries. A failed sweep is logged and does not fail initialization.
func (t *Translator) Initialize(ctx context.Context) error {
	s, err := t.settings.GetUserSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if s.HasAPIKey() {
		t.SetAPIKey(*s.APIKey)
	}

	n, err := t.cache.Sweep(ctx)
	if err != nil {
		t.log.Warn(ctx, "cache sweep failed", "error", err)
		return nil
	}
	if n > 0 {
		t.log.Info(ctx, "expired translations removed", "count", n)
	}
	return nil
}

// SetAPIKey replaces the in-memory key; the caller persists it separately.
func (t *Translator) SetAPIKey(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiKey = strings.TrimSpace(key)
}

func (t *Translator) SetOffline(offline bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offline = offline
}

func (t *Translator) key() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.apiKey, t.apiKey != "" && !t.offline
}

// IsAvailable reports whether a provider call would be attempted.
func (t *Translator) IsAvailable() bool {
	_, ok := t.key()
	return ok
}

// Translate returns text in targetLang. Same-language requests are answered
// without any lookup. Without a key, or while offline, nothing else is
// attempted, not even the cache.
//
// Parameters:
//   - ctx: bounds the cache lookup and the relay call.
//   - text: the text to translate; {name} placeholders are kept verbatim.
//   - sourceLang: the language text is written in, e.g. "en".
//   - targetLang: the wanted language; a region ("pt-BR") is sent as is.
//
// Returns:
//   - *Translation: the text and where it came from (same language, cache
//     or provider).
//   - error: common.ErrEmptyInput, common.ErrServiceUnavailable, or a
//     wrapped *common.ProviderError from the relay.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (*Translation, error) {
	if strings.TrimSpace(text) == "" {
		t.metrics.failed("empty_input")
		return nil, common.ErrEmptyInput
	}

	// regional variants are distinct targets ("EN-GB" -> "EN-US" is sent);
	// the provider takes a bare source language
	src, tgt := langx.Normalize(sourceLang), langx.Code(targetLang)
	if langx.Code(sourceLang) == tgt {
		t.metrics.served(SourceSameLanguage)
		return &Translation{Text: text, Source: SourceSameLanguage}, nil
	}

	apiKey, ok := t.key()
	if !ok {
		t.metrics.failed("unavailable")
		return nil, common.ErrServiceUnavailable
	}

	hit, err := t.cache.Lookup(ctx, text, src, tgt)
	if err != nil {
		t.log.Warn(ctx, "cache lookup failed", "error", err)
	}
	if hit != nil {
		t.metrics.served(hit.Source)
		return &Translation{Text: hit.Text, Source: hit.Source}, nil
	}

	req := relay.TranslateRequest{
		Text:       protectNames(text),
		SourceLang: src,
		TargetLang: tgt,
		APIKey:     apiKey,
	}
	if req.Text != text {
		req.TagHandling = tagHandling
		req.IgnoreTags = ignoreTag
	}

	t.metrics.sent(EstimateCost(text))
	tr, err := t.relay.Translate(ctx, req)
	if err != nil {
		t.metrics.failed(errorKind(err))
		t.log.Error(ctx, "translation failed", "source_lang", src, "target_lang", tgt, "error", err)
		return nil, fmt.Errorf("translate: %w", err)
	}

	out := unprotectNames(tr.Text)
	if err := t.cache.Store(ctx, text, src, tgt, out); err != nil {
		t.log.Warn(ctx, "cache store failed", "error", err)
	}
	t.metrics.served(SourceProvider)
	return &Translation{Text: out, Source: SourceProvider}, nil
}

// TryTranslate is Translate with the error folded into the result.
func (t *Translator) TryTranslate(ctx context.Context, text, sourceLang, targetLang string) TranslationResult {
	tr, err := t.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return TranslationResult{Error: err}
	}
	return TranslationResult{Text: tr.Text, Source: tr.Source}
}

// GetUsage asks the relay for the quota of apiKey, or of the in-memory key
// when apiKey is empty. Failures are reported in the result.
func (t *Translator) GetUsage(ctx context.Context, apiKey string) UsageResult {
	t.mu.RLock()
	offline := t.offline
	if apiKey == "" {
		apiKey = t.apiKey
	}
	t.mu.RUnlock()

	switch {
	case offline:
		return UsageResult{Error: fmt.Errorf("%w: offline", common.ErrServiceUnavailable)}
	case apiKey == "":
		return UsageResult{Error: fmt.Errorf("%w: no API key", common.ErrServiceUnavailable)}
	}

	u, err := t.relay.Usage(ctx, apiKey)
	if err != nil {
		t.log.Warn(ctx, "usage request failed", "tier", TierOf(apiKey), "error", err)
		return UsageResult{Error: err}
	}
	return UsageResult{Usage: &UsageReport{CharacterCount: u.CharacterCount, CharacterLimit: u.CharacterLimit}}
}

// RefreshUsage fetches the quota of the in-memory key and stores it in
// settings.
func (t *Translator) RefreshUsage(ctx context.Context) (*UsageReport, error) {
	res := t.GetUsage(ctx, "")
	if res.Error != nil {
		return nil, res.Error
	}
	if _, err := t.settings.UpdateUsage(ctx, res.Usage.CharacterCount, res.Usage.CharacterLimit); err != nil {
		return nil, fmt.Errorf("save usage: %w", err)
	}
	return res.Usage, nil
}

// EstimateCost is the number of characters the provider bills for text.
func EstimateCost(text string) int {
	return utf8.RuneCountInString(text)
}

// WouldExceedQuota is a soft pre-check against the last known usage; the
// provider remains the authority.
func WouldExceedQuota(text string, usage models.Usage) bool {
	if usage.CharacterLimit <= 0 {
		return false
	}
	return usage.CharacterCount+int64(EstimateCost(text)) > usage.CharacterLimit
}

func protectNames(text string) string {
	return namePlaceholder.ReplaceAllString(text, "<"+ignoreTag+">{name}</"+ignoreTag+">")
}

func unprotectNames(text string) string {
	return ignoreTagRe.ReplaceAllString(text, "")
}

func errorKind(err error) string {
	var pe *common.ProviderError
	switch {
	case errors.As(err, &pe):
		return string(pe.Kind)
	case errors.Is(err, common.ErrServiceUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
