// Package langx normalizes the language codes the application stores and
// sends to the translation provider.
package langx

import (
	"strings"

	"golang.org/x/text/language"
)

// Normalize returns the upper-case base language of a BCP 47 tag
// ("fr-CA" -> "FR", "zh-Hans" -> "ZH"). Unparseable input is returned
// trimmed and upper-cased so callers can still compare it.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	base, _ := tag.Base()
	return strings.ToUpper(base.String())
}

// Code returns the whole tag upper-cased, region and script included
// ("pt-br" -> "PT-BR", "zh-Hans" -> "ZH-HANS"). Unparseable input is
// returned trimmed and upper-cased.
func Code(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	return strings.ToUpper(tag.String())
}

// Same reports whether two codes name the same base language.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// LocaleFile returns the lower-case base language used to name locale seed
// files ("EN-us" -> "en").
func LocaleFile(code string) string {
	return strings.ToLower(Normalize(code))
}

// Match picks the best of available (lower-case base codes) for code,
// falling back to fallback when nothing is close enough.
func Match(code string, available []string, fallback string) string {
	if len(available) == 0 {
		return fallback
	}
	tags := make([]language.Tag, 0, len(available))
	for _, a := range available {
		tags = append(tags, language.Make(a))
	}
	want, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return fallback
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf < language.High {
		return fallback
	}
	return available[idx]
}
