package services

import (
	"regexp"
	"sort"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// RenderTemplate substitutes {key} placeholders. A placeholder whose value
// is blank is removed together with a comma (',' or '，') or whitespace
// directly in front of it, so "Good night, {name}!" becomes "Good night!".
// Runs of whitespace collapse to one space.
func RenderTemplate(template string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := template
	for _, k := range keys {
		ph := regexp.QuoteMeta("{" + k + "}")
		v := values[k]
		if strings.TrimSpace(v) != "" {
			out = strings.ReplaceAll(out, "{"+k+"}", v)
			continue
		}
		out = regexp.MustCompile(`\s*[,，]\s*`+ph).ReplaceAllString(out, "")
		out = regexp.MustCompile(`\s+`+ph).ReplaceAllString(out, "")
		out = strings.ReplaceAll(out, "{"+k+"}", "")
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(out, " "))
}

// RenderPhrase fills {name} in text; an empty name drops the placeholder.
func RenderPhrase(text, name string) string {
	return RenderTemplate(text, map[string]string{"name": name})
}
