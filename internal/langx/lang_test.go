package langx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"fr":      "FR",
		"FR":      "FR",
		"fr-CA":   "FR",
		"zh-Hans": "ZH",
		" en ":    "EN",
		"":        "",
		"??":      "??",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestCode(t *testing.T) {
	tests := map[string]string{
		"pt-br":   "PT-BR",
		"en-GB":   "EN-GB",
		" EN-us ": "EN-US",
		"zh-Hans": "ZH-HANS",
		"fr":      "FR",
		"":        "",
		"??":      "??",
	}
	for in, want := range tests {
		assert.Equal(t, want, Code(in), in)
	}
}

func TestSame(t *testing.T) {
	assert.True(t, Same("en", "EN"))
	assert.True(t, Same("en-GB", "en"))
	assert.False(t, Same("en", "fr"))
}

func TestLocaleFile(t *testing.T) {
	assert.Equal(t, "en", LocaleFile("EN-us"))
	assert.Equal(t, "zh", LocaleFile("ZH"))
}

func TestMatch(t *testing.T) {
	available := []string{"en", "fr", "zh"}
	assert.Equal(t, "fr", Match("fr-CA", available, "en"))
	assert.Equal(t, "zh", Match("ZH", available, "en"))
	assert.Equal(t, "en", Match("de", available, "en"))
	assert.Equal(t, "en", Match("not a tag!", available, "en"))
	assert.Equal(t, "en", Match("fr", nil, "en"))
}
