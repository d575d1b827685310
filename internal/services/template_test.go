package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
	}{
		{"fills name", "Good night {name}, sweet dreams.", map[string]string{"name": "Léna"}, "Good night Léna, sweet dreams."},
		{"repeated", "{name}! {name}!", map[string]string{"name": "Star"}, "Star! Star!"},
		{"empty drops comma", "Have a wonderful day, {name}!", map[string]string{"name": ""}, "Have a wonderful day!"},
		{"empty drops fullwidth comma", "祝你今天过得愉快，{name}！", map[string]string{"name": " "}, "祝你今天过得愉快！"},
		{"empty drops leading space", "Good morning {name} how are you", map[string]string{"name": ""}, "Good morning how are you"},
		{"empty at start", "{name}，你吃得好吗？", map[string]string{"name": ""}, "，你吃得好吗？"},
		{"unknown key untouched", "Hi {friend}", map[string]string{"name": "x"}, "Hi {friend}"},
		{"collapses whitespace", "  Hi   {name}  ", map[string]string{"name": "Léna"}, "Hi Léna"},
		{"regexp metacharacters in key", "Hi {a.b}", map[string]string{"a.b": ""}, "Hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.template, tt.values))
		})
	}
}

func TestRenderPhrase(t *testing.T) {
	assert.Equal(t, "晚安 蕾娜，做个好梦。", RenderPhrase("晚安 {name}，做个好梦。", "蕾娜"))
	assert.Equal(t, "晚安，做个好梦。", RenderPhrase("晚安 {name}，做个好梦。", ""))
}
