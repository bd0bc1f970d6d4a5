package services

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced object", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without language tag", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"object with surrounding prose", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"bare array", `[{"a": 1}]`, `[{"a": 1}]`},
		{"array of objects not mistaken for object", `[{"a": 1}, {"b": 2}]`, `[{"a": 1}, {"b": 2}]`},
		{"fenced array with prose", "Sure:\n```json\n[{\"a\": 1}]\n```", `[{"a": 1}]`},
		{"no json at all", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.input))
		})
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain number", `{"v": 5.5}`, 5.5},
		{"integer", `{"v": 3}`, 3},
		{"quoted number", `{"v": "7.25"}`, 7.25},
		{"null", `{"v": null}`, 0},
		{"empty string", `{"v": ""}`, 0},
		{"garbage coerces to zero", `{"v": "about five years"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload struct {
				V flexFloat `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.input), &payload))
			assert.Equal(t, tt.want, float64(payload.V))
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"under limit untouched", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"backs off to rune boundary", "héllo", 2, "h"},
		{"keeps whole multi-byte rune", "héllo", 3, "hé"},
		{"cjk cut mid-rune", "日本語", 4, "日"},
		{"zero max", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.input, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestCleanStringList(t *testing.T) {
	got := cleanStringList([]string{" a ", "", "b", "  ", "c", "d"}, 3)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	unbounded := cleanStringList([]string{"a", "b"}, 0)
	assert.Equal(t, []string{"a", "b"}, unbounded)

	assert.Empty(t, cleanStringList(nil, 5))
}
