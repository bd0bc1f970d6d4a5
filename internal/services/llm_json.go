package services

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

// extractJSON pulls a JSON object or array out of text that may carry
// markdown fences or prose around it.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	// Prefer whichever structure opens first so an array of objects is not
	// mistaken for a single object.
	if startArr != -1 && endArr > startArr && (startObj == -1 || startArr < startObj) {
		return text[startArr : endArr+1]
	}
	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return strings.TrimSpace(text)
}

// flexFloat tolerates the number-vs-quoted-number drift in LLM output.
// Anything unparseable coerces to zero instead of failing the record.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	s := strings.Trim(string(data), `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// truncateText cuts s to at most max bytes, backing off to a rune boundary
// so a multi-byte character is never split.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// cleanStringList trims entries, drops empties, and truncates to max
// (max <= 0 means unbounded).
func cleanStringList(items []string, max int) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		cleaned = append(cleaned, item)
		if max > 0 && len(cleaned) == max {
			break
		}
	}
	return cleaned
}
