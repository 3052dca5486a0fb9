// Package caption builds the short summary shown under a submitted recipe.
package caption

import "strings"

// MaxLength is the caption limit in characters.
const MaxLength = 160

// Fallback is returned when there is nothing to summarize.
const Fallback = "Homemade hit from CookNet AI 😋"

const separator = " — "

// Generate returns "<title> — <description>" truncated to MaxLength characters
// and trimmed. Fallback is used when nothing but the separator is left.
func Generate(title, description string) string {
	base := strings.TrimSpace(title) + separator + strings.TrimSpace(description)
	base = strings.TrimSpace(truncate(base, MaxLength))
	if base == "" || base == strings.TrimSpace(separator) {
		return Fallback
	}
	return base
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
