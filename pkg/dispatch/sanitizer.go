package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxInputSize matches the chat transport's message limit, in characters.
var DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans user text by enforcing a character limit, validating UTF-8,
// stripping control characters and normalizing to NFC.
func SanitizeInput(input string) (string, error) {
	// A character is at most utf8.UTFMax bytes, so oversized input is rejected before counting.
	if len(input) > DefaultMaxInputSize*utf8.UTFMax {
		return "", fmt.Errorf("%w: bytes=%d limit=%d", ErrInputTooLarge, len(input), DefaultMaxInputSize)
	}
	if n := utf8.RuneCountInString(input); n > DefaultMaxInputSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, n, DefaultMaxInputSize)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Newline, tab and carriage return are kept; ESC, NUL, BEL and friends are removed.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(input))
		for _, r := range input {
			if !unicode.IsControl(r) || isSafeControl(r) {
				b.WriteRune(r)
			}
		}
		input = b.String()
	}

	return norm.NFC.String(input), nil
}

// Clip trims s and cuts it to at most limit characters.
func Clip(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
