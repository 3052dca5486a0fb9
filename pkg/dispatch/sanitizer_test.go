package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "Apple pie", "Apple pie", nil},
		{"keeps newlines and tabs", "line1\n\tline2", "line1\n\tline2", nil},
		{"strips control characters", "pie\x00\x1b[31m\x07", "pie[31m", nil},
		{"normalizes to NFC", "cafe\u0301", "caf\u00e9", nil},
		{"invalid utf8", "bad \xff", "", ErrInvalidUTF8},
		{"too large", strings.Repeat("a", DefaultMaxInputSize+1), "", ErrInputTooLarge},
		{"limit counts characters", strings.Repeat("щ", DefaultMaxInputSize), strings.Repeat("щ", DefaultMaxInputSize), nil},
		{"too many characters", strings.Repeat("щ", DefaultMaxInputSize+1), "", ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", Clip("  abc  ", 10))
	assert.Equal(t, "жар", Clip("жареный", 3))
	assert.Equal(t, "", Clip("   ", 5))
}
