package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "How to Train Your Dragon", "how-to-train-your-dragon"},
		{"accents", "Crème Brûlée", "creme-brulee"},
		{"punctuation", "Go: the good parts!", "go-the-good-parts"},
		{"leading and trailing junk", "  --Dragons--  ", "dragons"},
		{"emoji", "🐉 Dragons", "dragons"},
		{"numbers", "Top 10 Tips", "top-10-tips"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugify_TruncatesLongTitles(t *testing.T) {
	s := Slugify(strings.Repeat("dragon ", 100))
	assert.LessOrEqual(t, len(s), maxBaseLength)
	assert.False(t, strings.HasSuffix(s, "-"))
}

func TestNew_AppendsSuffix(t *testing.T) {
	s, err := New("How to Train Your Dragon")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^how-to-train-your-dragon-[0-9a-z]{6}$`), s)
}

func TestNew_EmptyBase(t *testing.T) {
	s, err := New("???")
	require.NoError(t, err)
	assert.Len(t, s, suffixLength)
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		s, err := New("same title")
		require.NoError(t, err)
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
}
