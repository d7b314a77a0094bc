// Package slug builds the URL identifiers assigned to articles.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength   = 6
	maxBaseLength  = 200
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL-safe slug.
// "How to Train Your Dragon" -> "how-to-train-your-dragon".
// "Crème Brûlée" -> "creme-brulee".
func Slugify(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxBaseLength {
		s = strings.TrimRight(s[:maxBaseLength], "-")
	}
	return s
}

// New returns Slugify(title) with a random suffix, e.g. "how-to-train-x1k9qa".
// A title with no usable characters yields just the suffix.
func New(title string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("generate slug suffix: %w", err)
	}

	base := Slugify(title)
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}
