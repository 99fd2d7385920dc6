// Package textnorm strips formatting noise from free-text fields extracted from source documents.
package textnorm

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// noneMarker is what the document extractors emit for an empty cell.
const noneMarker = "None"

// Clean removes newlines, carriage returns and tabs and collapses repeated
// whitespace into single spaces. Empty input and the "None" marker yield "".
func Clean(s string) string {
	if s == "" || s == noneMarker {
		return ""
	}

	s = strings.NewReplacer("\n", "", "\r", "", "\t", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsBlank reports whether s is empty after cleaning.
func IsBlank(s string) bool {
	return Clean(s) == ""
}

var digitFolder = runes.Map(func(r rune) rune {
	switch {
	case r >= '０' && r <= '９':
		return '0' + (r - '０')
	case r == '．':
		return '.'
	}
	return r
})

// FoldDigits maps full-width digits and the full-width full stop to ASCII.
// Other full-width punctuation is left alone; folding the full-width comma
// would merge adjacent numbers once thousands separators are stripped.
func FoldDigits(s string) string {
	out, _, err := transform.String(digitFolder, s)
	if err != nil {
		return s
	}
	return out
}
