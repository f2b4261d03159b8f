package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text for comparison and cache keys.
// It decomposes the text, strips combining marks, lower-cases it and
// collapses whitespace runs into a single space. "  Éva\tNilsson " -> "eva nilsson".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded := foldDiacritics(s)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// foldDiacritics strips combining marks after canonical decomposition.
// The transformer chain is stateful, so a new one is built per call.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokens splits normalized text on single spaces, skipping empties.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
