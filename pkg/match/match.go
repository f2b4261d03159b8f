// Package match classifies how strongly a query matches a text field.
package match

import (
	"strings"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/fuzzy"
)

// Match tiers, strongest first.
const (
	TierExact       = 100
	TierPrefix      = 85
	TierTokenPrefix = 75
	TierSubstring   = 65
	TierOneEdit     = 55
	TierTwoEdits    = 45
	TierNone        = 0
)

// maxEdits is the largest edit distance still counted as a fuzzy match.
const maxEdits = 2

// Tier returns the match tier of query against field. Both are normalized
// first and the first rule that applies wins.
func Tier(query, field string) int {
	return TierNormalized(utils.Normalize(query), utils.Normalize(field))
}

// TierNormalized is Tier for inputs that went through utils.Normalize already.
func TierNormalized(q, f string) int {
	if q == "" || f == "" {
		return TierNone
	}
	switch {
	case f == q:
		return TierExact
	case strings.HasPrefix(f, q):
		return TierPrefix
	case hasTokenPrefix(f, q):
		return TierTokenPrefix
	case strings.Contains(f, q):
		return TierSubstring
	}

	switch fuzzy.DistanceRunes([]rune(f), []rune(q), maxEdits) {
	case 1:
		return TierOneEdit
	case 2:
		return TierTwoEdits
	}
	return TierNone
}

func hasTokenPrefix(f, q string) bool {
	for _, tok := range utils.Tokens(f) {
		if strings.HasPrefix(tok, q) {
			return true
		}
	}
	return false
}
