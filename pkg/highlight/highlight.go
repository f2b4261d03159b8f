// Package highlight marks query tokens inside display strings.
package highlight

import (
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/typeahead/internal/utils"
)

// Emphasis markers wrapped around every match.
const (
	OpenTag  = "<mark>"
	CloseTag = "</mark>"
)

// Highlight escapes text for HTML and wraps every case-insensitive occurrence
// of each distinct query token in <mark> tags. Tokens are applied one after the
// other, each pass working on the previous pass's output; a pass never matches
// inside a tag or an escaped entity.
func Highlight(text, query string) string {
	out := html.EscapeString(text)
	for _, tok := range queryTokens(query) {
		out = markPass(out, html.EscapeString(tok))
	}
	return out
}

func queryTokens(query string) []string {
	return utils.Distinct(utils.Tokens(utils.Normalize(query)))
}

// markPass wraps matches of tok in s. s is escaped HTML, so any '<' in it
// belongs to a tag inserted by an earlier pass.
func markPass(s, tok string) string {
	var b strings.Builder
	b.Grow(len(s) + len(OpenTag) + len(CloseTag))

	inTag, inEntity := false, false
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case inTag:
			inTag = c != '>'
			b.WriteByte(c)
			i++
			continue
		case c == '<':
			inTag = true
			b.WriteByte(c)
			i++
			continue
		case inEntity:
			inEntity = c != ';'
			b.WriteByte(c)
			i++
			continue
		}

		if n := utils.FoldPrefixLen(s[i:], tok); n > 0 {
			b.WriteString(OpenTag)
			b.WriteString(s[i : i+n])
			b.WriteString(CloseTag)
			i += n
			continue
		}

		if c == '&' {
			inEntity = true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

// Ranges returns the merged byte ranges of text covered by any query token,
// matched case-insensitively on the raw text. Renderers that cannot use HTML
// (terminals) style these ranges themselves.
func Ranges(text, query string) [][2]int {
	var spans [][2]int
	for _, tok := range queryTokens(query) {
		for i := 0; i < len(text); {
			if n := utils.FoldPrefixLen(text[i:], tok); n > 0 {
				spans = append(spans, [2]int{i, i + n})
				i += n
				continue
			}
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp[0] <= last[1] {
			last[1] = max(last[1], sp[1])
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// Apply wraps each range of text with wrap, leaving the rest untouched.
func Apply(text string, ranges [][2]int, wrap func(string) string) string {
	if len(ranges) == 0 {
		return text
	}
	var b strings.Builder
	prev := 0
	for _, r := range ranges {
		b.WriteString(text[prev:r[0]])
		b.WriteString(wrap(text[r[0]:r[1]]))
		prev = r[1]
	}
	b.WriteString(text[prev:])
	return b.String()
}
