package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/highlight"
	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/rank"
)

// maxDetail bounds how many runes of a bio or author line are shown.
const maxDetail = 48

// renderer formats ranked suggestions for a terminal.
type renderer struct {
	showScores bool
	// mark styles the parts of a label that matched the query.
	mark func(string) string
	kind func(string) string
	dim  func(string) string
}

func newRenderer(showScores bool) renderer {
	mark := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#d7827e", Dark: "#ebbcba"})
	kind := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	dim := lipgloss.NewStyle().Faint(true)

	return renderer{
		showScores: showScores,
		mark:       func(s string) string { return mark.Render(s) },
		kind:       func(s string) string { return kind.Render(s) },
		dim:        func(s string) string { return dim.Render(s) },
	}
}

func (r renderer) line(i int, it rank.Scored, query string) string {
	label := it.Candidate.Label()
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s %s", i+1, r.kind(fmt.Sprintf("%-8s", "["+string(it.Candidate.Kind())+"]")),
		highlight.Apply(label, highlight.Ranges(label, query), r.mark))

	switch c := it.Candidate.(type) {
	case model.Post:
		detail := "by " + c.AuthorName
		if c.Popularity > 0 {
			detail += fmt.Sprintf(", %s reactions", utils.FormatWithCommas(c.Popularity))
		}
		if !c.CreatedAt.IsZero() {
			detail += ", " + c.CreatedAt.Format("2006-01-02")
		}
		b.WriteString("  " + r.dim(detail))
	case model.Author:
		if c.Bio != "" {
			b.WriteString("  " + r.dim(truncate(c.Bio, maxDetail)))
		}
	}

	if r.showScores {
		fmt.Fprintf(&b, "  (score: %.2f)", it.Score)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
