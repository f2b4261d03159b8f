package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	cases := []struct {
		text, query, want string
		description       string
	}{
		{"Anna Lee", "anna", "<mark>Anna</mark> Lee", "case insensitive"},
		{"anna and anna", "ANNA", "<mark>anna</mark> and <mark>anna</mark>", "every occurrence"},
		{"Weekend hike", "", "Weekend hike", "empty query"},
		{"Weekend hike", "   ", "Weekend hike", "blank query"},
		{"Weekend hike", "hike week", "<mark>Week</mark>end <mark>hike</mark>", "multiple tokens"},
		{"anna", "anna anna", "<mark>anna</mark>", "duplicate tokens run once"},
		{"anna", "anna an", "<mark><mark>an</mark>na</mark>", "later passes see earlier output"},
		{"no match here", "xyz", "no match here", "no match"},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.want, Highlight(tc.text, tc.query))
		})
	}
}

func TestHighlightEscapesText(t *testing.T) {
	got := Highlight(`<script>anna</script>`, "anna")
	assert.Equal(t, "&lt;script&gt;<mark>anna</mark>&lt;/script&gt;", got)
	assert.NotContains(t, got, "<script>")
}

func TestHighlightNeverMatchesInsideMarkup(t *testing.T) {
	// "mark" must not hit the tags inserted for "my"
	assert.Equal(t, "<mark>mark</mark> <mark>my</mark> words", Highlight("mark my words", "my mark"))
	// "lt" must not split the entity produced by escaping '<'
	assert.Equal(t, "a&lt;b", Highlight("a<b", "lt"))
	assert.Equal(t, "it&#39;s <mark>39</mark>", Highlight("it's 39", "39"))
}

func TestHighlightMatchesEscapedCharacters(t *testing.T) {
	assert.Equal(t, "salt <mark>&amp;</mark> pepper", Highlight("salt & pepper", "&"))
	assert.Equal(t, "<mark>O&#39;Neil</mark> writes", Highlight("O'Neil writes", "o'neil"))
}

func TestRanges(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 4}, {9, 13}}, Ranges("Anna and Annabelle", "ann anna"))
	assert.Nil(t, Ranges("Anna", "xyz"))
	assert.Nil(t, Ranges("Anna", ""))
}

func TestApply(t *testing.T) {
	text := "Anna and Annabelle"
	got := Apply(text, Ranges(text, "anna"), func(s string) string { return "[" + s + "]" })
	assert.Equal(t, "[Anna] and [Anna]belle", got)
	assert.Equal(t, text, Apply(text, nil, nil))
}
