/*
Package model defines the typeahead candidates and the raw provider records they
are built from.

Providers hand back loosely shaped records: any field may be missing or null.
NewPost and NewAuthor are the only way to build a Candidate, so everything past
this package can rely on a post having an ID and an author having a name.
*/
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Placeholders for optional fields a record did not carry.
const (
	UntitledPost  = "(untitled)"
	UnknownAuthor = "unknown"
)

var (
	// ErrNoID is returned for a post record without an identifier.
	ErrNoID = errors.New("post record has no id")
	// ErrNoName is returned for an author record without a name.
	ErrNoName = errors.New("author record has no name")
)

// Kind tags a Candidate variant.
type Kind string

const (
	KindPost   Kind = "post"
	KindAuthor Kind = "author"
)

// Candidate is either a Post or an Author.
type Candidate interface {
	Kind() Kind
	// Label is the display text the candidate is known by.
	Label() string
	// Key identifies the candidate within its kind.
	Key() string
	sealed()
}

// Post is a content item returned by the content provider.
type Post struct {
	ID         string
	Title      string
	AuthorName string
	ImageURL   string
	CreatedAt  time.Time
	// Popularity is the sum of all reaction counts at fetch time.
	Popularity int
}

func (Post) Kind() Kind { return KindPost }
func (p Post) Label() string { return p.Title }
func (p Post) Key() string { return p.ID }
func (Post) sealed() {}

// Author is a profile returned by the author provider.
type Author struct {
	Name     string
	Bio      string
	ImageURL string
}

func (Author) Kind() Kind { return KindAuthor }
func (a Author) Label() string { return a.Name }
func (a Author) Key() string { return a.Name }
func (Author) sealed() {}

// NewPost validates a raw post record.
func NewPost(r PostRecord) (Post, error) {
	id := strings.TrimSpace(string(r.ID))
	if id == "" {
		return Post{}, ErrNoID
	}

	p := Post{
		ID:         id,
		Title:      UntitledPost,
		AuthorName: UnknownAuthor,
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) != "" {
		p.Title = *r.Title
	}
	if r.Author != nil && strings.TrimSpace(r.Author.Name) != "" {
		p.AuthorName = r.Author.Name
	}
	if r.Media != nil {
		p.ImageURL = r.Media.URL
	}
	if r.Created != "" {
		if ts, err := time.Parse(time.RFC3339, r.Created); err == nil {
			p.CreatedAt = ts
		}
	}
	p.Popularity = popularity(r.Reactions)
	return p, nil
}

// maxPopularity caps the reaction sum so it always fits an int.
const maxPopularity = math.MaxInt32

// popularity sums the positive, finite reaction counts.
func popularity(reactions []ReactionRecord) int {
	var sum float64
	for _, reaction := range reactions {
		n := float64(reaction.Count)
		if n <= 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			continue
		}
		sum += n
		if sum >= maxPopularity {
			return maxPopularity
		}
	}
	return int(sum)
}

// NewAuthor validates a raw author record.
func NewAuthor(r AuthorRecord) (Author, error) {
	if strings.TrimSpace(r.Name) == "" {
		return Author{}, ErrNoName
	}
	a := Author{Name: r.Name}
	if r.Bio != nil {
		a.Bio = *r.Bio
	}
	if r.Avatar != nil {
		a.ImageURL = r.Avatar.URL
	}
	return a, nil
}

// Describe renders a candidate for logs.
func Describe(c Candidate) string {
	return fmt.Sprintf("%s:%s", c.Kind(), c.Key())
}
