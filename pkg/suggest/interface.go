// Package suggest is the core: it turns keystrokes into ranked typeahead
// suggestions by fanning out to the content and author providers, ranking the
// merged candidates and caching the outcome per query.
package suggest

import (
	"context"

	"github.com/bastiangx/typeahead/pkg/model"
)

// Sort options understood by content providers.
const (
	SortByCreated  = "created"
	SortDescending = "desc"
)

// PostQuery parameterizes a content provider lookup.
type PostQuery struct {
	Text             string
	Limit            int
	SortBy           string
	SortOrder        string
	IncludeAuthor    bool
	IncludeReactions bool
}

// AuthorQuery parameterizes an author provider lookup.
type AuthorQuery struct {
	Text  string
	Limit int
}

// ContentProvider returns post-like records matching a query.
type ContentProvider interface {
	SearchPosts(ctx context.Context, q PostQuery) ([]model.PostRecord, error)
}

// AuthorProvider returns author-like records matching a query.
type AuthorProvider interface {
	SearchAuthors(ctx context.Context, q AuthorQuery) ([]model.AuthorRecord, error)
}

// ISearcher is the boundary the CLI and IPC server talk to.
type ISearcher interface {
	// Search runs a query right away and returns its final result.
	// ok is false when a newer query superseded it.
	Search(ctx context.Context, raw string) (result Result, ok bool)

	// Submit feeds a keystroke; results reach the listener after the debounce.
	Submit(raw string)

	// SetListener replaces the receiver of Submit results.
	SetListener(fn Listener)

	// Stats returns counters about the engine.
	Stats() map[string]int
}
