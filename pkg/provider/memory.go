package provider

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

// Memory serves posts and profiles from an in-process patricia trie that maps
// every normalized token of a record to the records containing it.
// A record matches when each query token prefixes one of its tokens.
type Memory struct {
	mu          sync.RWMutex
	posts       []model.PostRecord
	authors     []model.AuthorRecord
	postIndex   *patricia.Trie
	authorIndex *patricia.Trie
	postIDs     *utils.SeenFilter
	authorNames *utils.SeenFilter
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		postIndex:   patricia.NewTrie(),
		authorIndex: patricia.NewTrie(),
		postIDs:     utils.NewSeenFilter(),
		authorNames: utils.NewSeenFilter(),
	}
}

// AddPosts indexes posts and reports how many were accepted.
// Posts without an id or with an id already present are skipped.
func (m *Memory) AddPosts(records ...model.PostRecord) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, r := range records {
		if r.ID == "" || !m.postIDs.ShouldInclude(string(r.ID)) {
			continue
		}
		idx := len(m.posts)
		m.posts = append(m.posts, r)
		var text []string
		if r.Title != nil {
			text = append(text, *r.Title)
		}
		if r.Body != nil {
			text = append(text, *r.Body)
		}
		if r.Author != nil {
			text = append(text, r.Author.Name)
		}
		index(m.postIndex, idx, text...)
		added++
	}
	return added
}

// AddAuthors indexes profiles and reports how many were accepted.
// Profiles without a name or with a name already present are skipped.
func (m *Memory) AddAuthors(records ...model.AuthorRecord) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, r := range records {
		if r.Name == "" || !m.authorNames.ShouldInclude(r.Name) {
			continue
		}
		idx := len(m.authors)
		m.authors = append(m.authors, r)
		text := []string{r.Name}
		if r.Bio != nil {
			text = append(text, *r.Bio)
		}
		index(m.authorIndex, idx, text...)
		added++
	}
	return added
}

// Len returns the number of indexed posts and profiles.
func (m *Memory) Len() (posts, authors int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.posts), len(m.authors)
}

// SearchPosts implements suggest.ContentProvider.
func (m *Memory) SearchPosts(ctx context.Context, q suggest.PostQuery) ([]model.PostRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := lookup(m.postIndex, q.Text)
	out := make([]model.PostRecord, 0, len(hits))
	for _, idx := range hits {
		r := m.posts[idx]
		if !q.IncludeAuthor {
			r.Author = nil
		}
		if !q.IncludeReactions {
			r.Reactions = nil
		}
		out = append(out, r)
	}

	if q.SortBy == suggest.SortByCreated {
		sortByCreated(out, q.SortOrder == suggest.SortDescending)
	}
	return truncate(out, q.Limit), nil
}

// SearchAuthors implements suggest.AuthorProvider.
func (m *Memory) SearchAuthors(ctx context.Context, q suggest.AuthorQuery) ([]model.AuthorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := lookup(m.authorIndex, q.Text)
	out := make([]model.AuthorRecord, 0, len(hits))
	for _, idx := range hits {
		out = append(out, m.authors[idx])
	}
	return truncate(out, q.Limit), nil
}

func index(trie *patricia.Trie, idx int, text ...string) {
	var tokens []string
	for _, t := range text {
		tokens = append(tokens, utils.Tokens(utils.Normalize(t))...)
	}
	for _, tok := range utils.Distinct(tokens) {
		key := patricia.Prefix(tok)
		if item := trie.Get(key); item != nil {
			trie.Set(key, append(item.([]int), idx))
			continue
		}
		trie.Insert(key, []int{idx})
	}
}

// lookup returns the ascending record indexes matching every token of text.
func lookup(trie *patricia.Trie, text string) []int {
	tokens := utils.Distinct(utils.Tokens(utils.Normalize(text)))
	if len(tokens) == 0 {
		return nil
	}

	var matched map[int]bool
	for _, tok := range tokens {
		found := make(map[int]bool)
		_ = trie.VisitSubtree(patricia.Prefix(tok), func(_ patricia.Prefix, item patricia.Item) error {
			for _, idx := range item.([]int) {
				if matched == nil || matched[idx] {
					found[idx] = true
				}
			}
			return nil
		})
		matched = found
		if len(matched) == 0 {
			return nil
		}
	}

	out := make([]int, 0, len(matched))
	for idx := range matched {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// sortByCreated orders posts by creation time; undated posts go last.
func sortByCreated(posts []model.PostRecord, desc bool) {
	created := func(r model.PostRecord) (time.Time, bool) {
		t, err := time.Parse(time.RFC3339, r.Created)
		return t, err == nil
	}
	sort.SliceStable(posts, func(i, j int) bool {
		ti, okI := created(posts[i])
		tj, okJ := created(posts[j])
		switch {
		case !okI || !okJ:
			return okI && !okJ
		case desc:
			return ti.After(tj)
		default:
			return ti.Before(tj)
		}
	})
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
