package suggest

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/rank"
)

type fakeContent struct {
	calls atomic.Int32
	fn    func(ctx context.Context, q PostQuery) ([]model.PostRecord, error)
}

func (f *fakeContent) SearchPosts(ctx context.Context, q PostQuery) ([]model.PostRecord, error) {
	f.calls.Add(1)
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(ctx, q)
}

type fakeAuthors struct {
	calls atomic.Int32
	fn    func(ctx context.Context, q AuthorQuery) ([]model.AuthorRecord, error)
}

func (f *fakeAuthors) SearchAuthors(ctx context.Context, q AuthorQuery) ([]model.AuthorRecord, error) {
	f.calls.Add(1)
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(ctx, q)
}

func staticAuthors(names ...string) *fakeAuthors {
	return &fakeAuthors{fn: func(context.Context, AuthorQuery) ([]model.AuthorRecord, error) {
		out := make([]model.AuthorRecord, len(names))
		for i, n := range names {
			out[i] = model.AuthorRecord{Name: n}
		}
		return out, nil
	}}
}

// recorder collects listener emissions.
type recorder struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Result, 64)}
}

func (r *recorder) listen(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.ch <- res
}

func (r *recorder) next(t *testing.T) Result {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result")
		return Result{}
	}
}

func newTestCoordinator(t *testing.T, content ContentProvider, authors AuthorProvider, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithDebounce(20 * time.Millisecond),
		WithLogger(log.New(io.Discard)),
	}
	c, err := NewCoordinator(content, authors, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func itemLabels(items []rank.Scored) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Candidate.Label()
	}
	return out
}

func TestNewCoordinatorRequiresProviders(t *testing.T) {
	_, err := NewCoordinator(nil, &fakeAuthors{})
	assert.ErrorIs(t, err, ErrContentProviderRequired)
	_, err = NewCoordinator(&fakeContent{}, nil)
	assert.ErrorIs(t, err, ErrAuthorProviderRequired)
}

func TestSearchPassesProviderQueries(t *testing.T) {
	var gotPost PostQuery
	var gotAuthor AuthorQuery
	content := &fakeContent{fn: func(_ context.Context, q PostQuery) ([]model.PostRecord, error) {
		gotPost = q
		return nil, nil
	}}
	authors := &fakeAuthors{fn: func(_ context.Context, q AuthorQuery) ([]model.AuthorRecord, error) {
		gotAuthor = q
		return nil, nil
	}}
	c := newTestCoordinator(t, content, authors)

	_, ok := c.Search(context.Background(), "Ánna ")
	require.True(t, ok)

	assert.Equal(t, PostQuery{
		Text:             "Ánna ",
		Limit:            DefaultFetchLimit,
		SortBy:           SortByCreated,
		SortOrder:        SortDescending,
		IncludeAuthor:    true,
		IncludeReactions: true,
	}, gotPost)
	assert.Equal(t, AuthorQuery{Text: "Ánna ", Limit: DefaultFetchLimit}, gotAuthor)
}

func TestScenarios(t *testing.T) {
	t.Run("exact author before prefix author", func(t *testing.T) {
		c := newTestCoordinator(t, &fakeContent{}, staticAuthors("annabelle", "anna"))
		res, ok := c.Search(context.Background(), "anna")
		require.True(t, ok)
		assert.Equal(t, []string{"anna", "annabelle"}, itemLabels(res.Items))
		assert.Equal(t, 108.0, res.Items[0].Score)
		assert.Equal(t, 93.0, res.Items[1].Score)
	})

	t.Run("one edit matches, unrelated query does not", func(t *testing.T) {
		c := newTestCoordinator(t, &fakeContent{}, staticAuthors("anna"))

		res, ok := c.Search(context.Background(), "ana")
		require.True(t, ok)
		require.Len(t, res.Items, 1)
		assert.Equal(t, 55.0, res.Items[0].Score)

		res, ok = c.Search(context.Background(), "xyz")
		require.True(t, ok)
		assert.Empty(t, res.Items)
	})

	t.Run("popularity breaks equal title tiers", func(t *testing.T) {
		content := &fakeContent{fn: func(context.Context, PostQuery) ([]model.PostRecord, error) {
			quiet, loud := "travel notes", "travel notes"
			return []model.PostRecord{
				{ID: "1", Title: &quiet},
				{ID: "2", Title: &loud, Reactions: []model.ReactionRecord{{Symbol: "👍", Count: 100}}},
			}, nil
		}}
		c := newTestCoordinator(t, content, &fakeAuthors{})

		res, ok := c.Search(context.Background(), "travel")
		require.True(t, ok)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "2", res.Items[0].Candidate.Key())
		assert.Greater(t, res.Items[0].Score, res.Items[1].Score)
	})

	t.Run("empty query never reaches providers", func(t *testing.T) {
		content, authors := &fakeContent{}, staticAuthors("anna")
		c := newTestCoordinator(t, content, authors)

		res, ok := c.Search(context.Background(), "   ")
		require.True(t, ok)
		assert.Empty(t, res.Items)
		assert.Zero(t, content.calls.Load())
		assert.Zero(t, authors.calls.Load())
	})
}

func TestResultsAreCappedAndMalformedDropped(t *testing.T) {
	content := &fakeContent{fn: func(context.Context, PostQuery) ([]model.PostRecord, error) {
		title := "anna"
		posts := []model.PostRecord{{Title: &title}} // no id
		for i := range 12 {
			posts = append(posts, model.PostRecord{ID: model.FlexString(strconv.Itoa(i)), Title: &title})
		}
		return posts, nil
	}}
	c := newTestCoordinator(t, content, staticAuthors("", "anna"))

	res, ok := c.Search(context.Background(), "anna")
	require.True(t, ok)
	assert.Len(t, res.Items, DefaultMaxResults)
	assert.Equal(t, model.KindAuthor, res.Items[0].Candidate.Kind(), "name bonus puts the author above equal titles")
}

func TestMinQueryLength(t *testing.T) {
	content, authors := &fakeContent{}, staticAuthors("anna")
	c := newTestCoordinator(t, content, authors, WithMinQueryLen(2))

	res, ok := c.Search(context.Background(), "a")
	require.True(t, ok)
	assert.Empty(t, res.Items)
	assert.Zero(t, authors.calls.Load())

	res, ok = c.Search(context.Background(), "an")
	require.True(t, ok)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 1, c.Stats()["shortQueries"])
}

func TestStaleResponseIsDropped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	authors := &fakeAuthors{fn: func(_ context.Context, q AuthorQuery) ([]model.AuthorRecord, error) {
		if q.Text == "an" {
			close(started)
			<-release
			return []model.AuthorRecord{{Name: "ancient"}}, nil
		}
		return []model.AuthorRecord{{Name: "anna"}}, nil
	}}
	c := newTestCoordinator(t, &fakeContent{}, authors)

	type outcome struct {
		res Result
		ok  bool
	}
	first := make(chan outcome, 1)
	go func() {
		res, ok := c.Search(context.Background(), "an")
		first <- outcome{res, ok}
	}()
	<-started

	res, ok := c.Search(context.Background(), "anna")
	require.True(t, ok)
	assert.Equal(t, []string{"anna"}, itemLabels(res.Items))

	close(release)
	late := <-first
	assert.False(t, late.ok)

	_, cached := c.cache.Get("an")
	assert.False(t, cached, "stale responses are never cached")
	assert.Equal(t, 1, c.Stats()["staleDropped"])
}

func TestSubmitStaleResponseNeverReachesListener(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	authors := &fakeAuthors{fn: func(_ context.Context, q AuthorQuery) ([]model.AuthorRecord, error) {
		if q.Text == "an" {
			close(started)
			<-release
			return []model.AuthorRecord{{Name: "ancient"}}, nil
		}
		return []model.AuthorRecord{{Name: "anna"}}, nil
	}}
	rec := newRecorder()
	c := newTestCoordinator(t, &fakeContent{}, authors, WithListener(rec.listen))

	c.Submit("an")
	<-started
	c.Submit("anna")

	res := rec.next(t)
	assert.Equal(t, "anna", res.Query)
	assert.Equal(t, []string{"anna"}, itemLabels(res.Items))

	close(release)
	require.Eventually(t, func() bool {
		return c.Stats()["staleDropped"] == 1
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case late := <-rec.ch:
		t.Fatalf("superseded query %q reached the listener", late.Query)
	case <-time.After(50 * time.Millisecond):
	}
	_, cached := c.cache.Get("an")
	assert.False(t, cached)
}

func TestSupersededFetchIsCanceled(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan error, 1)
	content := &fakeContent{fn: func(ctx context.Context, q PostQuery) ([]model.PostRecord, error) {
		if q.Text == "slow" {
			close(started)
			<-ctx.Done()
			canceled <- ctx.Err()
			return nil, ctx.Err()
		}
		return nil, nil
	}}
	c := newTestCoordinator(t, content, &fakeAuthors{})

	done := make(chan bool, 1)
	go func() {
		_, ok := c.Search(context.Background(), "slow")
		done <- ok
	}()
	<-started

	_, ok := c.Search(context.Background(), "fast")
	require.True(t, ok)
	assert.ErrorIs(t, <-canceled, context.Canceled)
	assert.False(t, <-done)
}

func TestProviderFailureYieldsEmptyResult(t *testing.T) {
	boom := errors.New("boom")
	content := &fakeContent{fn: func(context.Context, PostQuery) ([]model.PostRecord, error) {
		return nil, boom
	}}

	t.Run("default discards everything", func(t *testing.T) {
		c := newTestCoordinator(t, content, staticAuthors("anna"))
		res, ok := c.Search(context.Background(), "anna")
		require.True(t, ok)
		assert.Empty(t, res.Items)
		assert.Equal(t, 1, c.Stats()["fetchFailed"])

		_, cached := c.cache.Get("anna")
		assert.False(t, cached)
	})

	t.Run("partial results keep the other provider", func(t *testing.T) {
		c := newTestCoordinator(t, content, staticAuthors("anna"), WithPartialResults(true))
		res, ok := c.Search(context.Background(), "anna")
		require.True(t, ok)
		assert.Equal(t, []string{"anna"}, itemLabels(res.Items))

		_, cached := c.cache.Get("anna")
		assert.False(t, cached, "degraded results are not cached")
	})

	t.Run("partial results with both failing", func(t *testing.T) {
		authors := &fakeAuthors{fn: func(context.Context, AuthorQuery) ([]model.AuthorRecord, error) {
			return nil, boom
		}}
		c := newTestCoordinator(t, content, authors, WithPartialResults(true))
		res, ok := c.Search(context.Background(), "anna")
		require.True(t, ok)
		assert.Empty(t, res.Items)
	})
}

func TestSubmitDebounceCollapses(t *testing.T) {
	var queries []string
	var mu sync.Mutex
	content := &fakeContent{fn: func(_ context.Context, q PostQuery) ([]model.PostRecord, error) {
		mu.Lock()
		queries = append(queries, q.Text)
		mu.Unlock()
		return nil, nil
	}}
	rec := newRecorder()
	c := newTestCoordinator(t, content, staticAuthors("anna"), WithListener(rec.listen))

	for _, q := range []string{"a", "an", "ann", "anna"} {
		c.Submit(q)
	}

	res := rec.next(t)
	assert.Equal(t, "anna", res.Query)
	assert.False(t, res.Provisional)
	assert.Equal(t, []string{"anna"}, itemLabels(res.Items))

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"anna"}, queries)
}

func TestSubmitEmptyClearsAtOnce(t *testing.T) {
	content, authors := &fakeContent{}, staticAuthors("anna")
	rec := newRecorder()
	c := newTestCoordinator(t, content, authors, WithListener(rec.listen))

	c.Submit("anna")
	c.Submit("  ")

	res := rec.next(t)
	assert.Empty(t, res.Items)
	assert.Equal(t, "", res.Query)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, authors.calls.Load(), "pending keystroke was dropped")
	assert.Empty(t, rec.ch)
}

func TestSubmitCacheHitEmitsProvisional(t *testing.T) {
	content, authors := &fakeContent{}, staticAuthors("anna")
	rec := newRecorder()
	c := newTestCoordinator(t, content, authors, WithListener(rec.listen))

	c.Submit("anna")
	first := rec.next(t)
	require.False(t, first.Provisional)

	c.Submit("Anna")
	provisional := rec.next(t)
	final := rec.next(t)

	assert.True(t, provisional.Provisional)
	assert.Equal(t, first.Items, provisional.Items)
	assert.False(t, final.Provisional)
	assert.Equal(t, provisional.Generation, final.Generation)
	assert.Greater(t, final.Generation, first.Generation)
	assert.Equal(t, int32(2), authors.calls.Load(), "a cache hit still refreshes")
}

func TestSetListener(t *testing.T) {
	c := newTestCoordinator(t, &fakeContent{}, staticAuthors("anna"))
	rec := newRecorder()
	c.SetListener(rec.listen)

	c.Submit("")
	assert.Empty(t, rec.next(t).Items)

	c.Submit("anna")
	assert.Len(t, rec.next(t).Items, 1)
}
