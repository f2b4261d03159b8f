package suggest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/model"
	"github.com/bastiangx/typeahead/pkg/rank"
)

// Coordinator defaults.
const (
	DefaultDebounce    = 180 * time.Millisecond
	DefaultFetchLimit  = 12
	DefaultMaxResults  = 10
	DefaultMinQueryLen = 1
)

var (
	ErrContentProviderRequired = errors.New("content provider is required")
	ErrAuthorProviderRequired  = errors.New("author provider is required")
)

// Result is one emission of the coordinator.
// Items are shared with the cache and must not be modified.
type Result struct {
	// Query is the normalized query the result belongs to.
	Query      string
	Generation uint64
	Items      []rank.Scored
	// Provisional results come from the cache while fresh data is fetched.
	Provisional bool
}

// Listener receives results produced from Submit. It is called with the
// coordinator's lock held, so it must not call back into the coordinator.
type Listener func(Result)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce sets the keystroke debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLimits sets the per-provider fetch limit and the result cap.
func WithLimits(fetchLimit, maxResults int) Option {
	return func(c *Coordinator) {
		if fetchLimit > 0 {
			c.fetchLimit = fetchLimit
		}
		if maxResults > 0 {
			c.maxResults = maxResults
		}
	}
}

// WithMinQueryLen makes normalized queries shorter than n runes behave like
// an empty query.
func WithMinQueryLen(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.minQueryLen = n
		}
	}
}

// WithPartialResults keeps the candidates of the provider that succeeded when
// the other one fails, instead of dropping the whole result.
func WithPartialResults(enabled bool) Option {
	return func(c *Coordinator) {
		c.partial = enabled
	}
}

// WithCache replaces the default result cache.
func WithCache(cache *ResultCache) Option {
	return func(c *Coordinator) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithClock sets the time source used for recency scoring.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithListener sets the receiver of Submit results.
func WithListener(fn Listener) Option {
	return func(c *Coordinator) {
		c.listener = fn
	}
}

// Coordinator debounces keystrokes, queries both providers concurrently,
// ranks the merged candidates and emits them. Only the latest query is ever
// honored: every dispatch advances a generation counter and responses
// captured under an older generation are dropped.
type Coordinator struct {
	content  ContentProvider
	authors  AuthorProvider
	scorer   *rank.Scorer
	cache    *ResultCache
	logger   *log.Logger
	listener Listener

	debounce    time.Duration
	fetchLimit  int
	maxResults  int
	minQueryLen int
	partial     bool
	now         func() time.Time

	debounced func(f func())

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	dispatched atomic.Int64
	dropped    atomic.Int64
	failures   atomic.Int64
	rejected   atomic.Int64
}

var _ ISearcher = (*Coordinator)(nil)

// NewCoordinator creates a coordinator over the two providers.
func NewCoordinator(content ContentProvider, authors AuthorProvider, opts ...Option) (*Coordinator, error) {
	if content == nil {
		return nil, ErrContentProviderRequired
	}
	if authors == nil {
		return nil, ErrAuthorProviderRequired
	}

	c := &Coordinator{
		content:     content,
		authors:     authors,
		debounce:    DefaultDebounce,
		fetchLimit:  DefaultFetchLimit,
		maxResults:  DefaultMaxResults,
		minQueryLen: DefaultMinQueryLen,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.New("suggest")
	}
	if c.cache == nil {
		c.cache = NewResultCache(DefaultCacheTTL, DefaultCacheSize, c.now)
	}
	c.scorer = rank.NewScorer(c.now)
	c.debounced = debounce.New(c.debounce)
	return c, nil
}

// Submit feeds the current input text. Rapid calls collapse into one query
// fired after the debounce interval; an empty query clears the suggestions at
// once.
func (c *Coordinator) Submit(raw string) {
	q := utils.Normalize(raw)
	if !c.searchable(q) {
		// replaces any pending firing with a no-op
		c.debounced(func() {})
		c.clear(q, c.notify)
		return
	}
	c.debounced(func() {
		c.run(context.Background(), raw, q, c.notify)
	})
}

// Search runs raw immediately, bypassing the debounce, and returns the final
// result. ok is false when a newer query superseded this one before its
// providers answered. Search never reads the cache, so a repeated query always
// refetches; only Submit serves provisional results from it.
func (c *Coordinator) Search(ctx context.Context, raw string) (Result, bool) {
	q := utils.Normalize(raw)
	if !c.searchable(q) {
		return c.clear(q, nil), true
	}
	return c.run(ctx, raw, q, nil)
}

// SetListener replaces the receiver of Submit results.
func (c *Coordinator) SetListener(fn Listener) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Close drops any pending keystroke and abandons in-flight fetches.
func (c *Coordinator) Close() {
	c.debounced(func() {})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Stats returns counters about the coordinator and its cache.
func (c *Coordinator) Stats() map[string]int {
	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	stats := map[string]int{
		"generation":   int(generation),
		"dispatched":   int(c.dispatched.Load()),
		"staleDropped": int(c.dropped.Load()),
		"fetchFailed":  int(c.failures.Load()),
		"shortQueries": int(c.rejected.Load()),
	}
	for k, v := range c.cache.Stats() {
		stats[k] = v
	}
	return stats
}

// notify forwards to the current listener; callers hold c.mu.
func (c *Coordinator) notify(res Result) {
	if c.listener != nil {
		c.listener(res)
	}
}

func (c *Coordinator) searchable(q string) bool {
	if q == "" {
		return false
	}
	if utf8.RuneCountInString(q) < c.minQueryLen {
		c.rejected.Add(1)
		return false
	}
	return true
}

// clear supersedes everything in flight and emits an empty result.
func (c *Coordinator) clear(q string, emit Listener) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen, _ := c.advanceLocked(nil)
	res := Result{Query: q, Generation: gen}
	if emit != nil {
		emit(res)
	}
	return res
}

// advanceLocked starts a new generation and abandons the previous one.
// With a nil parent no fetch context is created.
func (c *Coordinator) advanceLocked(parent context.Context) (uint64, context.Context) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	if parent == nil {
		return c.generation, nil
	}
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return c.generation, ctx
}

func (c *Coordinator) run(parent context.Context, raw, q string, emit Listener) (Result, bool) {
	c.mu.Lock()
	gen, ctx := c.advanceLocked(parent)
	if emit != nil {
		if items, ok := c.cache.Get(q); ok {
			emit(Result{Query: q, Generation: gen, Items: items, Provisional: true})
		}
	}
	c.mu.Unlock()

	c.dispatched.Add(1)
	start := time.Now()
	fetched, err := c.fetch(ctx, raw)

	var ranked []rank.Scored
	if err == nil {
		candidates, dropped := model.Merge(fetched.authors, fetched.posts)
		if dropped > 0 {
			c.logger.Debugf("Dropped %d malformed records for '%s'", dropped, q)
		}
		ranked = c.scorer.Rank(q, candidates, c.maxResults)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.dropped.Add(1)
		return Result{}, false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	res := Result{Query: q, Generation: gen}
	switch {
	case err != nil:
		c.failures.Add(1)
		c.logger.Debug("Provider fetch failed, no suggestions", "query", q, "err", err)
	case fetched.degraded():
		c.failures.Add(1)
		c.logger.Debug("Keeping partial suggestions", "query", q, "posts", fetched.postErr, "authors", fetched.authorErr)
		res.Items = ranked
	default:
		res.Items = ranked
		c.cache.Put(q, ranked)
	}
	if len(res.Items) > 0 {
		c.logger.Debugf("Took [ %v ] for '%s' (%d suggestions, top %s)", time.Since(start), q, len(res.Items), model.Describe(res.Items[0].Candidate))
	} else {
		c.logger.Debugf("Took [ %v ] for '%s' (no suggestions)", time.Since(start), q)
	}

	if emit != nil {
		emit(res)
	}
	return res, true
}

type fetchResult struct {
	posts     []model.PostRecord
	authors   []model.AuthorRecord
	postErr   error
	authorErr error
}

func (f fetchResult) degraded() bool {
	return f.postErr != nil || f.authorErr != nil
}

// fetch queries both providers concurrently. Without partial results the first
// failure cancels the sibling request and fails the whole fetch; with partial
// results only a double failure does.
func (c *Coordinator) fetch(ctx context.Context, raw string) (fetchResult, error) {
	var out fetchResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		posts, err := c.content.SearchPosts(gctx, PostQuery{
			Text:             raw,
			Limit:            c.fetchLimit,
			SortBy:           SortByCreated,
			SortOrder:        SortDescending,
			IncludeAuthor:    true,
			IncludeReactions: true,
		})
		if err != nil {
			out.postErr = fmt.Errorf("content provider: %w", err)
			if !c.partial {
				return out.postErr
			}
			return nil
		}
		out.posts = posts
		return nil
	})

	g.Go(func() error {
		authors, err := c.authors.SearchAuthors(gctx, AuthorQuery{
			Text:  raw,
			Limit: c.fetchLimit,
		})
		if err != nil {
			out.authorErr = fmt.Errorf("author provider: %w", err)
			if !c.partial {
				return out.authorErr
			}
			return nil
		}
		out.authors = authors
		return nil
	})

	if err := g.Wait(); err != nil {
		return out, err
	}
	if out.postErr != nil && out.authorErr != nil {
		return out, errors.Join(out.postErr, out.authorErr)
	}
	return out, nil
}
