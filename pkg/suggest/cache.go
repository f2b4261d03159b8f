package suggest

import (
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/rank"
)

// Cache defaults.
const (
	DefaultCacheTTL  = 15 * time.Second
	DefaultCacheSize = 256
)

type cacheEntry struct {
	query     string
	items     []rank.Scored
	fetchedAt time.Time
}

// ResultCache memoizes ranked results per normalized query for a short TTL.
// Expired entries are treated as absent and evicted when read.
// It is safe for concurrent use.
type ResultCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewResultCache creates a cache holding at most maxEntries queries.
// Non-positive arguments fall back to the defaults; a nil clock means time.Now.
func NewResultCache(ttl time.Duration, maxEntries int, now func() time.Time) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		// only possible with a non-positive size, ruled out above
		log.Fatalf("Failed to create result cache: %v", err)
	}
	return &ResultCache{entries: entries, ttl: ttl, now: now}
}

// Get returns the items cached for query if they are younger than the TTL.
func (rc *ResultCache) Get(query string) ([]rank.Scored, bool) {
	key := utils.Normalize(query)
	entry, ok := rc.entries.Get(key)
	if !ok {
		rc.misses.Add(1)
		return nil, false
	}
	if rc.now().Sub(entry.fetchedAt) >= rc.ttl {
		rc.entries.Remove(key)
		rc.misses.Add(1)
		log.Debugf("Cache entry for '%s' expired", key)
		return nil, false
	}
	rc.hits.Add(1)
	return entry.items, true
}

// Put stores items for query, stamped with the current time.
func (rc *ResultCache) Put(query string, items []rank.Scored) {
	key := utils.Normalize(query)
	rc.entries.Add(key, cacheEntry{query: key, items: items, fetchedAt: rc.now()})
}

// Stats reports cache size and hit counters.
func (rc *ResultCache) Stats() map[string]int {
	return map[string]int{
		"cacheEntries": rc.entries.Len(),
		"cacheHits":    int(rc.hits.Load()),
		"cacheMisses":  int(rc.misses.Load()),
	}
}
