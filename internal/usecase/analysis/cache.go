package analysis

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/pcslave/credential-phishing-detection/internal/entity"
)

// resultCache memoizes analysis results per key with a freshness window.
// Entries are never mutated in place: expiry is checked lazily on lookup
// and an expired entry is dropped so the next access recomputes and
// replaces it. Capacity is bounded with LRU eviction.
type resultCache struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[string, *cacheEntry]
	ttl    time.Duration
	now    func() time.Time
	hits   int64
	misses int64
}

type cacheEntry struct {
	result    *entity.AnalysisResult
	expiresAt time.Time
}

// CacheStats summarizes cache behavior for the health surface.
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	TTL     string  `json:"ttl"`
}

func newResultCache(size int, ttl time.Duration, now func() time.Time) *resultCache {
	if size <= 0 {
		size = 4096
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	lru, _ := simplelru.NewLRU[string, *cacheEntry](size, nil)
	return &resultCache{
		lru: lru,
		ttl: ttl,
		now: now,
	}
}

// get returns the cached result for key, treating expired entries as a
// miss.
func (c *resultCache) get(key string) (*entity.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.result, true
}

// set stores a freshly computed result.
func (c *resultCache) set(key string, result *entity.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, &cacheEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	})
}

// stats snapshots cache counters.
func (c *resultCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    c.lru.Len(),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
		TTL:     c.ttl.String(),
	}
}

// purge drops every entry.
func (c *resultCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
