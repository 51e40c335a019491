package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// DetailCache stores parsed agency detail pages by URL. Implementations must
// be safe for concurrent use and must bound their own growth.
type DetailCache interface {
	Get(ctx context.Context, url string) (*AgencyDetail, bool)
	Set(ctx context.Context, url string, detail *AgencyDetail)
}

type lruEntry struct {
	detail  *AgencyDetail
	expires time.Time
}

// LRUDetailCache is an in-process cache bounded by entry count and age.
type LRUDetailCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewLRUDetailCache keeps at most size entries, each for at most ttl.
// A zero ttl disables expiry.
func NewLRUDetailCache(size int, ttl time.Duration) *LRUDetailCache {
	if size <= 0 {
		size = 256
	}
	return &LRUDetailCache{
		cache: lru.New(size),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *LRUDetailCache) Get(_ context.Context, url string) (*AgencyDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(url)
	if !ok {
		return nil, false
	}
	entry := v.(lruEntry)
	if c.ttl > 0 && c.now().After(entry.expires) {
		c.cache.Remove(url)
		return nil, false
	}
	return entry.detail, true
}

func (c *LRUDetailCache) Set(_ context.Context, url string, detail *AgencyDetail) {
	if detail == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(url, lruEntry{detail: detail, expires: c.now().Add(c.ttl)})
}

// Len reports the number of cached entries, expired ones included.
func (c *LRUDetailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
