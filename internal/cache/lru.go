// Package cache provides an in-memory LRU cache for merged retrieval results.
package cache

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// ResultCache is an LRU cache with per-entry TTL for ranked result lists.
// Entries are copied on the way in and out so callers can mutate freely.
type ResultCache struct {
	capacity int
	ttl      time.Duration
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
	now      func() time.Time
}

type cacheEntry struct {
	key     string
	results []models.Result
	expires time.Time
}

// New creates a cache with the given capacity and TTL.
func New(capacity int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Key builds the cache key for a retrieval request.
func Key(text, site string, maxResults int) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(text)), site, maxResults)
}

// Get returns a copy of the cached results for key if present and fresh.
func (c *ResultCache) Get(key string) ([]models.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expires) {
		c.lru.Remove(elem)
		delete(c.cache, key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	out := make([]models.Result, len(entry.results))
	copy(out, entry.results)
	return out, true
}

// Set stores results for key, evicting the oldest entry if at capacity.
func (c *ResultCache) Set(key string, results []models.Result) {
	stored := make([]models.Result, len(results))
	copy(stored, results)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.results = stored
		entry.expires = c.now().Add(c.ttl)
		return
	}

	entry := &cacheEntry{key: key, results: stored, expires: c.now().Add(c.ttl)}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
