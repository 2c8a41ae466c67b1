package normalizer

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when NewCache gets a non-positive size
const DefaultCacheSize = 65536

// Cache memoizes keys of a wrapped Normalizer. Filter lists repeat the
// same lines across sources, so most lookups after the first list hit.
type Cache struct {
	next  Normalizer
	cache *lru.Cache[string, Result]
}

// NewCache wraps next with an LRU cache holding up to size keys
func NewCache(next Normalizer, size int) (*Cache, error) {
	if next == nil {
		next = Default
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, cache: c}, nil
}

// Normalize returns the cached key or computes and stores it. Degraded
// results are not cached.
func (c *Cache) Normalize(rule string) Result {
	if res, ok := c.cache.Get(rule); ok {
		return res
	}
	res := c.next.Normalize(rule)
	if res.Outcome != Degraded {
		c.cache.Add(rule, res)
	}
	return res
}

// Len returns the number of cached keys
func (c *Cache) Len() int {
	return c.cache.Len()
}
