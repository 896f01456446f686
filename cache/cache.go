// Package cache provides a small LRU wrapper used to memoize reduction
// output. The reduce stage is pure, so caching by input fingerprint is
// always safe; it only saves recomputation when the same item pool is
// re-optimized with different search settings.
package cache

import lru "github.com/hashicorp/golang-lru/v2"

// Cache is a fixed-size, thread-safe LRU cache.
type Cache[K comparable, V any] struct {
	lru *lru.Cache[K, V]
}

// New creates a Cache holding at most size entries.
func New[K comparable, V any](size int) (*Cache[K, V], error) {
	inner, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{lru: inner}, nil
}

// Get returns the cached value. ok=false if missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Set caches a value, evicting the least recently used entry if full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Purge removes all entries.
func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}
