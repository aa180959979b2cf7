package pricing

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheKey struct {
	query      string
	maxResults int
}

// Cache maps (normalized query, max results) to a previously scraped
// QueryResult. Entries expire after the configured TTL; an optional capacity
// bound evicts least-recently-used entries so an arbitrary query space
// cannot grow memory without limit. Safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[cacheKey, QueryResult]
}

// NewCache creates a cache with the given TTL. maxEntries of 0 means no
// capacity bound.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{lru: expirable.NewLRU[cacheKey, QueryResult](maxEntries, nil, ttl)}
}

// Get returns the stored result for the key if present and not expired.
func (c *Cache) Get(query string, maxResults int) (QueryResult, bool) {
	return c.lru.Get(cacheKey{query: NormalizeQuery(query), maxResults: maxResults})
}

// Set stores result under the key, unconditionally replacing any previous
// entry and restarting its TTL.
func (c *Cache) Set(query string, maxResults int, result QueryResult) {
	c.lru.Add(cacheKey{query: NormalizeQuery(query), maxResults: maxResults}, result)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry and returns how many were removed.
func (c *Cache) Purge() int {
	n := c.lru.Len()
	c.lru.Purge()
	return n
}
