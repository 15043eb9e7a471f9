package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/atelierhq/atelier/plugin/ai/analyzer"
	"github.com/atelierhq/atelier/plugin/ai/rag"
)

// SearchCache memoizes hybrid search results per normalized query and
// filter combination.
type SearchCache struct {
	lru *LRU
}

// Config configures the search cache.
type Config struct {
	Capacity int           // maximum number of entries (default: 1000)
	TTL      time.Duration // entry lifetime (default: 5 minutes)
}

// DefaultConfig returns the default search cache configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: defaultCapacity,
		TTL:      defaultTTL,
	}
}

// Stats is the exposed cache accounting.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
	Size    int     `json:"size"`
}

// NewSearchCache creates a search cache.
func NewSearchCache(cfg Config) *SearchCache {
	return &SearchCache{
		lru: NewLRU(cfg.Capacity, cfg.TTL),
	}
}

// Key derives the cache key from the normalized query text and a
// canonical serialization of the filters. Category and exclusion sets
// are sorted so semantically equal filters share a key.
func Key(query string, filters rag.SearchFilters) string {
	categories := append([]string(nil), filters.Categories...)
	sort.Strings(categories)
	excludes := append([]string(nil), filters.ExcludeIDs...)
	sort.Strings(excludes)

	canonical, _ := json.Marshal(rag.SearchFilters{
		Categories: categories,
		MinRating:  filters.MinRating,
		ExcludeIDs: excludes,
		MaxResults: filters.MaxResults,
	})
	return fmt.Sprintf("search:%s|%s", analyzer.Normalize(query), canonical)
}

// Get returns the cached results for the key, if present and fresh.
func (c *SearchCache) Get(key string) ([]rag.SearchResult, bool) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	results, ok := value.([]rag.SearchResult)
	return results, ok
}

// Set stores results under the key with the cache's TTL.
func (c *SearchCache) Set(key string, results []rag.SearchResult) {
	c.lru.Set(key, results, 0)
}

// Clear drops all cached results.
func (c *SearchCache) Clear() {
	c.lru.Clear()
}

// Stats returns hit/miss counters and the derived hit rate.
func (c *SearchCache) Stats() Stats {
	hits, misses := c.lru.Counters()
	total := hits + misses
	rate := 0.0
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
		Size:    c.lru.Size(),
	}
}
