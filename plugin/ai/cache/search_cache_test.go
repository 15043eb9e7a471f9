package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/plugin/ai/rag"
	"github.com/atelierhq/atelier/store"
)

func TestKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t,
		Key("Red  Icons", rag.SearchFilters{}),
		Key("red icons", rag.SearchFilters{}))
}

func TestKeyCanonicalizesFilterSets(t *testing.T) {
	a := Key("图标", rag.SearchFilters{Categories: []string{"icon", "font"}, ExcludeIDs: []string{"x", "y"}})
	b := Key("图标", rag.SearchFilters{Categories: []string{"font", "icon"}, ExcludeIDs: []string{"y", "x"}})
	assert.Equal(t, a, b)
}

func TestKeyDistinguishesFilters(t *testing.T) {
	base := Key("图标", rag.SearchFilters{})
	assert.NotEqual(t, base, Key("图标", rag.SearchFilters{MinRating: 4.0}))
	assert.NotEqual(t, base, Key("图标", rag.SearchFilters{Categories: []string{"icon"}}))
	assert.NotEqual(t, base, Key("字体", rag.SearchFilters{}))
}

func TestSearchCacheRoundTrip(t *testing.T) {
	c := NewSearchCache(DefaultConfig())
	key := Key("图标", rag.SearchFilters{})

	_, ok := c.Get(key)
	require.False(t, ok)

	results := []rag.SearchResult{
		{Resource: &store.Resource{ID: "r1"}, Similarity: 0.9, MatchReason: "语义相关"},
	}
	c.Set(key, results)

	cached, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, results, cached)
}

func TestSearchCacheTTL(t *testing.T) {
	c := NewSearchCache(Config{Capacity: 10, TTL: 10 * time.Millisecond})
	key := Key("图标", rag.SearchFilters{})

	c.Set(key, []rag.SearchResult{})
	_, ok := c.Get(key)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestSearchCacheStats(t *testing.T) {
	c := NewSearchCache(DefaultConfig())
	key := Key("图标", rag.SearchFilters{})

	c.Get(key) // miss
	c.Set(key, []rag.SearchResult{})
	c.Get(key) // hit
	c.Get(key) // hit

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
	assert.Equal(t, 1, stats.Size)
}
