package vector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/store"
)

// fakeEmbedder returns a fixed vector per trigger substring, so tests
// control similarity exactly.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	for trigger, vec := range f.vectors {
		if strings.Contains(text, trigger) {
			return vec
		}
	}
	return f.fallback
}

func testResource(id, name, category string, avg float64) *store.Resource {
	return &store.Resource{
		ID:         id,
		Name:       name,
		CategoryID: category,
		Rating:     store.RatingSummary{Quality: avg, Usability: avg, Visual: avg, Count: 5},
	}
}

func newTestIndex(t *testing.T) (*MemoryIndex, *fakeEmbedder) {
	t.Helper()
	embedder := &fakeEmbedder{
		vectors: map[string][]float32{
			"Red Icons":   {1, 0, 0},
			"Blue Icons":  {0.9, 0.1, 0},
			"Serif Fonts": {0, 1, 0},
			"red":         {1, 0, 0},
			"font":        {0, 1, 0},
		},
		fallback: []float32{0, 0, 1},
	}
	idx := NewMemoryIndex(embedder)
	resources := []*store.Resource{
		testResource("r1", "Red Icons", "icon", 4.8),
		testResource("r2", "Blue Icons", "icon", 3.5),
		testResource("r3", "Serif Fonts", "font", 4.2),
	}
	require.NoError(t, idx.Build(context.Background(), resources))
	return idx, embedder
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{0.3, 0.5, 0.2}
	b := []float32{0.1, 0.9, 0.4}

	assert.InDelta(t, 1.0, float64(CosineSimilarity(a, a)), 1e-6)
	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
	assert.Zero(t, CosineSimilarity(a, []float32{0, 0, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0, 0}, b))
	assert.Zero(t, CosineSimilarity(a, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}

func TestMemoryIndexBuildAndSearch(t *testing.T) {
	idx, _ := newTestIndex(t)
	assert.Equal(t, 3, idx.Size())

	matches, err := idx.Search(context.Background(), "red icons", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "r1", matches[0].Resource.ID)
	assert.InDelta(t, 1.0, float64(matches[0].Similarity), 1e-6)

	// Descending similarity.
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Similarity, matches[i-1].Similarity)
	}
}

func TestMemoryIndexSearchFilters(t *testing.T) {
	idx, _ := newTestIndex(t)

	matches, err := idx.Search(context.Background(), "red icons", SearchOptions{Categories: []string{"font"}})
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, "font", m.Resource.CategoryID)
	}

	matches, err = idx.Search(context.Background(), "red icons", SearchOptions{MinRating: 4.0})
	require.NoError(t, err)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Resource.Rating.Average(), 4.0)
	}
}

func TestMemoryIndexSearchLimit(t *testing.T) {
	idx, _ := newTestIndex(t)

	matches, err := idx.Search(context.Background(), "red icons", SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMemoryIndexFindSimilar(t *testing.T) {
	idx, _ := newTestIndex(t)

	matches, err := idx.FindSimilar(context.Background(), "r1", SearchOptions{})
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, "r1", m.Resource.ID)
	}
	// The other icon pack is the nearest neighbor.
	require.NotEmpty(t, matches)
	assert.Equal(t, "r2", matches[0].Resource.ID)
}

func TestMemoryIndexFindSimilarUnindexed(t *testing.T) {
	idx, _ := newTestIndex(t)

	_, err := idx.FindSimilar(context.Background(), "missing", SearchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceNotIndexed)
}

func TestMemoryIndexUpsert(t *testing.T) {
	idx, _ := newTestIndex(t)

	require.NoError(t, idx.Upsert(context.Background(), testResource("r4", "Red Icons Pro", "icon", 4.9)))
	assert.Equal(t, 4, idx.Size())

	// Re-upserting the same id does not grow the index.
	require.NoError(t, idx.Upsert(context.Background(), testResource("r4", "Red Icons Pro", "icon", 4.9)))
	assert.Equal(t, 4, idx.Size())
}

func TestMemoryIndexRebuildIsWholesale(t *testing.T) {
	idx, _ := newTestIndex(t)

	require.NoError(t, idx.Build(context.Background(), []*store.Resource{
		testResource("r9", "Palette Tools", "color", 4.0),
	}))
	assert.Equal(t, 1, idx.Size())

	_, err := idx.FindSimilar(context.Background(), "r1", SearchOptions{})
	assert.ErrorIs(t, err, ErrResourceNotIndexed)
}

func TestMemoryIndexStableTies(t *testing.T) {
	embedder := &fakeEmbedder{fallback: []float32{0, 0, 1}}
	idx := NewMemoryIndex(embedder)
	resources := []*store.Resource{
		testResource("a", "First", "icon", 4.0),
		testResource("b", "Second", "icon", 4.0),
		testResource("c", "Third", "icon", 4.0),
	}
	require.NoError(t, idx.Build(context.Background(), resources))

	// Every entry scores identically; corpus order must be preserved.
	matches, err := idx.Search(context.Background(), "anything", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "a", matches[0].Resource.ID)
	assert.Equal(t, "b", matches[1].Resource.ID)
	assert.Equal(t, "c", matches[2].Resource.ID)
}

func TestEmbeddingText(t *testing.T) {
	r := &store.Resource{
		Name:        "Red Icons",
		Description: "# Heading\n\nA **bold** icon pack.",
		Tags:        []string{"red", "flat"},
		CuratorNote: "Great quality.",
	}
	text := EmbeddingText(r)
	assert.Contains(t, text, "Red Icons")
	assert.Contains(t, text, "A bold icon pack.")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "#")
	assert.Contains(t, text, "red")
	assert.Contains(t, text, "Great quality.")
}
