package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/store"
)

const (
	// embedBatchSize is the number of resource texts sent per embedding
	// request during a rebuild.
	embedBatchSize = 32
	// embedConcurrency bounds parallel embedding requests so a rebuild
	// does not overwhelm the provider.
	embedConcurrency = 3
)

// MemoryIndex is the in-memory SemanticIndex. The corpus is embedded and
// published wholesale; searches never observe a partially built index.
type MemoryIndex struct {
	embedder ai.EmbeddingService

	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order, used for stable tie-breaking
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(embedder ai.EmbeddingService) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		entries:  map[string]*Entry{},
	}
}

// Build embeds the whole corpus and atomically replaces the index
// contents. The rebuild is idempotent; concurrent searches keep seeing
// the previous index until the new one is published.
func (idx *MemoryIndex) Build(ctx context.Context, resources []*store.Resource) error {
	start := time.Now()

	embeddings := make([][]float32, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for batchStart := 0; batchStart < len(resources); batchStart += embedBatchSize {
		batchEnd := min(batchStart+embedBatchSize, len(resources))
		batch := resources[batchStart:batchEnd]
		offset := batchStart
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, r := range batch {
				texts[i] = EmbeddingText(r)
			}
			vectors, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			copy(embeddings[offset:], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Assemble off to the side, publish under the lock.
	now := time.Now()
	entries := make(map[string]*Entry, len(resources))
	order := make([]string, 0, len(resources))
	for i, r := range resources {
		entries[r.ID] = &Entry{
			ResourceID:  r.ID,
			Embedding:   embeddings[i],
			Resource:    r,
			LastUpdated: now,
		}
		order = append(order, r.ID)
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.order = order
	idx.mu.Unlock()

	slog.Info("semantic index built",
		"resources", len(resources),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Search embeds the query once and ranks every indexed entry against it.
func (idx *MemoryIndex) Search(ctx context.Context, query string, opts SearchOptions) ([]Match, error) {
	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.searchByVector(queryVec, opts, ""), nil
}

// FindSimilar ranks entries against the stored embedding of the target
// resource, excluding the target itself.
func (idx *MemoryIndex) FindSimilar(_ context.Context, resourceID string, opts SearchOptions) ([]Match, error) {
	idx.mu.RLock()
	target, ok := idx.entries[resourceID]
	idx.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotIndexed, resourceID)
	}
	return idx.searchByVector(target.Embedding, opts, resourceID), nil
}

// Upsert (re-)indexes a single resource in place.
func (idx *MemoryIndex) Upsert(ctx context.Context, resource *store.Resource) error {
	embedding, err := idx.embedder.Embed(ctx, EmbeddingText(resource))
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.entries[resource.ID]; !exists {
		idx.order = append(idx.order, resource.ID)
	}
	idx.entries[resource.ID] = &Entry{
		ResourceID:  resource.ID,
		Embedding:   embedding,
		Resource:    resource,
		LastUpdated: time.Now(),
	}
	return nil
}

// Size returns the number of indexed resources.
func (idx *MemoryIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// searchByVector applies structured filters before scoring, then sorts
// by descending similarity with corpus order breaking ties.
func (idx *MemoryIndex) searchByVector(queryVec []float32, opts SearchOptions, excludeID string) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := []Match{}
	for _, id := range idx.order {
		if id == excludeID {
			continue
		}
		entry := idx.entries[id]
		if !opts.matchesFilters(entry.Resource) {
			continue
		}
		similarity := CosineSimilarity(queryVec, entry.Embedding)
		if similarity < opts.MinSimilarity {
			continue
		}
		matches = append(matches, Match{Resource: entry.Resource, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > opts.limit() {
		matches = matches[:opts.limit()]
	}
	return matches
}

var _ SemanticIndex = (*MemoryIndex)(nil)
