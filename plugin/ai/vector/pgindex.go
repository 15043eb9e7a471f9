package vector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelierhq/atelier/plugin/ai"
	"github.com/atelierhq/atelier/store"
)

// PersistedIndex is the pgvector-backed SemanticIndex. Ranking is
// delegated to the database; structured filters the store cannot push
// down are applied to the returned rows.
type PersistedIndex struct {
	driver   store.Driver
	embedder ai.EmbeddingService
	model    string
}

// NewPersistedIndex creates a SemanticIndex over the store driver.
// The driver must support vector search (postgres).
func NewPersistedIndex(driver store.Driver, embedder ai.EmbeddingService, model string) *PersistedIndex {
	return &PersistedIndex{
		driver:   driver,
		embedder: embedder,
		model:    model,
	}
}

// Build embeds every resource and upserts its vector. Upserts are
// idempotent, so a rebuild converges regardless of prior state.
func (idx *PersistedIndex) Build(ctx context.Context, resources []*store.Resource) error {
	start := time.Now()
	for batchStart := 0; batchStart < len(resources); batchStart += embedBatchSize {
		batchEnd := min(batchStart+embedBatchSize, len(resources))
		batch := resources[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = EmbeddingText(r)
		}
		vectors, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		for i, r := range batch {
			if err := idx.driver.UpsertResourceEmbedding(ctx, r.ID, idx.model, vectors[i]); err != nil {
				return err
			}
		}
	}
	slog.Info("persisted semantic index built",
		"resources", len(resources),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (idx *PersistedIndex) Search(ctx context.Context, query string, opts SearchOptions) ([]Match, error) {
	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.searchByVector(ctx, queryVec, opts, "")
}

func (idx *PersistedIndex) FindSimilar(ctx context.Context, resourceID string, opts SearchOptions) ([]Match, error) {
	embedding, err := idx.driver.GetResourceEmbedding(ctx, resourceID, idx.model)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotIndexed, resourceID)
	}
	return idx.searchByVector(ctx, embedding, opts, resourceID)
}

func (idx *PersistedIndex) Upsert(ctx context.Context, resource *store.Resource) error {
	embedding, err := idx.embedder.Embed(ctx, EmbeddingText(resource))
	if err != nil {
		return err
	}
	return idx.driver.UpsertResourceEmbedding(ctx, resource.ID, idx.model, embedding)
}

// Size returns the number of stored embeddings, or 0 if the driver
// cannot report it.
func (idx *PersistedIndex) Size() int {
	count, err := idx.driver.CountResourceEmbeddings(context.Background(), idx.model)
	if err != nil {
		return 0
	}
	return count
}

func (idx *PersistedIndex) searchByVector(ctx context.Context, queryVec []float32, opts SearchOptions, excludeID string) ([]Match, error) {
	// Over-fetch so post-filtering still fills the requested limit.
	fetchLimit := opts.limit() * 2
	resources, scores, err := idx.driver.SearchResourcesByVector(ctx, queryVec, fetchLimit)
	if err != nil {
		return nil, err
	}

	matches := []Match{}
	for i, r := range resources {
		if r.ID == excludeID {
			continue
		}
		if !opts.matchesFilters(r) {
			continue
		}
		if scores[i] < opts.MinSimilarity {
			continue
		}
		matches = append(matches, Match{Resource: r, Similarity: scores[i]})
		if len(matches) == opts.limit() {
			break
		}
	}
	return matches, nil
}

var _ SemanticIndex = (*PersistedIndex)(nil)
