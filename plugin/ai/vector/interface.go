// Package vector provides the semantic index: resources ranked by cosine
// similarity of their embeddings to a query. Two implementations exist,
// an in-memory index rebuilt wholesale from the corpus and a persisted
// index that delegates ranking to pgvector.
package vector

import (
	"context"
	"errors"
	"time"

	"github.com/atelierhq/atelier/store"
)

// ErrResourceNotIndexed is returned by FindSimilar when the target id is
// absent from the index. It is fatal to the call and never retried.
var ErrResourceNotIndexed = errors.New("resource is not indexed")

// SearchOptions narrows and bounds a similarity search.
type SearchOptions struct {
	// Limit caps the number of matches returned (default 10).
	Limit int
	// MinSimilarity drops matches scoring below the threshold.
	MinSimilarity float32
	// Categories restricts matches to the given category ids.
	Categories []string
	// MinRating drops resources below the average-rating floor.
	MinRating float64
}

// Match is one ranked search hit. Similarity is the raw cosine score in
// [0,1] for this embedding space; the hybrid layer blends it further.
type Match struct {
	Resource   *store.Resource
	Similarity float32
}

// Entry is one indexed resource.
type Entry struct {
	ResourceID  string
	Embedding   []float32
	Resource    *store.Resource
	LastUpdated time.Time
}

// SemanticIndex ranks resources by embedding similarity.
type SemanticIndex interface {
	// Search embeds the query and returns matches ranked by descending
	// similarity, ties broken by corpus order.
	Search(ctx context.Context, query string, opts SearchOptions) ([]Match, error)

	// FindSimilar ranks by similarity to an already-indexed resource,
	// excluding the resource itself. Returns an error wrapping
	// ErrResourceNotIndexed when the id is absent.
	FindSimilar(ctx context.Context, resourceID string, opts SearchOptions) ([]Match, error)

	// Upsert (re-)indexes a single resource.
	Upsert(ctx context.Context, resource *store.Resource) error

	// Size returns the number of indexed resources.
	Size() int
}

// RebuildableIndex is a SemanticIndex that supports wholesale rebuilds
// from the corpus. Both implementations satisfy it.
type RebuildableIndex interface {
	SemanticIndex

	// Build (re-)indexes the whole corpus idempotently. No partially
	// built state is observable from concurrent searches.
	Build(ctx context.Context, resources []*store.Resource) error
}

const defaultSearchLimit = 10

func (o *SearchOptions) limit() int {
	if o.Limit <= 0 {
		return defaultSearchLimit
	}
	return o.Limit
}

// matchesFilters applies the structured pre-filters that are checked
// before any scoring cost is spent on an entry.
func (o *SearchOptions) matchesFilters(r *store.Resource) bool {
	if len(o.Categories) > 0 {
		found := false
		for _, c := range o.Categories {
			if r.CategoryID == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.MinRating > 0 && r.Rating.Average() < o.MinRating {
		return false
	}
	return true
}
