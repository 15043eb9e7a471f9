// Package rag blends semantic similarity with structured filtering into
// one ranked, explained result list, and provides the search-result
// types the orchestrator grounds its generation on.
package rag

import (
	"context"
	"sort"

	"github.com/atelierhq/atelier/plugin/ai/vector"
	"github.com/atelierhq/atelier/store"
)

// Weighting constants. Empirically chosen; override through Config
// rather than editing call sites.
const (
	DefaultVectorWeight     = 0.7
	DefaultStructuredWeight = 0.3

	// candidateMultiplier widens the semantic candidate pool relative to
	// the requested result count.
	candidateMultiplier = 2

	defaultMaxResults = 10
)

// Config carries the blend weights for hybrid search.
type Config struct {
	VectorWeight     float64
	StructuredWeight float64
	// MinSimilarity is the floor passed to the semantic engine.
	MinSimilarity float32
}

// DefaultConfig returns the standard 0.7/0.3 blend.
func DefaultConfig() Config {
	return Config{
		VectorWeight:     DefaultVectorWeight,
		StructuredWeight: DefaultStructuredWeight,
	}
}

// SearchFilters narrows a hybrid search. Filters are caller-supplied
// and combined with query-time signals; nothing is inferred silently.
type SearchFilters struct {
	Categories []string `json:"categories,omitempty"`
	MinRating  float64  `json:"minRating,omitempty"`
	ExcludeIDs []string `json:"excludeIds,omitempty"`
	MaxResults int      `json:"maxResults,omitempty"`
}

func (f SearchFilters) maxResults() int {
	if f.MaxResults <= 0 {
		return defaultMaxResults
	}
	return f.MaxResults
}

// SearchResult is one ranked, explained hit. Similarity is the blended
// score, not a raw cosine value.
type SearchResult struct {
	Resource    *store.Resource `json:"resource"`
	Similarity  float64         `json:"similarity"`
	MatchReason string          `json:"matchReason"`
}

// Corpus lists resources for the structured pool. *store.Store
// satisfies it.
type Corpus interface {
	ListResources(ctx context.Context, find *store.FindResource) ([]*store.Resource, error)
}

// Searcher combines the semantic index with structured corpus filtering.
type Searcher struct {
	index  vector.SemanticIndex
	corpus Corpus
	config Config
}

// NewSearcher creates a hybrid searcher with the given blend config.
func NewSearcher(index vector.SemanticIndex, corpus Corpus, config Config) *Searcher {
	if config.VectorWeight == 0 && config.StructuredWeight == 0 {
		config = DefaultConfig()
	}
	return &Searcher{index: index, corpus: corpus, config: config}
}

// candidate accumulates scores for one resource across the two pools.
type candidate struct {
	resource      *store.Resource
	rawSimilarity float64 // raw cosine score, 0 when vector pool missed
	score         float64
	inVector      bool
	inStructured  bool
	order         int // corpus/arrival order for stable ties
}

// Search runs the two pools and merges them as a union: a resource in
// both pools scores vector + structured weight; a structured-only match
// keeps the structured weight as its floor, so a correct category match
// is never fully hidden by weak semantic similarity.
func (s *Searcher) Search(ctx context.Context, query string, filters SearchFilters) ([]SearchResult, error) {
	limit := filters.maxResults()

	// Pool 1: semantic candidates, vector-weighted.
	matches, err := s.index.Search(ctx, query, vector.SearchOptions{
		Limit:         limit * candidateMultiplier,
		MinSimilarity: s.config.MinSimilarity,
		Categories:    filters.Categories,
		MinRating:     filters.MinRating,
	})
	if err != nil {
		return nil, err
	}

	candidates := map[string]*candidate{}
	nextOrder := 0
	for _, m := range matches {
		candidates[m.Resource.ID] = &candidate{
			resource:      m.Resource,
			rawSimilarity: float64(m.Similarity),
			score:         float64(m.Similarity) * s.config.VectorWeight,
			inVector:      true,
			order:         nextOrder,
		}
		nextOrder++
	}

	// Pool 2: structured filtering over the entire corpus.
	find := &store.FindResource{}
	if filters.MinRating > 0 {
		find.MinRating = &filters.MinRating
	}
	structured, err := s.listStructured(ctx, find, filters.Categories)
	if err != nil {
		return nil, err
	}
	for _, r := range structured {
		if c, ok := candidates[r.ID]; ok {
			c.score += s.config.StructuredWeight
			c.inStructured = true
			continue
		}
		candidates[r.ID] = &candidate{
			resource:     r,
			score:        s.config.StructuredWeight,
			inStructured: true,
			order:        nextOrder,
		}
		nextOrder++
	}

	// Exclusions apply post-merge.
	for _, id := range filters.ExcludeIDs {
		delete(candidates, id)
	}

	merged := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		merged = append(merged, c)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].order < merged[j].order
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	results := make([]SearchResult, len(merged))
	for i, c := range merged {
		results[i] = SearchResult{
			Resource:    c.resource,
			Similarity:  c.score,
			MatchReason: buildMatchReason(c, query, filters),
		}
	}
	return results, nil
}

// listStructured runs the corpus listing once per requested category,
// or unfiltered when no categories are given. The structured pool only
// contains resources that pass every filter.
func (s *Searcher) listStructured(ctx context.Context, find *store.FindResource, categories []string) ([]*store.Resource, error) {
	if len(categories) == 0 {
		return s.corpus.ListResources(ctx, find)
	}

	out := []*store.Resource{}
	for _, category := range categories {
		f := *find
		c := category
		f.CategoryID = &c
		list, err := s.corpus.ListResources(ctx, &f)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}
