// Package index keeps the semantic index in sync with the catalog by
// rebuilding it wholesale on a fixed interval. Rebuilds are serialized;
// searches keep seeing the previous index until the new one is
// published.
package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/atelierhq/atelier/plugin/ai/vector"
	"github.com/atelierhq/atelier/store"
)

const defaultInterval = 10 * time.Minute

type Runner struct {
	store    *store.Store
	index    vector.RebuildableIndex
	interval time.Duration
}

// NewRunner creates an index refresh runner.
func NewRunner(store *store.Store, index vector.RebuildableIndex) *Runner {
	return &Runner{
		store:    store,
		index:    index,
		interval: defaultInterval,
	}
}

// Run rebuilds the index on the configured interval until ctx is
// cancelled. The initial build is done by the server bootstrap, so the
// first tick here only catches catalog changes made since start.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("index runner stopped")
			return
		}
	}
}

// RunOnce rebuilds the index from the current catalog.
func (r *Runner) RunOnce(ctx context.Context) {
	resources, err := r.store.ListResources(ctx, &store.FindResource{})
	if err != nil {
		slog.Error("failed to list resources for index refresh", "error", err)
		return
	}
	if err := r.index.Build(ctx, resources); err != nil {
		slog.Error("failed to rebuild semantic index", "error", err)
		return
	}
	slog.Info("semantic index refreshed", "resources", len(resources))
}
