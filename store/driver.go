package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	// Resource model related methods.
	CreateResource(ctx context.Context, create *Resource) (*Resource, error)
	ListResources(ctx context.Context, find *FindResource) ([]*Resource, error)
	UpdateResource(ctx context.Context, update *UpdateResource) error
	DeleteResource(ctx context.Context, delete *DeleteResource) error

	// UpsertResourceEmbedding stores the embedding vector for a resource.
	// Drivers without vector support return ErrVectorSearchUnsupported.
	UpsertResourceEmbedding(ctx context.Context, resourceID string, model string, embedding []float32) error

	// GetResourceEmbedding returns the stored embedding for a resource,
	// or nil if none exists.
	GetResourceEmbedding(ctx context.Context, resourceID string, model string) ([]float32, error)

	// CountResourceEmbeddings returns the number of stored embeddings
	// for the given model.
	CountResourceEmbeddings(ctx context.Context, model string) (int, error)

	// SearchResourcesByVector performs semantic search using vector
	// similarity, returning resources and their similarity scores in
	// descending order. Drivers without vector support return
	// ErrVectorSearchUnsupported.
	SearchResourcesByVector(ctx context.Context, embedding []float32, limit int) ([]*Resource, []float32, error)
}
