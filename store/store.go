package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/atelierhq/atelier/internal/profile"
)

// ErrVectorSearchUnsupported is returned by drivers that cannot serve
// vector queries (currently the sqlite driver).
var ErrVectorSearchUnsupported = errors.New("vector search is not supported by this driver")

// Store provides database access to the resource catalog.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate applies the schema to the underlying database.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateResource(ctx context.Context, create *Resource) (*Resource, error) {
	return s.driver.CreateResource(ctx, create)
}

func (s *Store) ListResources(ctx context.Context, find *FindResource) ([]*Resource, error) {
	return s.driver.ListResources(ctx, find)
}

// GetResource returns a single resource by id, or nil if absent.
func (s *Store) GetResource(ctx context.Context, id string) (*Resource, error) {
	list, err := s.driver.ListResources(ctx, &FindResource{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateResource(ctx context.Context, update *UpdateResource) error {
	return s.driver.UpdateResource(ctx, update)
}

func (s *Store) DeleteResource(ctx context.Context, delete *DeleteResource) error {
	return s.driver.DeleteResource(ctx, delete)
}
