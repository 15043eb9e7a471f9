// Package db provides the store driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/atelierhq/atelier/internal/profile"
	"github.com/atelierhq/atelier/store"
	"github.com/atelierhq/atelier/store/db/postgres"
	"github.com/atelierhq/atelier/store/db/sqlite"
)

// NewDriver creates a new store driver based on the profile.
func NewDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", profile.Driver)
	}
}
