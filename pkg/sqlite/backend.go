// Package sqlite provides the public API for the SQLite film store.
// This package exposes the factory function for creating stores while
// keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/filmdex/internal/sqlite"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// Store is a types.FilmStore with an attach/detach lifecycle.
type Store interface {
	types.FilmStore
	Attach(config types.Config) error
	Detach() error
}

// NewStore creates a new SQLite store. A nil logger discards output.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewStore(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".filmdex",
//	})
//	defer store.Detach()
func NewStore(logger *zap.Logger) Store {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
