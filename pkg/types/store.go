package types

import (
	"context"
	"errors"
)

// FilmStore is the aggregate store consumed by controllers and the CLI.
type FilmStore interface {
	// Find lists films ordered by published year then title. When both
	// targetColumn and searchText are non-blank the search rule table
	// filters the result; otherwise every film is returned.
	Find(ctx context.Context, targetColumn, searchText string) ([]Film, error)

	// FindByID returns the film with its children sorted by order.
	// Returns ErrNotFound if no film has that id.
	FindByID(ctx context.Context, id int64) (*Film, error)

	// Save creates (ID == 0) or updates a film and replaces every non-nil
	// child collection in one transaction, then returns the stored aggregate.
	Save(ctx context.Context, film *Film) (*Film, error)

	// Remove deletes a film and all its children. Removing a missing id
	// succeeds.
	Remove(ctx context.Context, id int64) error

	// FindMeta returns the three child collections of a film.
	FindMeta(ctx context.Context, filmID int64) (*FilmMeta, error)

	// SaveMeta replaces all three child collections of a film.
	SaveMeta(ctx context.Context, meta *FilmMeta) (*FilmMeta, error)
}

// SnapshotExporter publishes the denormalized snapshot file.
type SnapshotExporter interface {
	Export(ctx context.Context) ExportResult
}

// SnapshotSearcher answers searches from the snapshot file.
type SnapshotSearcher interface {
	Search(targetColumn, searchText string) ([]SnapshotFilm, error)
}

// Store lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Operation errors.
var (
	ErrNotFound           = errors.New("film not found")
	ErrInvalidID          = errors.New("invalid film id")
	ErrInvalidTitle       = errors.New("film title must not be empty")
	ErrInvalidSearch      = errors.New("search text is not a valid year")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrInvalidImportRow   = errors.New("invalid import row")
)
