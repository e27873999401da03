package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// FindMeta returns the cast, staff and tag collections of a film.
func (b *Backend) FindMeta(ctx context.Context, filmID int64) (*types.FilmMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	if filmID <= 0 {
		return nil, types.ErrInvalidID
	}

	f, err := findFilm(ctx, b.db, filmID)
	if err != nil {
		return nil, err
	}
	return f.Meta(), nil
}

// SaveMeta replaces all three child collections of a film in one
// transaction. Nil collections are stored as empty. The film row itself
// is not modified.
func (b *Backend) SaveMeta(ctx context.Context, meta *types.FilmMeta) (*types.FilmMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	if meta == nil || meta.FilmID <= 0 {
		return nil, types.ErrInvalidID
	}

	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireFilm(ctx, tx, meta.FilmID); err != nil {
			return err
		}
		now := b.timestamp()
		if err := replaceCredits(ctx, tx, types.CastsTable, meta.FilmID, meta.Casts, now); err != nil {
			return err
		}
		if err := replaceCredits(ctx, tx, types.StaffsTable, meta.FilmID, meta.Staffs, now); err != nil {
			return err
		}
		return replaceTags(ctx, tx, meta.FilmID, meta.Tags, now)
	})
	if err != nil {
		return nil, err
	}

	f, err := findFilm(ctx, b.db, meta.FilmID)
	if err != nil {
		return nil, err
	}
	return f.Meta(), nil
}
