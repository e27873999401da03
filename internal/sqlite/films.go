package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/filmdex/internal/search"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// Compile-time interface check.
var _ types.FilmStore = (*Backend)(nil)

// childBatch bounds the number of film ids bound in one IN clause and the
// number of child rows in one INSERT.
const childBatch = 500

// Find lists films in canonical order, filtered through the search rule
// table when both inputs are non-blank. Every returned film carries its
// complete child collections.
func (b *Backend) Find(ctx context.Context, targetColumn, searchText string) ([]types.Film, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	p := search.Compile(targetColumn, searchText)
	switch {
	case p.Invalid():
		b.logger.Warn("search ignored non-numeric text",
			zap.String("column", p.Key()),
			zap.String("text", p.Text()),
			zap.Error(types.ErrInvalidSearch))
	case p.Unknown():
		b.logger.Info("unknown search column, listing every film",
			zap.String("column", p.Key()))
	}

	ds := dialect.From(types.FilmsTable).Prepared(true)
	if join := p.Join(); join != "" {
		ds = ds.InnerJoin(
			goqu.T(join),
			goqu.On(goqu.I(join+".film_id").Eq(goqu.I(types.FilmsTable+".id"))),
		).Distinct()
	}
	if expr := p.Expression(); expr != nil {
		ds = ds.Where(expr)
	}
	query, args, err := ds.Select(qualified(types.FilmsTable, filmColumns)...).
		Order(
			goqu.I("films.published_year").Asc(),
			goqu.I("films.title").Asc(),
			goqu.I("films.id").Asc(),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building find query: %w", err)
	}

	var rows []filmRow
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("finding films: %w", err)
	}

	films := make([]types.Film, 0, len(rows))
	for _, r := range rows {
		f, err := r.toFilm()
		if err != nil {
			return nil, err
		}
		films = append(films, f)
	}
	if err := loadChildren(ctx, b.db, films); err != nil {
		return nil, err
	}
	return films, nil
}

// FindByID returns one film with its children sorted by order.
func (b *Backend) FindByID(ctx context.Context, id int64) (*types.Film, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	return findFilm(ctx, b.db, id)
}

// Save creates or updates a film and replaces each non-nil child
// collection, all in one transaction, then returns the stored aggregate.
// A save carrying an id but a blank title only replaces children.
func (b *Backend) Save(ctx context.Context, film *types.Film) (*types.Film, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	if film == nil {
		return nil, types.ErrInvalidTitle
	}
	if film.ID < 0 {
		return nil, types.ErrInvalidID
	}
	blankTitle := strings.TrimSpace(film.Title) == ""
	if film.ID == 0 && blankTitle {
		return nil, types.ErrInvalidTitle
	}

	id := film.ID
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		now := b.timestamp()

		if id == 0 {
			rec := filmRecord(film)
			rec["created_at"] = now
			rec["updated_at"] = now
			newID, err := insertFilm(ctx, tx, rec)
			if err != nil {
				return err
			}
			id = newID
		} else {
			if err := requireFilm(ctx, tx, id); err != nil {
				return err
			}
			if !blankTitle {
				rec := filmRecord(film)
				rec["updated_at"] = now
				query, args, err := dialect.Update(types.FilmsTable).Prepared(true).
					Set(rec).
					Where(goqu.C("id").Eq(id)).
					ToSQL()
				if err != nil {
					return fmt.Errorf("building film update: %w", err)
				}
				if _, err := tx.ExecContext(ctx, query, args...); err != nil {
					return fmt.Errorf("updating film %d: %w", id, err)
				}
			}
		}

		if film.Casts != nil {
			if err := replaceCredits(ctx, tx, types.CastsTable, id, film.Casts, now); err != nil {
				return err
			}
		}
		if film.Staffs != nil {
			if err := replaceCredits(ctx, tx, types.StaffsTable, id, film.Staffs, now); err != nil {
				return err
			}
		}
		if film.Tags != nil {
			if err := replaceTags(ctx, tx, id, film.Tags, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return findFilm(ctx, b.db, id)
}

// Remove deletes the film and its children in one transaction. A missing
// id is not an error.
func (b *Backend) Remove(ctx context.Context, id int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}
	if id <= 0 {
		return types.ErrInvalidID
	}

	return b.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{types.TagsTable, types.StaffsTable, types.CastsTable} {
			if err := deleteChildren(ctx, tx, table, id); err != nil {
				return err
			}
		}
		query, args, err := dialect.Delete(types.FilmsTable).Prepared(true).
			Where(goqu.C("id").Eq(id)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("building film delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting film %d: %w", id, err)
		}
		return nil
	})
}

func insertFilm(ctx context.Context, tx *sqlx.Tx, rec goqu.Record) (int64, error) {
	query, args, err := dialect.Insert(types.FilmsTable).Prepared(true).Rows(rec).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building film insert: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting film: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading film id: %w", err)
	}
	return id, nil
}

// requireFilm returns ErrNotFound when no film row has id.
func requireFilm(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	var one int
	err := sqlx.GetContext(ctx, q, &one, "SELECT 1 FROM films WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking film %d: %w", id, err)
	}
	return nil
}

func findFilm(ctx context.Context, q sqlx.QueryerContext, id int64) (*types.Film, error) {
	query, args, err := dialect.From(types.FilmsTable).Prepared(true).
		Select(filmColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building film query: %w", err)
	}

	var row filmRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting film %d: %w", id, err)
	}
	f, err := row.toFilm()
	if err != nil {
		return nil, err
	}
	films := []types.Film{f}
	if err := loadChildren(ctx, q, films); err != nil {
		return nil, err
	}
	return &films[0], nil
}

// loadChildren fills the child collections of films in place, each sorted
// by order.
func loadChildren(ctx context.Context, q sqlx.QueryerContext, films []types.Film) error {
	if len(films) == 0 {
		return nil
	}
	index := make(map[int64]*types.Film, len(films))
	ids := make([]int64, 0, len(films))
	for i := range films {
		index[films[i].ID] = &films[i]
		ids = append(ids, films[i].ID)
	}

	for start := 0; start < len(ids); start += childBatch {
		end := min(start+childBatch, len(ids))
		batch := ids[start:end]

		casts, err := selectCredits(ctx, q, types.CastsTable, batch)
		if err != nil {
			return err
		}
		for _, c := range casts {
			index[c.FilmID].Casts = append(index[c.FilmID].Casts, c)
		}

		staffs, err := selectCredits(ctx, q, types.StaffsTable, batch)
		if err != nil {
			return err
		}
		for _, c := range staffs {
			index[c.FilmID].Staffs = append(index[c.FilmID].Staffs, c)
		}

		tags, err := selectTags(ctx, q, batch)
		if err != nil {
			return err
		}
		for _, t := range tags {
			index[t.FilmID].Tags = append(index[t.FilmID].Tags, t)
		}
	}
	return nil
}

func childQuery(table string, columns []any, filmIDs []int64) (string, []any, error) {
	return dialect.From(table).Prepared(true).
		Select(columns...).
		Where(goqu.C("film_id").In(filmIDs)).
		Order(goqu.C("film_id").Asc(), goqu.C("order").Asc()).
		ToSQL()
}

func selectCredits(ctx context.Context, q sqlx.QueryerContext, table string, filmIDs []int64) ([]types.Credit, error) {
	query, args, err := childQuery(table, creditColumns, filmIDs)
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", table, err)
	}
	var rows []creditRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("loading %s: %w", table, err)
	}
	out := make([]types.Credit, 0, len(rows))
	for _, r := range rows {
		c, err := r.toCredit()
		if err != nil {
			return nil, fmt.Errorf("hydrating %s row: %w", table, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func selectTags(ctx context.Context, q sqlx.QueryerContext, filmIDs []int64) ([]types.Tag, error) {
	query, args, err := childQuery(types.TagsTable, tagColumns, filmIDs)
	if err != nil {
		return nil, fmt.Errorf("building tags query: %w", err)
	}
	var rows []tagRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	out := make([]types.Tag, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTag()
		if err != nil {
			return nil, fmt.Errorf("hydrating tags row: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func deleteChildren(ctx context.Context, tx *sqlx.Tx, table string, filmID int64) error {
	query, args, err := dialect.Delete(table).Prepared(true).
		Where(goqu.C("film_id").Eq(filmID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("building %s delete: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %s of film %d: %w", table, filmID, err)
	}
	return nil
}

// replaceCredits deletes every row of table for the film and inserts
// credits with order taken from their position.
func replaceCredits(ctx context.Context, tx *sqlx.Tx, table string, filmID int64, credits []types.Credit, now string) error {
	if err := deleteChildren(ctx, tx, table, filmID); err != nil {
		return err
	}
	if len(credits) == 0 {
		return nil
	}
	rows := make([]any, 0, len(credits))
	for i, c := range credits {
		rows = append(rows, goqu.Record{
			"film_id":    filmID,
			"order":      i + 1,
			"role":       c.Role,
			"name":       c.Name,
			"created_at": now,
			"updated_at": now,
		})
	}
	return insertChildren(ctx, tx, table, rows)
}

// replaceTags is replaceCredits for the tags table.
func replaceTags(ctx context.Context, tx *sqlx.Tx, filmID int64, tags []types.Tag, now string) error {
	if err := deleteChildren(ctx, tx, types.TagsTable, filmID); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]any, 0, len(tags))
	for i, t := range tags {
		rows = append(rows, goqu.Record{
			"film_id":    filmID,
			"order":      i + 1,
			"name":       t.Name,
			"created_at": now,
			"updated_at": now,
		})
	}
	return insertChildren(ctx, tx, types.TagsTable, rows)
}

// insertChildren writes rows in chunks of childBatch to stay under SQLite's
// bound variable limit.
func insertChildren(ctx context.Context, tx *sqlx.Tx, table string, rows []any) error {
	for start := 0; start < len(rows); start += childBatch {
		end := min(start+childBatch, len(rows))
		query, args, err := dialect.Insert(table).Prepared(true).Rows(rows[start:end]...).ToSQL()
		if err != nil {
			return fmt.Errorf("building %s insert: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting %s: %w", table, err)
		}
	}
	return nil
}

// qualified prefixes each column with its table so joined queries stay
// unambiguous.
func qualified(table string, columns []any) []any {
	out := make([]any, 0, len(columns))
	for _, c := range columns {
		out = append(out, goqu.I(table+"."+c.(string)))
	}
	return out
}
