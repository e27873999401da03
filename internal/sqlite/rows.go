package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// dialect renders every statement the store issues.
var dialect = goqu.Dialect("sqlite3")

// Column lists, in scan order.
var (
	filmColumns   = []any{"id", "published_year", "title", "japanese_title", "scenario", "review", "created_at", "updated_at"}
	creditColumns = []any{"film_id", "order", "role", "name", "created_at", "updated_at"}
	tagColumns    = []any{"film_id", "order", "name", "created_at", "updated_at"}
)

// filmRow is the films table row as scanned by sqlx.
type filmRow struct {
	ID            int64          `db:"id"`
	PublishedYear sql.NullInt64  `db:"published_year"`
	Title         string         `db:"title"`
	JapaneseTitle sql.NullString `db:"japanese_title"`
	Scenario      sql.NullString `db:"scenario"`
	Review        sql.NullString `db:"review"`
	CreatedAt     string         `db:"created_at"`
	UpdatedAt     string         `db:"updated_at"`
}

// creditRow is a casts or staffs table row.
type creditRow struct {
	FilmID    int64  `db:"film_id"`
	Order     int    `db:"order"`
	Role      string `db:"role"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// tagRow is a tags table row.
type tagRow struct {
	FilmID    int64  `db:"film_id"`
	Order     int    `db:"order"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r filmRow) toFilm() (types.Film, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Film{}, fmt.Errorf("film %d created_at: %w", r.ID, err)
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return types.Film{}, fmt.Errorf("film %d updated_at: %w", r.ID, err)
	}
	f := types.Film{
		ID:            r.ID,
		Title:         r.Title,
		JapaneseTitle: nullString(r.JapaneseTitle),
		Scenario:      nullString(r.Scenario),
		Review:        nullString(r.Review),
		Casts:         []types.Credit{},
		Staffs:        []types.Credit{},
		Tags:          []types.Tag{},
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
	if r.PublishedYear.Valid {
		y := int(r.PublishedYear.Int64)
		f.PublishedYear = &y
	}
	return f, nil
}

func (r creditRow) toCredit() (types.Credit, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Credit{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return types.Credit{}, err
	}
	return types.Credit{
		FilmID:    r.FilmID,
		Order:     r.Order,
		Role:      r.Role,
		Name:      r.Name,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func (r tagRow) toTag() (types.Tag, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Tag{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return types.Tag{}, err
	}
	return types.Tag{
		FilmID:    r.FilmID,
		Order:     r.Order,
		Name:      r.Name,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// filmRecord dehydrates the scalar columns of f.
func filmRecord(f *types.Film) goqu.Record {
	rec := goqu.Record{
		"published_year": nil,
		"title":          f.Title,
		"japanese_title": nil,
		"scenario":       nil,
		"review":         nil,
	}
	if f.PublishedYear != nil {
		rec["published_year"] = *f.PublishedYear
	}
	if f.JapaneseTitle != nil {
		rec["japanese_title"] = *f.JapaneseTitle
	}
	if f.Scenario != nil {
		rec["scenario"] = *f.Scenario
	}
	if f.Review != nil {
		rec["review"] = *f.Review
	}
	return rec
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
