package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema DDL. Child tables are keyed by (film_id, "order") and reference
// their film; "order" is quoted because it is an SQL keyword.
const (
	createFilms = `CREATE TABLE IF NOT EXISTS films (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    published_year INTEGER,
    title TEXT NOT NULL,
    japanese_title TEXT,
    scenario TEXT,
    review TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createCasts = `CREATE TABLE IF NOT EXISTS casts (
    film_id INTEGER NOT NULL,
    "order" INTEGER NOT NULL,
    role TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (film_id, "order"),
    FOREIGN KEY (film_id) REFERENCES films(id)
);`

	createStaffs = `CREATE TABLE IF NOT EXISTS staffs (
    film_id INTEGER NOT NULL,
    "order" INTEGER NOT NULL,
    role TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (film_id, "order"),
    FOREIGN KEY (film_id) REFERENCES films(id)
);`

	createTags = `CREATE TABLE IF NOT EXISTS tags (
    film_id INTEGER NOT NULL,
    "order" INTEGER NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (film_id, "order"),
    FOREIGN KEY (film_id) REFERENCES films(id)
);`
)

// Index DDL for the canonical listing order.
const (
	idxFilmsYearTitle = `CREATE INDEX IF NOT EXISTS idx_films_year_title ON films(published_year, title);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createFilms,
	createCasts,
	createStaffs,
	createTags,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFilmsYearTitle,
}

// applySchema creates any missing table or index in one transaction.
func applySchema(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}
