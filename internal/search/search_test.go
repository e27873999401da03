package search

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		column      string
		text        string
		wantActive  bool
		wantUnknown bool
		wantInvalid bool
		wantColumn  Column
	}{
		{name: "no arguments is no filter", column: "", text: ""},
		{name: "column only is no filter", column: "title", text: ""},
		{name: "text only is no filter", column: "", text: "god"},
		{name: "blank text after trim is no filter", column: "title", text: "   "},
		{name: "blank text on a child column joins nothing", column: "cast", text: " \t "},
		{name: "unknown column is no filter", column: "director", text: "god", wantUnknown: true},
		{name: "title", column: "title", text: "god", wantActive: true, wantColumn: ColumnTitle},
		{name: "column key is trimmed", column: "  cast ", text: "brando", wantActive: true, wantColumn: ColumnCast},
		{name: "published year", column: "published_year", text: "1972", wantActive: true, wantColumn: ColumnPublishedYear},
		{name: "published age", column: "published_age", text: " 1990 ", wantActive: true, wantColumn: ColumnPublishedAge},
		{name: "non numeric year", column: "published_year", text: "nineteen", wantActive: true, wantInvalid: true, wantColumn: ColumnPublishedYear},
		{name: "fractional decade", column: "published_age", text: "1990.5", wantActive: true, wantInvalid: true, wantColumn: ColumnPublishedAge},
		{name: "staff", column: "staff", text: "coppola", wantActive: true, wantColumn: ColumnStaff},
		{name: "tag", column: "tag", text: "classic", wantActive: true, wantColumn: ColumnTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.column, tt.text)
			assert.Equal(t, tt.wantActive, p.Active())
			assert.Equal(t, tt.wantUnknown, p.Unknown())
			assert.Equal(t, tt.wantInvalid, p.Invalid())
			assert.Equal(t, tt.wantColumn, p.Column())
		})
	}
}

func TestColumnsCoverTheTable(t *testing.T) {
	cols := Columns()
	require.Len(t, cols, 6)
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key()
		assert.NotEmpty(t, c.Label())
	}
	assert.Equal(t, []string{"published_year", "published_age", "title", "cast", "staff", "tag"}, keys)
	assert.Equal(t, "none", ColumnNone.String())
}

func TestJoinRequirement(t *testing.T) {
	assert.Equal(t, "", Compile("published_year", "1990").Join())
	assert.Equal(t, "", Compile("title", "god").Join())
	assert.Equal(t, types.CastsTable, Compile("cast", "x").Join())
	assert.Equal(t, types.StaffsTable, Compile("staff", "x").Join())
	assert.Equal(t, types.TagsTable, Compile("tag", "x").Join())
	assert.Equal(t, "", Compile("bogus", "x").Join())
}

func TestMatch(t *testing.T) {
	godfather := types.SnapshotFilm{
		PublishedYear: intPtr(1972),
		Title:         "The Godfather",
		JapaneseTitle: strPtr("ゴッドファーザー"),
		Casts:         []types.SnapshotCredit{{Role: "Vito Corleone", Name: "Marlon Brando"}},
		Staffs:        []types.SnapshotCredit{{Role: "Director", Name: "Francis Ford Coppola"}},
		Tags:          []types.SnapshotTag{{Name: "Classic"}},
	}
	amadeus := types.SnapshotFilm{
		PublishedYear: intPtr(1984),
		Title:         "Amadeus",
		Casts:         []types.SnapshotCredit{},
		Staffs:        []types.SnapshotCredit{},
		Tags:          []types.SnapshotTag{},
	}
	undated := types.SnapshotFilm{Title: "Untitled"}

	tests := []struct {
		name   string
		column string
		text   string
		film   types.SnapshotFilm
		want   bool
	}{
		{name: "title substring case-insensitive", column: "title", text: "god", film: godfather, want: true},
		{name: "title miss", column: "title", text: "god", film: amadeus, want: false},
		{name: "japanese title", column: "title", text: "ファーザー", film: godfather, want: true},
		{name: "nil japanese title does not panic", column: "title", text: "zzz", film: amadeus, want: false},
		{name: "cast by name", column: "cast", text: "BRANDO", film: godfather, want: true},
		{name: "cast by role", column: "cast", text: "corleone", film: godfather, want: true},
		{name: "cast with no entries", column: "cast", text: "brando", film: amadeus, want: false},
		{name: "staff by role", column: "staff", text: "direct", film: godfather, want: true},
		{name: "tag", column: "tag", text: "class", film: godfather, want: true},
		{name: "year exact", column: "published_year", text: "1972", film: godfather, want: true},
		{name: "year miss", column: "published_year", text: "1973", film: godfather, want: false},
		{name: "year on undated film", column: "published_year", text: "1972", film: undated, want: false},
		{name: "decade lower bound", column: "published_age", text: "1972", film: godfather, want: true},
		{name: "decade upper bound", column: "published_age", text: "1963", film: godfather, want: true},
		{name: "decade past upper bound", column: "published_age", text: "1962", film: godfather, want: false},
		{name: "non numeric year matches nothing", column: "published_year", text: "abc", film: godfather, want: false},
		{name: "unknown column matches everything", column: "bogus", text: "abc", film: amadeus, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			film := tt.film
			assert.Equal(t, tt.want, Compile(tt.column, tt.text).Match(&film))
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	films := []types.SnapshotFilm{
		{Title: "B God"}, {Title: "Amadeus"}, {Title: "A god"},
	}
	got := Compile("title", "god").Filter(films)
	require.Len(t, got, 2)
	assert.Equal(t, "B God", got[0].Title)
	assert.Equal(t, "A god", got[1].Title)

	assert.Len(t, Compile("", "").Filter(films), 3)
	assert.Empty(t, Compile("published_year", "x").Filter(films))
}

func TestExpression(t *testing.T) {
	tests := []struct {
		name      string
		column    string
		text      string
		fragments []string
		nargs     int
	}{
		{
			name:      "published year",
			column:    "published_year",
			text:      "1972",
			fragments: []string{"`films`.`published_year` = ?"},
			nargs:     1,
		},
		{
			name:      "published age",
			column:    "published_age",
			text:      "1990",
			fragments: []string{"`films`.`published_year` BETWEEN ? AND ?"},
			nargs:     2,
		},
		{
			name:      "title",
			column:    "title",
			text:      "GoD",
			fragments: []string{"instr(fold(`films`.`title`), ?)", "instr(fold(`films`.`japanese_title`), ?)", " OR "},
			nargs:     4,
		},
		{
			name:      "tag",
			column:    "tag",
			text:      "Classic",
			fragments: []string{"instr(fold(`tags`.`name`), ?)"},
			nargs:     2,
		},
		{
			name:      "invalid number",
			column:    "published_year",
			text:      "n/a",
			fragments: []string{"1 = 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.column, tt.text)
			query, args, err := goqu.Dialect("sqlite3").From("films").Where(p.Expression()).Prepared(true).ToSQL()
			require.NoError(t, err)
			for _, f := range tt.fragments {
				assert.Contains(t, query, f)
			}
			assert.Len(t, args, tt.nargs)
		})
	}
	assert.Nil(t, Compile("", "").Expression())
}

func TestFold(t *testing.T) {
	assert.Equal(t, "the godfather", Fold("The GODFATHER"))
	assert.Equal(t, Fold("ÉCOLE"), Fold("école"))
}
