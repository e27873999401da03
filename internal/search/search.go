// Package search holds the closed rule table that turns a (column, text)
// search request into a relational expression for the store and an
// in-memory predicate for the snapshot. Both engines compile requests
// through the same table so their results cannot drift apart.
package search

import (
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// Column identifies one recognized search column.
type Column int

// Recognized search columns. ColumnNone means no filter applies.
const (
	ColumnNone Column = iota
	ColumnPublishedYear
	ColumnPublishedAge
	ColumnTitle
	ColumnCast
	ColumnStaff
	ColumnTag
)

// FoldFunc is the name of the SQL scalar function backends must register
// with Fold as its implementation.
const FoldFunc = "fold"

// rule is one row of the search table.
type rule struct {
	column  Column
	key     string
	label   string
	join    string // child table the relational side must join, "" for none
	numeric bool
	sql     func(p Predicate) exp.Expression
	match   func(p Predicate, f *types.SnapshotFilm) bool
}

var rules = []rule{
	{
		column:  ColumnPublishedYear,
		key:     "published_year",
		label:   "Published year",
		numeric: true,
		sql: func(p Predicate) exp.Expression {
			return goqu.I("films.published_year").Eq(p.year)
		},
		match: func(p Predicate, f *types.SnapshotFilm) bool {
			return f.PublishedYear != nil && *f.PublishedYear == p.year
		},
	},
	{
		column:  ColumnPublishedAge,
		key:     "published_age",
		label:   "Published decade",
		numeric: true,
		sql: func(p Predicate) exp.Expression {
			return goqu.I("films.published_year").Between(goqu.Range(p.year, p.year+9))
		},
		match: func(p Predicate, f *types.SnapshotFilm) bool {
			return f.PublishedYear != nil && *f.PublishedYear >= p.year && *f.PublishedYear <= p.year+9
		},
	},
	{
		column: ColumnTitle,
		key:    "title",
		label:  "Title",
		sql: func(p Predicate) exp.Expression {
			return goqu.Or(contains("films.title", p.needle), contains("films.japanese_title", p.needle))
		},
		match: func(p Predicate, f *types.SnapshotFilm) bool {
			return p.contains(f.Title) || (f.JapaneseTitle != nil && p.contains(*f.JapaneseTitle))
		},
	},
	{
		column: ColumnCast,
		key:    "cast",
		label:  "Cast",
		join:   types.CastsTable,
		sql: func(p Predicate) exp.Expression {
			return goqu.Or(contains("casts.name", p.needle), contains("casts.role", p.needle))
		},
		match: func(p Predicate, f *types.SnapshotFilm) bool {
			return p.anyCredit(f.Casts)
		},
	},
	{
		column: ColumnStaff,
		key:    "staff",
		label:  "Staff",
		join:   types.StaffsTable,
		sql: func(p Predicate) exp.Expression {
			return goqu.Or(contains("staffs.name", p.needle), contains("staffs.role", p.needle))
		},
		match: func(p Predicate, f *types.SnapshotFilm) bool {
			return p.anyCredit(f.Staffs)
		},
	},
	{
		column: ColumnTag,
		key:    "tag",
		label:  "Tag",
		join:   types.TagsTable,
		sql: func(p Predicate) exp.Expression {
			return contains("tags.name", p.needle)
		},
		match: func(p Predicate, f *types.SnapshotFilm) bool {
			for _, t := range f.Tags {
				if p.contains(t.Name) {
					return true
				}
			}
			return false
		},
	},
}

var rulesByKey = func() map[string]*rule {
	m := make(map[string]*rule, len(rules))
	for i := range rules {
		m[rules[i].key] = &rules[i]
	}
	return m
}()

// Columns returns every recognized column in table order.
func Columns() []Column {
	cols := make([]Column, len(rules))
	for i, r := range rules {
		cols[i] = r.column
	}
	return cols
}

// Key returns the request key of the column, e.g. "published_age".
func (c Column) Key() string {
	if r := c.rule(); r != nil {
		return r.key
	}
	return ""
}

// Label returns a human-readable name for the column.
func (c Column) Label() string {
	if r := c.rule(); r != nil {
		return r.label
	}
	return ""
}

func (c Column) String() string {
	if k := c.Key(); k != "" {
		return k
	}
	return "none"
}

func (c Column) rule() *rule {
	for i := range rules {
		if rules[i].column == c {
			return &rules[i]
		}
	}
	return nil
}

// Predicate is a compiled search request.
type Predicate struct {
	rule    *rule
	key     string
	text    string
	needle  string
	year    int
	invalid bool
}

// Compile trims both inputs and resolves them against the rule table.
// A blank column or text, or an unrecognized column key, yields an
// inactive predicate meaning "no filter". A numeric column whose text is
// not a base-10 integer yields an active predicate that matches nothing
// and reports Invalid.
func Compile(targetColumn, searchText string) Predicate {
	key := strings.TrimSpace(targetColumn)
	text := strings.TrimSpace(searchText)
	p := Predicate{key: key, text: text}
	if key == "" || text == "" {
		return p
	}
	r, ok := rulesByKey[key]
	if !ok {
		return p
	}
	p.rule = r
	if r.numeric {
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			p.invalid = true
			return p
		}
		p.year = int(n)
		return p
	}
	p.needle = Fold(text)
	return p
}

// Active reports whether the predicate filters anything.
func (p Predicate) Active() bool { return p.rule != nil }

// Unknown reports whether a column key was supplied that the table does
// not recognize.
func (p Predicate) Unknown() bool {
	return p.rule == nil && p.key != "" && p.text != ""
}

// Invalid reports whether a numeric column received non-numeric text.
func (p Predicate) Invalid() bool { return p.invalid }

// Column returns the compiled column, ColumnNone when inactive.
func (p Predicate) Column() Column {
	if p.rule == nil {
		return ColumnNone
	}
	return p.rule.column
}

// Key returns the trimmed column key as supplied.
func (p Predicate) Key() string { return p.key }

// Text returns the trimmed search text.
func (p Predicate) Text() string { return p.text }

// Join returns the child table the relational expression references, or
// "" when only the films table is needed.
func (p Predicate) Join() string {
	if p.rule == nil {
		return ""
	}
	return p.rule.join
}

// Expression returns the relational filter. Inactive predicates return nil.
func (p Predicate) Expression() exp.Expression {
	switch {
	case p.rule == nil:
		return nil
	case p.invalid:
		return goqu.L("1 = 0")
	default:
		return p.rule.sql(p)
	}
}

// Match applies the predicate to one snapshot record. Inactive predicates
// match everything.
func (p Predicate) Match(f *types.SnapshotFilm) bool {
	switch {
	case p.rule == nil:
		return true
	case p.invalid:
		return false
	default:
		return p.rule.match(p, f)
	}
}

// Filter returns the records matching p, preserving their order.
func (p Predicate) Filter(films []types.SnapshotFilm) []types.SnapshotFilm {
	if !p.Active() {
		return films
	}
	out := make([]types.SnapshotFilm, 0)
	for i := range films {
		if p.Match(&films[i]) {
			out = append(out, films[i])
		}
	}
	return out
}

func (p Predicate) contains(s string) bool {
	return strings.Contains(Fold(s), p.needle)
}

func (p Predicate) anyCredit(credits []types.SnapshotCredit) bool {
	for _, c := range credits {
		if p.contains(c.Name) || p.contains(c.Role) {
			return true
		}
	}
	return false
}

// Fold applies Unicode case folding. The relational side reaches it
// through the FoldFunc SQL function so both engines compare identical
// strings.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// contains is the relational form of a folded substring test.
func contains(column, needle string) exp.Expression {
	return goqu.Func("instr", goqu.Func(FoldFunc, goqu.I(column)), needle).Gt(0)
}
