package types

import (
	"slices"
	"strconv"
)

// SnapshotFilm is one record of the exported snapshot file. Field order is
// the serialization order and must not change.
type SnapshotFilm struct {
	PublishedYear *int             `json:"publishedYear"`
	Title         string           `json:"title"`
	JapaneseTitle *string          `json:"japaneseTitle"`
	Scenario      *string          `json:"scenario"`
	Review        *string          `json:"review"`
	Casts         []SnapshotCredit `json:"casts"`
	Staffs        []SnapshotCredit `json:"staffs"`
	Tags          []SnapshotTag    `json:"tags"`
}

// SnapshotCredit is a cast or staff entry without persistence fields.
type SnapshotCredit struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// SnapshotTag is a tag without persistence fields.
type SnapshotTag struct {
	Name string `json:"name"`
}

// Identity returns the title and published year pair that identifies a
// film across the relational store and the snapshot.
func (s *SnapshotFilm) Identity() string {
	year := "null"
	if s.PublishedYear != nil {
		year = strconv.Itoa(*s.PublishedYear)
	}
	return year + "\t" + s.Title
}

// Clone returns a copy of s that shares no memory with it.
func (s *SnapshotFilm) Clone() SnapshotFilm {
	c := *s
	c.PublishedYear = clonePtr(s.PublishedYear)
	c.JapaneseTitle = clonePtr(s.JapaneseTitle)
	c.Scenario = clonePtr(s.Scenario)
	c.Review = clonePtr(s.Review)
	c.Casts = slices.Clone(s.Casts)
	c.Staffs = slices.Clone(s.Staffs)
	c.Tags = slices.Clone(s.Tags)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ExportResult is the outcome of a snapshot export. Callers must check Err
// before trusting Paths.
type ExportResult struct {
	Paths []string `json:"savedJsonFilePaths,omitempty"`
	Err   error    `json:"-"`
}
