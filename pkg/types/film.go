package types

import "time"

// Standard table names in the relational store.
const (
	FilmsTable  = "films"
	CastsTable  = "casts"
	StaffsTable = "staffs"
	TagsTable   = "tags"
)

// Film is the aggregate root. The three child slices follow replace-all
// semantics on save: a nil slice leaves the stored collection untouched, a
// non-nil slice (even empty) replaces it entirely.
type Film struct {
	ID            int64     `json:"id,omitempty"`
	PublishedYear *int      `json:"publishedYear"`
	Title         string    `json:"title"`
	JapaneseTitle *string   `json:"japaneseTitle"`
	Scenario      *string   `json:"scenario"`
	Review        *string   `json:"review"`
	Casts         []Credit  `json:"casts"`
	Staffs        []Credit  `json:"staffs"`
	Tags          []Tag     `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Credit is one cast or staff entry of a film.
type Credit struct {
	FilmID    int64     `json:"filmId,omitempty"`
	Order     int       `json:"order"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tag is one tag of a film.
type Tag struct {
	FilmID    int64     `json:"filmId,omitempty"`
	Order     int       `json:"order"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FilmMeta groups the three child collections of one film.
type FilmMeta struct {
	FilmID int64    `json:"filmId"`
	Casts  []Credit `json:"casts"`
	Staffs []Credit `json:"staffs"`
	Tags   []Tag    `json:"tags"`
}

// Snapshot strips the persistence-only fields (ids, foreign keys, ordering
// keys, timestamps) and returns the display projection of the film. Child
// slices are never nil so they serialize as [].
func (f *Film) Snapshot() SnapshotFilm {
	s := SnapshotFilm{
		PublishedYear: f.PublishedYear,
		Title:         f.Title,
		JapaneseTitle: f.JapaneseTitle,
		Scenario:      f.Scenario,
		Review:        f.Review,
		Casts:         make([]SnapshotCredit, 0, len(f.Casts)),
		Staffs:        make([]SnapshotCredit, 0, len(f.Staffs)),
		Tags:          make([]SnapshotTag, 0, len(f.Tags)),
	}
	for _, c := range f.Casts {
		s.Casts = append(s.Casts, SnapshotCredit{Role: c.Role, Name: c.Name})
	}
	for _, c := range f.Staffs {
		s.Staffs = append(s.Staffs, SnapshotCredit{Role: c.Role, Name: c.Name})
	}
	for _, t := range f.Tags {
		s.Tags = append(s.Tags, SnapshotTag{Name: t.Name})
	}
	return s
}

// Meta returns the child collections of the film as a FilmMeta.
func (f *Film) Meta() *FilmMeta {
	return &FilmMeta{FilmID: f.ID, Casts: f.Casts, Staffs: f.Staffs, Tags: f.Tags}
}
