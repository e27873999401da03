package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// workspace holds the directories one CLI test runs against.
type workspace struct {
	config string
	data   string
	public string
	dist   string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	return workspace{
		config: filepath.Join(root, "config"),
		data:   filepath.Join(root, "data"),
		public: filepath.Join(root, "public"),
		dist:   filepath.Join(root, "dist"),
	}
}

// run executes the CLI with the workspace flags and returns stdout.
func (w workspace) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--config-dir", w.config,
		"--data-dir", w.data,
		"--snapshot-dir", w.public,
		"--snapshot-dir", w.dist,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (w workspace) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := w.run(t, stdin, args...)
	require.NoError(t, err, "filmdex %v", args)
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &v), out)
	return v
}

func TestVersion(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "filmdex v"+Version)
	assert.Contains(t, out.String(), modulePath)
}

func TestInit(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "", "init")
	assert.Contains(t, out, "filmdex initialized successfully")

	cfg, err := os.ReadFile(filepath.Join(w.config, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "backend: sqlite")
	assert.Contains(t, string(cfg), "unwatched_tag: unwatched")

	for _, path := range []string{filepath.Join(w.data, types.DefaultDBFile), w.public, w.dist} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	summary := decode[initSummary](t, w.mustRun(t, "", "--json", "init"))
	assert.Equal(t, filepath.Join(w.data, types.DefaultDBFile), summary.Database)
	assert.Equal(t, []string{w.public, w.dist}, summary.SnapshotDirs)
}

func TestFilmLifecycle(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "", "init")

	created := decode[types.Film](t, w.mustRun(t,
		`{"title":"Rashomon","publishedYear":1950,"casts":[{"role":"Tajomaru","name":"Toshiro Mifune"}],"tags":[{"name":"classic"},{"name":"mystery"}]}`,
		"save"))
	require.Positive(t, created.ID)
	assert.Len(t, created.Casts, 1)
	id := strconv.FormatInt(created.ID, 10)

	got := decode[types.Film](t, w.mustRun(t, "", "get", id))
	assert.Equal(t, "Rashomon", got.Title)

	t.Run("empty casts keep tags", func(t *testing.T) {
		saved := decode[types.Film](t, w.mustRun(t, `{"id":`+id+`,"title":"Rashomon","casts":[]}`, "save"))
		assert.Empty(t, saved.Casts)
		assert.Len(t, saved.Tags, 2)
	})

	t.Run("list filters", func(t *testing.T) {
		w.mustRun(t, `{"title":"Ikiru","publishedYear":1952}`, "save")

		all := decode[[]types.Film](t, w.mustRun(t, "", "list"))
		assert.Len(t, all, 2)

		hit := decode[[]types.Film](t, w.mustRun(t, "", "list", "--column", "tag", "--text", "MYST"))
		require.Len(t, hit, 1)
		assert.Equal(t, "Rashomon", hit[0].Title)
	})

	t.Run("meta", func(t *testing.T) {
		meta := decode[types.FilmMeta](t, w.mustRun(t, `{"staffs":[{"role":"Director","name":"Akira Kurosawa"}]}`, "meta", "set", id))
		assert.Equal(t, created.ID, meta.FilmID)
		assert.Len(t, meta.Staffs, 1)
		assert.Empty(t, meta.Tags)

		meta = decode[types.FilmMeta](t, w.mustRun(t, "", "meta", "get", id))
		assert.Equal(t, "Akira Kurosawa", meta.Staffs[0].Name)
	})

	t.Run("delete", func(t *testing.T) {
		out := w.mustRun(t, "", "delete", id)
		assert.Contains(t, out, "deleted film "+id)

		_, err := w.run(t, "", "get", id)
		require.ErrorIs(t, err, types.ErrNotFound)
		assert.Equal(t, exitUserError, exitCode(err))
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := w.run(t, "", "get", "abc")
		assert.ErrorIs(t, err, types.ErrInvalidID)

		_, err = w.run(t, `{"publishedYear":1990}`, "save")
		assert.ErrorIs(t, err, types.ErrInvalidTitle)

		_, err = w.run(t, `not json`, "save")
		assert.Error(t, err)
	})
}

func TestExportAndSearch(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "", "init")
	w.mustRun(t, `{"title":"Amadeus","publishedYear":1984,"tags":[{"name":"unwatched"}]}`, "save")
	w.mustRun(t, `{"title":"The Godfather","publishedYear":1972}`, "save")

	_, err := w.run(t, "", "search")
	require.ErrorIs(t, err, types.ErrStorageUnavailable, "nothing published yet")

	out := w.mustRun(t, "", "export")
	paths := strings.Fields(out)
	require.Equal(t, []string{
		filepath.Join(w.public, types.DefaultSnapshotFile),
		filepath.Join(w.dist, types.DefaultSnapshotFile),
	}, paths)

	a, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	b, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(string(a), "[\n{\"publishedYear\":1972,\"title\":\"The Godfather\""))

	res := decode[types.ExportResult](t, w.mustRun(t, "", "--json", "export"))
	assert.Equal(t, paths, res.Paths)

	films := decode[[]types.SnapshotFilm](t, w.mustRun(t, "", "search", "tag", "unwatched"))
	require.Len(t, films, 1)
	assert.Equal(t, "Amadeus", films[0].Title)

	films = decode[[]types.SnapshotFilm](t, w.mustRun(t, "", "search", "published_year", "abc"))
	assert.Empty(t, films)

	films = decode[[]types.SnapshotFilm](t, w.mustRun(t, "", "search"))
	assert.Len(t, films, 2)
}

func TestExport_RequiresDatabase(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.run(t, "", "export")
	require.ErrorIs(t, err, types.ErrStorageUnavailable)
	assert.Equal(t, exitSysError, exitCode(err))
	_, statErr := os.Stat(filepath.Join(w.data, types.DefaultDBFile))
	assert.True(t, os.IsNotExist(statErr), "export must not create the database")
}

func TestImportCommand(t *testing.T) {
	w := newWorkspace(t)
	seed := filepath.Join(t.TempDir(), "films.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
[1954, "Seven Samurai", "七人の侍", 1],
[1950, null, null, 0],
[1985, "Ran", "乱", false]
]`), 0o644))

	_, err := w.run(t, "", "import", seed)
	require.ErrorIs(t, err, types.ErrStorageUnavailable)

	w.mustRun(t, "", "init")
	out := w.mustRun(t, "", "import", seed)
	assert.Contains(t, out, "imported 2 of 3 rows (1 tagged)")
	assert.Contains(t, out, "row 2:")

	summary := decode[importSummary](t, w.mustRun(t, "", "--json", "import", seed))
	assert.Equal(t, 2, summary.Imported)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, 2, summary.Failed[0].Row)

	tagged := decode[[]types.Film](t, w.mustRun(t, "", "list", "--column", "tag", "--text", "unwatched"))
	assert.Len(t, tagged, 2, "each import run adds its own rows")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"not found", types.ErrNotFound, exitUserError},
		{"usage", errors.New("accepts 1 arg(s)"), exitUserError},
		{"storage", types.ErrStorageUnavailable, exitSysError},
		{"transaction", errors.Join(types.ErrTransactionFailed, errors.New("disk full")), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
