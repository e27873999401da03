package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mesh-intelligence/filmdex/internal/sqlite"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

// catalogRecords is the snapshot form of catalogFilms, in canonical order.
func catalogRecords() []types.SnapshotFilm {
	return []types.SnapshotFilm{
		{
			Title:  "Untitled",
			Casts:  []types.SnapshotCredit{},
			Staffs: []types.SnapshotCredit{},
			Tags:   []types.SnapshotTag{},
		},
		{
			PublishedYear: ptr(1954),
			Title:         "Seven Samurai",
			JapaneseTitle: ptr("七人の侍"),
			Scenario:      ptr("Farmers hire samurai."),
			Review:        ptr(""),
			Casts: []types.SnapshotCredit{
				{Role: "Kambei", Name: "Takashi Shimura"},
				{Role: "Kikuchiyo", Name: "Toshiro Mifune"},
			},
			Staffs: []types.SnapshotCredit{{Role: "Director", Name: "Akira Kurosawa"}},
			Tags:   []types.SnapshotTag{{Name: "jidaigeki"}, {Name: "classic"}},
		},
		{
			PublishedYear: ptr(1984),
			Title:         "Amadeus",
			Review:        ptr("Mozart's rival & friend."),
			Casts:         []types.SnapshotCredit{{Role: "Mozart", Name: "Tom Hulce"}},
			Staffs:        []types.SnapshotCredit{},
			Tags:          []types.SnapshotTag{{Name: "unwatched"}},
		},
	}
}

// catalogFilms is catalogRecords as store input, saved out of order.
func catalogFilms() []types.Film {
	return []types.Film{
		{
			PublishedYear: ptr(1984),
			Title:         "Amadeus",
			Review:        ptr("Mozart's rival & friend."),
			Casts:         []types.Credit{{Role: "Mozart", Name: "Tom Hulce"}},
			Tags:          []types.Tag{{Name: "unwatched"}},
		},
		{
			PublishedYear: ptr(1954),
			Title:         "Seven Samurai",
			JapaneseTitle: ptr("七人の侍"),
			Scenario:      ptr("Farmers hire samurai."),
			Review:        ptr(""),
			Casts: []types.Credit{
				{Role: "Kambei", Name: "Takashi Shimura"},
				{Role: "Kikuchiyo", Name: "Toshiro Mifune"},
			},
			Staffs: []types.Credit{{Role: "Director", Name: "Akira Kurosawa"}},
			Tags:   []types.Tag{{Name: "jidaigeki"}, {Name: "classic"}},
		},
		{Title: "Untitled"},
	}
}

// setupStore attaches a store in a fresh data directory and saves films.
func setupStore(t *testing.T, films []types.Film) (*sqlite.Backend, types.Config) {
	t.Helper()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(config))
	t.Cleanup(func() { b.Detach() })

	ctx := context.Background()
	for i := range films {
		_, err := b.Save(ctx, &films[i])
		require.NoError(t, err)
	}
	return b, config
}
