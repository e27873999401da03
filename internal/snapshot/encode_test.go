package snapshot

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestEncode_Compact(t *testing.T) {
	data, err := Encode(catalogRecords(), false)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "catalog", data)
}

func TestEncode_Empty(t *testing.T) {
	for _, films := range [][]types.SnapshotFilm{nil, {}} {
		data, err := Encode(films, false)
		require.NoError(t, err)
		assert.Equal(t, "[\n\n]\n", string(data))
	}
}

func TestEncode_Beautify(t *testing.T) {
	data, err := Encode(catalogRecords(), true)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("[\n  {\n")))
	assert.True(t, bytes.HasSuffix(data, []byte("]\n")))

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(catalogRecords(), back))
}

func TestDecode(t *testing.T) {
	data, err := Encode(catalogRecords(), false)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(catalogRecords(), back))

	empty, err := Decode([]byte("[\n\n]\n"))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}
