package index

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatSearchRanksByInnerProduct(t *testing.T) {
	f, err := NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, f.Add([][]float32{
		{0, 1},
		{1, 0},
		{0.6, 0.8},
	}))

	hits, err := f.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, 1, hits[0].Row)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
	assert.Equal(t, 2, hits[1].Row)
	assert.InDelta(t, 0.6, float64(hits[1].Score), 1e-6)
}

func TestFlatSearchTiesBreakTowardLowerRow(t *testing.T) {
	f, err := NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, f.Add([][]float32{
		{1, 0},
		{1, 0},
		{1, 0},
	}))

	hits, err := f.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i, h := range hits {
		assert.Equal(t, i, h.Row)
	}
}

func TestFlatSearchNormalizesQuery(t *testing.T) {
	f, err := NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, f.Add([][]float32{{1, 0}, {0, 1}}))

	// Query magnitude must not inflate scores.
	hits, err := f.Search([]float32{5, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Row)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}

func TestFlatSearchClampsK(t *testing.T) {
	f, err := NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, f.Add([][]float32{{1, 0}, {0, 1}}))

	hits, err := f.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestFlatSearchEmptyIndex(t *testing.T) {
	f, err := NewFlat(4)
	require.NoError(t, err)

	hits, err := f.Search([]float32{0, 0, 0, 1}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFlatAddDimensionMismatch(t *testing.T) {
	f, err := NewFlat(3)
	require.NoError(t, err)

	err = f.Add([][]float32{{1, 0, 0}, {1, 0}})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, f.Size())
}

func TestFlatSearchDimensionMismatch(t *testing.T) {
	f, err := NewFlat(3)
	require.NoError(t, err)

	_, err = f.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f, err := NewFlat(2)
	require.NoError(t, err)
	require.NoError(t, f.Add([][]float32{{1, 0}, {0.6, 0.8}}))

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Dimension())
	assert.Equal(t, 2, loaded.Size())

	hits, err := loaded.Search([]float32{0.6, 0.8}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Row)
}

func TestLoadRejectsCorruptArtifacts(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"bad version", `{"version":99,"dimension":2,"count":0,"vectors":[]}`},
		{"zero dimension", `{"version":1,"dimension":0,"count":0,"vectors":[]}`},
		{"count mismatch", `{"version":1,"dimension":2,"count":3,"vectors":[[1,0]]}`},
		{"ragged vectors", `{"version":1,"dimension":2,"count":1,"vectors":[[1,0,0]]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o600))

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrCorruptArtifact)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorruptArtifact)
}
