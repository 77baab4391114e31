package datasets

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceRowStructTags(t *testing.T) {
	schema := parquet.SchemaOf(new(SurfaceRow))
	require.NotNil(t, schema)

	for _, colName := range []string{"row", "col", "x", "y", "score", "mixture", "difference"} {
		_, ok := schema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func readSurfaceRows(t *testing.T, path string) []SurfaceRow {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[SurfaceRow](file)
	defer reader.Close()

	rows := make([]SurfaceRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestExportSurfaceParquet_WithMixture(t *testing.T) {
	points, err := DecodeScoredGrid(strings.NewReader(twoByTwoGrid))
	require.NoError(t, err)
	s, err := Reshape(points)
	require.NoError(t, err)

	mixture := [][]float64{{0.5, 0.5}, {1, 1}}
	out := filepath.Join(t.TempDir(), "nested", "surface.parquet")
	require.NoError(t, ExportSurfaceParquet(s, mixture, out))

	rows := readSurfaceRows(t, out)
	require.Len(t, rows, 4)
	for k, r := range rows {
		assert.Equal(t, int32(k/2), r.Row)
		assert.Equal(t, int32(k%2), r.Col)
		assert.Equal(t, points[k].Score, r.Score)
		require.NotNil(t, r.Mixture)
		require.NotNil(t, r.Difference)
		assert.InDelta(t, r.Score-*r.Mixture, *r.Difference, 1e-12)
	}
	assert.Equal(t, 1.0, rows[1].Y)
}

func TestExportSurfaceParquet_WithoutMixture(t *testing.T) {
	points, err := DecodeScoredGrid(strings.NewReader(twoByTwoGrid))
	require.NoError(t, err)
	s, err := Reshape(points)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "surface.parquet")
	require.NoError(t, ExportSurfaceParquet(s, nil, out))

	rows := readSurfaceRows(t, out)
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Nil(t, r.Mixture)
		assert.Nil(t, r.Difference)
	}
}

func TestExportSurfaceParquet_ShapeMismatch(t *testing.T) {
	points, err := DecodeScoredGrid(strings.NewReader(twoByTwoGrid))
	require.NoError(t, err)
	s, err := Reshape(points)
	require.NoError(t, err)

	err = ExportSurfaceParquet(s, [][]float64{{1}}, filepath.Join(t.TempDir(), "x.parquet"))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
