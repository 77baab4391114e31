package render

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/contours/datasets"
	"github.com/Noofbiz/contours/gaussian"
)

// lattice builds an n x n x-major surface over [-3, 3]^2 scored by a
// standard normal density.
func lattice(t *testing.T, n int) *datasets.Surface {
	t.Helper()
	points := make([]datasets.ScoredPoint, 0, n*n)
	for i := range n {
		for j := range n {
			x := -3 + 6*float64(i)/float64(n-1)
			y := -3 + 6*float64(j)/float64(n-1)
			points = append(points, datasets.ScoredPoint{X: x, Y: y, Score: math.Exp(-(x*x+y*y)/2) / (2 * math.Pi)})
		}
	}
	s, err := datasets.Reshape(points)
	require.NoError(t, err)
	return s
}

func twoComponents(t *testing.T) *gaussian.Mixture {
	t.Helper()
	m, err := gaussian.NewMixture(
		[][2]float64{{-1, 0}, {1.5, 1}},
		[][2][2]float64{{{1, 0.3}, {0.3, 0.5}}, {{0.4, 0}, {0, 0.4}}},
		[]float64{2, 1},
	)
	require.NoError(t, err)
	return m
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(" " + strings.ToUpper(string(m)) + " ")
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("heatmap")
	assert.Error(t, err)

	assert.True(t, ComponentsMode.NeedsMixture())
	assert.True(t, DifferenceMode.NeedsMixture())
	assert.False(t, DensityMode.NeedsMixture())
	assert.False(t, NoopMode.NeedsMixture())
}

func TestField(t *testing.T) {
	s := lattice(t, 3)
	mixZ := [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}

	z, err := Field(DensityMode, s, nil)
	require.NoError(t, err)
	assert.Equal(t, s.Z, z)

	z, err = Field(ComponentsMode, s, mixZ)
	require.NoError(t, err)
	assert.Equal(t, mixZ, z)

	z, err = Field(DifferenceMode, s, mixZ)
	require.NoError(t, err)
	assert.InDelta(t, s.Z[1][1]-1, z[1][1], 1e-12)

	z, err = Field(NoopMode, s, nil)
	require.NoError(t, err)
	assert.Nil(t, z)

	_, err = Field(ComponentsMode, s, nil)
	assert.ErrorIs(t, err, ErrMixtureUnavailable)
	_, err = Field(DifferenceMode, s, nil)
	assert.ErrorIs(t, err, ErrMixtureUnavailable)
}

func TestLevels(t *testing.T) {
	levels := Levels(0, 10, 4)
	assert.InDeltaSlice(t, []float64{2, 4, 6, 8}, levels, 1e-12)

	assert.Len(t, Levels(0, 1, 0), DefaultLevels)
	assert.Nil(t, Levels(3, 3, 5))
	assert.Nil(t, Levels(math.Inf(1), math.Inf(-1), 5))
}

func TestOutputPath(t *testing.T) {
	path, show := OutputPath("", "target/scores/grid.json", "")
	assert.True(t, show)
	assert.Empty(t, path)

	path, show = OutputPath(InferSavefig, "target/scores/3gaussians-7k-grid.json", "")
	assert.False(t, show)
	assert.Equal(t, filepath.Join(DefaultPlotsDir, "3gaussians-7k-grid.png"), path)

	path, _ = OutputPath(InferSavefig, "/tmp/a.b.json", "out")
	assert.Equal(t, filepath.Join("out", "a.png"), path)

	// A leading dot leaves nothing before the first dot; keep the whole name.
	path, _ = OutputPath(InferSavefig, "scores/.grid.json", "out")
	assert.Equal(t, filepath.Join("out", ".grid.json.png"), path)

	path, show = OutputPath("figs/explicit.png", "grid.json", "")
	assert.False(t, show)
	assert.Equal(t, "figs/explicit.png", path)
}

func TestBuild_RequiresMixture(t *testing.T) {
	s := lattice(t, 5)

	_, err := Build(Scene{Surface: s}, NoLimits(ComponentsMode))
	assert.ErrorIs(t, err, ErrMixtureUnavailable)

	opts := NoLimits(DifferenceMode)
	opts.AllowDegraded = true
	p, err := Build(Scene{Surface: s}, opts)
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = Build(Scene{}, NoLimits(DensityMode))
	assert.Error(t, err)
}

func TestBuild_Limits(t *testing.T) {
	opts := NoLimits(DensityMode)
	opts.XMin, opts.YMax = -1, 2
	p, err := Build(Scene{Surface: lattice(t, 5)}, opts)
	require.NoError(t, err)

	assert.Equal(t, -1.0, p.X.Min)
	assert.Equal(t, 2.0, p.Y.Max)
	assert.InDelta(t, 3.0, p.X.Max, 1e-9)
	assert.InDelta(t, -3.0, p.Y.Min, 1e-9)
}

func TestBuildAndSave_AllModes(t *testing.T) {
	s := lattice(t, 15)
	m := twoComponents(t)
	mixZ, err := m.Density(s.X, s.Y)
	require.NoError(t, err)
	ellipses, err := m.Ellipses(gaussian.DefaultConfidenceScale)
	require.NoError(t, err)

	hist, err := datasets.NewHistogram2D([]float64{-1, 0, 0.5, 1, 2}, []float64{0, 0, 1, -1, 2}, 4)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, mode := range Modes {
		scene := Scene{Surface: s, MixtureZ: mixZ, Overlay: m, Ellipses: ellipses, Histogram: hist}
		opts := NoLimits(mode)
		opts.Title = string(mode)

		p, err := Build(scene, opts)
		require.NoError(t, err, "mode %s", mode)

		out := filepath.Join(dir, "nested", string(mode)+".png")
		require.NoError(t, SavePNG(p, out, 72), "mode %s", mode)

		f, err := os.Open(out)
		require.NoError(t, err)
		img, err := png.Decode(f)
		_ = f.Close()
		require.NoError(t, err, "mode %s", mode)
		// 8x6 inches at 72 DPI.
		assert.Equal(t, 576, img.Bounds().Dx())
		assert.Equal(t, 432, img.Bounds().Dy())
	}
}

func TestPrintComponents(t *testing.T) {
	color.NoColor = true
	m := twoComponents(t)
	ellipses, err := m.Ellipses(gaussian.DefaultConfidenceScale)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintComponents(&buf, m, ellipses))
	out := buf.String()

	assert.Contains(t, out, "0.6667")
	assert.Contains(t, out, "0.3333")
	assert.Contains(t, out, "0.4000")
	assert.Contains(t, out, "1.5000")

	assert.Error(t, PrintComponents(&buf, m, ellipses[:1]))
}
