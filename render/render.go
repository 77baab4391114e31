// Package render draws score surfaces, mixture densities and their overlays
// with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Noofbiz/contours/datasets"
	"github.com/Noofbiz/contours/gaussian"
)

// ErrMixtureUnavailable is returned when a mode needs the mixture density
// but no mixture parameters could be loaded.
var ErrMixtureUnavailable = errors.New("mixture parameters unavailable")

// DefaultLevels is the number of contour lines drawn when unset.
const DefaultLevels = 10

// ellipseSegments is the number of polygon vertices per ellipse.
const ellipseSegments = 72

// Options control how a Scene is drawn.
type Options struct {
	Mode   Mode
	Title  string
	Levels int

	// Axis limits; NaN leaves the bound to autoscaling.
	XMin, XMax, YMin, YMax float64

	// AllowDegraded draws no contours, instead of failing, when the mode
	// needs a mixture that is not available.
	AllowDegraded bool
}

// NoLimits returns Options with every axis limit unset.
func NoLimits(mode Mode) Options {
	nan := math.NaN()
	return Options{Mode: mode, Levels: DefaultLevels, XMin: nan, XMax: nan, YMin: nan, YMax: nan}
}

// Scene is everything that can appear on one figure.
type Scene struct {
	Surface *datasets.Surface

	// MixtureZ is the mixture density over Surface; nil when the mixture
	// parameters are absent.
	MixtureZ [][]float64

	// Overlay components drawn as ellipses and center markers.
	Overlay  *gaussian.Mixture
	Ellipses []gaussian.Ellipse

	Histogram *datasets.Histogram2D
}

// Field picks the scalar field contoured by mode. It returns nil for
// NoopMode, and ErrMixtureUnavailable when the mode needs a missing mixture.
func Field(mode Mode, s *datasets.Surface, mixtureZ [][]float64) ([][]float64, error) {
	switch mode {
	case DensityMode:
		return s.Z, nil
	case ComponentsMode:
		if mixtureZ == nil {
			return nil, fmt.Errorf("%s mode: %w", mode, ErrMixtureUnavailable)
		}
		return mixtureZ, nil
	case DifferenceMode:
		if mixtureZ == nil {
			return nil, fmt.Errorf("%s mode: %w", mode, ErrMixtureUnavailable)
		}
		return datasets.Difference(s.Z, mixtureZ)
	case NoopMode:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown plot mode %q", mode)
	}
}

// Build assembles the figure for a scene: histogram first, then ellipses,
// contours and center markers on top.
func Build(scene Scene, opts Options) (*plot.Plot, error) {
	if scene.Surface == nil {
		return nil, errors.New("scene has no surface")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	if scene.Histogram != nil {
		p.Add(histogramPlotter(scene.Histogram))
	}

	if scene.Overlay != nil {
		if err := addOverlay(p, scene.Overlay, scene.Ellipses); err != nil {
			return nil, err
		}
	}

	field, err := Field(opts.Mode, scene.Surface, scene.MixtureZ)
	switch {
	case errors.Is(err, ErrMixtureUnavailable) && opts.AllowDegraded:
		log.Warn().Str("mode", opts.Mode.String()).Msg("mixture parameters unavailable, drawing without contours")
	case err != nil:
		return nil, err
	case field != nil:
		if err := addContours(p, scene.Surface, field, opts.Levels); err != nil {
			return nil, err
		}
	}

	applyLimits(p, scene.Surface, opts)
	return p, nil
}

func addContours(p *plot.Plot, s *datasets.Surface, field [][]float64, n int) error {
	grid, err := s.Grid(field)
	if err != nil {
		return err
	}
	lo, hi := grid.Range()
	levels := Levels(lo, hi, n)
	if len(levels) == 0 {
		log.Warn().Float64("min", lo).Float64("max", hi).Msg("field is flat, no contours to draw")
		return nil
	}
	pal := palette.Rainbow(len(levels), palette.Blue, palette.Red, 1, 1, 1)
	c := plotter.NewContour(grid, levels, pal)
	p.Add(c)
	return nil
}

// Levels returns n contour levels evenly spaced strictly inside (lo, hi).
// A flat or non-finite range yields no levels.
func Levels(lo, hi float64, n int) []float64 {
	if n <= 0 {
		n = DefaultLevels
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) || hi <= lo {
		return nil
	}
	levels := make([]float64, n)
	step := (hi - lo) / float64(n+1)
	for i := range levels {
		levels[i] = lo + step*float64(i+1)
	}
	return levels
}

func histogramPlotter(h *datasets.Histogram2D) *plotter.HeatMap {
	hm := plotter.NewHeatMap(h, palette.Heat(12, 0.6))
	// Empty cells fall below Min and stay transparent.
	hm.Min = 0.5
	if hm.Max < 1 {
		hm.Max = 1
	}
	return hm
}

func addOverlay(p *plot.Plot, m *gaussian.Mixture, ellipses []gaussian.Ellipse) error {
	if len(ellipses) != m.Len() {
		return fmt.Errorf("%d ellipses for %d components", len(ellipses), m.Len())
	}

	for i, e := range ellipses {
		outline := e.Outline(ellipseSegments)
		xys := make(plotter.XYs, len(outline))
		for k, pt := range outline {
			xys[k] = plotter.XY{X: pt[0], Y: pt[1]}
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return fmt.Errorf("ellipse %d: %w", i, err)
		}
		poly.Color = color.NRGBA{R: 20, G: 80, B: 200, A: alpha(m.Display[i])}
		poly.LineStyle.Color = color.NRGBA{R: 20, G: 80, B: 200, A: 220}
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)
	}

	centers := make(plotter.XYs, m.Len())
	for i, c := range m.Components {
		centers[i] = plotter.XY{X: c.Mean[0], Y: c.Mean[1]}
	}
	sc, err := plotter.NewScatter(centers)
	if err != nil {
		return err
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  color.RGBA{R: 200, G: 30, B: 30, A: 230},
			Radius: vg.Points(1.5 + 6*m.Display[i]),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(sc)
	p.Legend.Add("centers", sc)
	return nil
}

// alpha maps a display weight in [0, 0.4] onto an 8-bit opacity.
func alpha(w float64) uint8 {
	return uint8(math.Round(255 * math.Max(0, math.Min(1, w))))
}

// applyLimits frames the plot on the lattice bounds, overridden by any
// limit set in opts.
func applyLimits(p *plot.Plot, s *datasets.Surface, opts Options) {
	xmin, xmax, ymin, ymax := s.Bounds()
	if xmin < xmax {
		p.X.Min, p.X.Max = xmin, xmax
	}
	if ymin < ymax {
		p.Y.Min, p.Y.Max = ymin, ymax
	}
	if !math.IsNaN(opts.XMin) {
		p.X.Min = opts.XMin
	}
	if !math.IsNaN(opts.XMax) {
		p.X.Max = opts.XMax
	}
	if !math.IsNaN(opts.YMin) {
		p.Y.Min = opts.YMin
	}
	if !math.IsNaN(opts.YMax) {
		p.Y.Max = opts.YMax
	}
}
