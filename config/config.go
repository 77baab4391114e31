// Package config turns the merged flag, environment and config-file input
// into a validated Config.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Noofbiz/contours/datasets"
	"github.com/Noofbiz/contours/gaussian"
	"github.com/Noofbiz/contours/render"
)

// Defaults shared by the flag definitions and viper.
const (
	DefaultTestClass     = "VariationalGMMTest"
	DefaultTestMethod    = "bivariateOkSeparatedNormalTest"
	DefaultScoresDir     = "target/scores"
	DefaultScoredGrid    = "target/scores/3gaussians-7k-grid.json"
	DefaultHistogramBins = 100
	DefaultLogLevel      = "info"
)

// RawInput is the unvalidated configuration as merged by viper. Optional
// numbers are strings so that "unset" survives the merge.
type RawInput struct {
	TestClass       string   `mapstructure:"test-class" json:"test-class"`
	TestMethod      string   `mapstructure:"test-method" json:"test-method"`
	ScoresDir       string   `mapstructure:"scores-dir" json:"scores-dir"`
	ScoredGrid      string   `mapstructure:"scored-grid" json:"scored-grid"`
	ScoreCap        string   `mapstructure:"score-cap" json:"score-cap"`
	Plot            string   `mapstructure:"plot" json:"plot"`
	Hist2D          []string `mapstructure:"hist2d" json:"hist2d"`
	HistogramBins   int      `mapstructure:"histogram-bins" json:"histogram-bins"`
	CSV             string   `mapstructure:"csv" json:"csv"`
	Centers         string   `mapstructure:"centers" json:"centers"`
	Covariances     string   `mapstructure:"covariances" json:"covariances"`
	Weights         string   `mapstructure:"weights" json:"weights"`
	Savefig         string   `mapstructure:"savefig" json:"savefig"`
	PlotsDir        string   `mapstructure:"plots-dir" json:"plots-dir"`
	DPI             int      `mapstructure:"dpi" json:"dpi"`
	Levels          int      `mapstructure:"levels" json:"levels"`
	XMin            string   `mapstructure:"xmin" json:"xmin"`
	XMax            string   `mapstructure:"xmax" json:"xmax"`
	YMin            string   `mapstructure:"ymin" json:"ymin"`
	YMax            string   `mapstructure:"ymax" json:"ymax"`
	ConfidenceScale float64  `mapstructure:"confidence-scale" json:"confidence-scale"`
	AllowDegraded   bool     `mapstructure:"allow-degraded" json:"allow-degraded"`
	ExportParquet   string   `mapstructure:"export-parquet" json:"export-parquet"`
	LogLevel        string   `mapstructure:"log-level" json:"log-level"`
}

// Config is the validated configuration of one run.
type Config struct {
	TestClass  string
	TestMethod string
	ScoresDir  string
	ScoredGrid string
	// ScoreCap is nil when scores are not capped.
	ScoreCap *float64
	Mode     render.Mode

	// HistX and HistY name the CSV columns of the histogram overlay; both
	// are empty when no histogram is drawn.
	HistX, HistY  string
	HistogramBins int
	CSV           string

	// Overlay locates the explicitly given mixture parameters drawn as
	// ellipses; zero when none were given.
	Overlay datasets.ParamPaths

	Savefig  string
	PlotsDir string
	DPI      int
	Levels   int

	// Axis limits, NaN when unset.
	XMin, XMax, YMin, YMax float64

	ConfidenceScale float64
	AllowDegraded   bool
	ExportParquet   string
	LogLevel        string
}

// Fallback returns the conventional mixture parameter paths for the
// configured test class and method.
func (c *Config) Fallback() datasets.ParamPaths {
	return datasets.FallbackPaths(c.ScoresDir, c.TestClass, c.TestMethod)
}

// HasHistogram reports whether a histogram overlay was requested.
func (c *Config) HasHistogram() bool { return c.HistX != "" }

// RenderOptions returns the renderer options for this run.
func (c *Config) RenderOptions(title string) render.Options {
	return render.Options{
		Mode:          c.Mode,
		Title:         title,
		Levels:        c.Levels,
		XMin:          c.XMin,
		XMax:          c.XMax,
		YMin:          c.YMin,
		YMax:          c.YMax,
		AllowDegraded: c.AllowDegraded,
	}
}

// Validate checks raw input and builds a Config. Every problem found is
// reported, not just the first.
func Validate(in *RawInput) (*Config, error) {
	var errs []error

	cfg := &Config{
		TestClass:       strings.TrimSpace(in.TestClass),
		TestMethod:      strings.TrimSpace(in.TestMethod),
		ScoresDir:       in.ScoresDir,
		ScoredGrid:      in.ScoredGrid,
		HistogramBins:   in.HistogramBins,
		CSV:             in.CSV,
		Overlay:         datasets.ParamPaths{Means: in.Centers, Covariances: in.Covariances, Weights: in.Weights},
		Savefig:         in.Savefig,
		PlotsDir:        in.PlotsDir,
		DPI:             in.DPI,
		Levels:          in.Levels,
		ConfidenceScale: in.ConfidenceScale,
		AllowDegraded:   in.AllowDegraded,
		ExportParquet:   in.ExportParquet,
		LogLevel:        in.LogLevel,
	}

	if cfg.ScoredGrid == "" {
		errs = append(errs, errors.New("scored-grid must be set"))
	}
	if cfg.ScoresDir == "" {
		cfg.ScoresDir = DefaultScoresDir
	}
	if cfg.TestClass == "" || cfg.TestMethod == "" {
		errs = append(errs, errors.New("test-class and test-method must be set"))
	}

	mode, err := render.ParseMode(in.Plot)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Mode = mode

	if in.ScoreCap != "" {
		v, err := parseOptionalFloat("score-cap", in.ScoreCap)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.ScoreCap = &v
		}
	}

	limits := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"xmin", in.XMin, &cfg.XMin},
		{"xmax", in.XMax, &cfg.XMax},
		{"ymin", in.YMin, &cfg.YMin},
		{"ymax", in.YMax, &cfg.YMax},
	}
	for _, l := range limits {
		*l.dst = math.NaN()
		if l.raw == "" {
			continue
		}
		v, err := parseOptionalFloat(l.name, l.raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*l.dst = v
	}
	if !math.IsNaN(cfg.XMin) && !math.IsNaN(cfg.XMax) && cfg.XMin >= cfg.XMax {
		errs = append(errs, fmt.Errorf("xmin (%v) must be below xmax (%v)", cfg.XMin, cfg.XMax))
	}
	if !math.IsNaN(cfg.YMin) && !math.IsNaN(cfg.YMax) && cfg.YMin >= cfg.YMax {
		errs = append(errs, fmt.Errorf("ymin (%v) must be below ymax (%v)", cfg.YMin, cfg.YMax))
	}

	switch len(in.Hist2D) {
	case 0:
	case 2:
		cfg.HistX, cfg.HistY = strings.TrimSpace(in.Hist2D[0]), strings.TrimSpace(in.Hist2D[1])
		if cfg.HistX == "" || cfg.HistY == "" {
			errs = append(errs, errors.New("hist2d column names must not be empty"))
		}
		if cfg.CSV == "" {
			errs = append(errs, errors.New("hist2d requires --csv"))
		}
	default:
		errs = append(errs, fmt.Errorf("hist2d takes exactly two column names, got %d", len(in.Hist2D)))
	}
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = DefaultHistogramBins
	}

	if err := cfg.Overlay.Validate(); err != nil {
		errs = append(errs, err)
	}

	if cfg.DPI <= 0 {
		cfg.DPI = render.DefaultDPI
	}
	if cfg.Levels <= 0 {
		cfg.Levels = render.DefaultLevels
	}
	if cfg.ConfidenceScale <= 0 {
		cfg.ConfidenceScale = gaussian.DefaultConfidenceScale
	}
	if cfg.PlotsDir == "" {
		cfg.PlotsDir = render.DefaultPlotsDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func parseOptionalFloat(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: must be finite", name, raw)
	}
	return v, nil
}
