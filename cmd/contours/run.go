package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Noofbiz/contours/config"
	"github.com/Noofbiz/contours/datasets"
	"github.com/Noofbiz/contours/gaussian"
	"github.com/Noofbiz/contours/render"
)

// run executes one plotting pass: load, reshape, evaluate, draw, emit.
func run(cfg *config.Config, stdout io.Writer) error {
	points, err := datasets.LoadScoredGrid(cfg.ScoredGrid)
	if err != nil {
		return err
	}
	surface, err := datasets.Reshape(datasets.CapScores(points, cfg.ScoreCap))
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.ScoredGrid, err)
	}
	log.Info().
		Str("grid", cfg.ScoredGrid).
		Int("points", len(points)).
		Int("size", surface.Size).
		Msg("loaded scored grid")

	scene := render.Scene{Surface: surface}

	if !cfg.Overlay.IsZero() {
		overlay, ellipses, err := loadOverlay(cfg)
		if err != nil {
			return err
		}
		scene.Overlay, scene.Ellipses = overlay, ellipses
		if err := render.PrintComponents(stdout, overlay, ellipses); err != nil {
			return fmt.Errorf("failed to print components: %w", err)
		}
	}

	scene.MixtureZ = mixtureDensity(cfg, surface)

	if cfg.HasHistogram() {
		hist, err := loadHistogram(cfg)
		if err != nil {
			return err
		}
		scene.Histogram = hist
	}

	p, err := render.Build(scene, cfg.RenderOptions(title(cfg)))
	if err != nil {
		return err
	}

	if cfg.ExportParquet != "" {
		if err := datasets.ExportSurfaceParquet(surface, scene.MixtureZ, cfg.ExportParquet); err != nil {
			return fmt.Errorf("failed to export surface: %w", err)
		}
		log.Info().Str("path", cfg.ExportParquet).Msg("exported surface")
	}

	path, show := render.OutputPath(cfg.Savefig, cfg.ScoredGrid, cfg.PlotsDir)
	if show {
		path, err := render.Show(p, cfg.DPI)
		if path == "" {
			return err
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not open image viewer")
			return nil
		}
		log.Info().Str("path", path).Msg("showing figure")
		return nil
	}

	log.Info().Str("path", path).Int("dpi", cfg.DPI).Msg("saving figure")
	return render.SavePNG(p, path, cfg.DPI)
}

// loadOverlay reads the explicitly requested mixture parameters. Unlike the
// fallback density parameters, these were asked for, so failures are fatal.
func loadOverlay(cfg *config.Config) (*gaussian.Mixture, []gaussian.Ellipse, error) {
	params, err := datasets.LoadMixtureParams(cfg.Overlay)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load overlay parameters: %w", err)
	}
	m, err := gaussian.NewMixture(params.Means, params.Covariances, params.Weights)
	if err != nil {
		return nil, nil, fmt.Errorf("overlay mixture from %s: %w", params.Source, err)
	}
	ellipses, err := m.Ellipses(cfg.ConfidenceScale)
	if err != nil {
		return nil, nil, fmt.Errorf("overlay mixture from %s: %w", params.Source, err)
	}
	log.Debug().Int("components", m.Len()).Floats64("display", m.Display).Msg("loaded overlay components")
	return m, ellipses, nil
}

// mixtureDensity evaluates the fallback mixture over the surface, falling
// back to the overlay parameters when the fallback files are missing or do
// not define a density. It returns nil, after reporting why, when no usable
// mixture exists.
func mixtureDensity(cfg *config.Config, s *datasets.Surface) [][]float64 {
	var (
		z     [][]float64
		count int
	)
	params := datasets.ResolveMixtureParams(func(p *datasets.MixtureParams) error {
		m, err := gaussian.NewMixture(p.Means, p.Covariances, p.Weights)
		if err != nil {
			return err
		}
		if z, err = m.Density(s.X, s.Y); err != nil {
			return err
		}
		count = m.Len()
		return nil
	}, cfg.Fallback(), cfg.Overlay)
	if !params.Present {
		reportAbsent(cfg.Mode, params.Reason)
		return nil
	}
	log.Info().Str("source", params.Source).Int("components", count).Msg("evaluated mixture density")
	return z
}

func reportAbsent(mode render.Mode, reason error) {
	ev := log.Info()
	if mode.NeedsMixture() {
		ev = log.Warn()
	}
	ev.Err(reason).Str("mode", mode.String()).Msg("mixture parameters unavailable")
}

func loadHistogram(cfg *config.Config) (*datasets.Histogram2D, error) {
	cols, err := datasets.LoadColumns(cfg.CSV, cfg.HistX, cfg.HistY)
	if err != nil {
		return nil, err
	}
	if cols.Skipped > 0 {
		log.Warn().Int("rows", cols.Skipped).Str("csv", cfg.CSV).Msg("skipped rows with unparsable histogram values")
	}
	hist, err := datasets.NewHistogram2D(cols.X, cols.Y, cfg.HistogramBins)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.CSV, err)
	}
	return hist, nil
}

func title(cfg *config.Config) string {
	return fmt.Sprintf("%s: %s", cfg.Mode, filepath.Base(cfg.ScoredGrid))
}
