// Package gaussian evaluates bivariate Gaussian mixtures and derives the
// confidence ellipses drawn for their components.
package gaussian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

var (
	// ErrShapeMismatch is returned when coordinate matrices disagree in shape.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrNotPositiveDefinite is returned for a covariance that cannot define
	// a density.
	ErrNotPositiveDefinite = errors.New("covariance is not positive definite")
)

// Component is one bivariate Gaussian of a mixture. Weight is the
// probability-normalized mixing weight.
type Component struct {
	Mean       [2]float64
	Covariance [2][2]float64
	Weight     float64
}

// Mixture is a weighted sum of bivariate Gaussians. Display holds the
// rescaled weights used for drawing and is index-aligned with Components.
type Mixture struct {
	Components []Component
	Display    []float64

	// normals holds one factorized distribution per component, nil where
	// the covariance is degenerate; errs says why.
	normals []*distmv.Normal
	errs    []error
}

// NewMixture validates the component parameters and normalizes the raw
// weights. All three slices must have the same length.
func NewMixture(means [][2]float64, covs [][2][2]float64, raw []float64) (*Mixture, error) {
	if len(means) != len(covs) || len(means) != len(raw) {
		return nil, fmt.Errorf("%w: %d means, %d covariances, %d weights",
			ErrShapeMismatch, len(means), len(covs), len(raw))
	}
	prob, display, err := NormalizeWeights(raw)
	if err != nil {
		return nil, err
	}

	m := &Mixture{
		Components: make([]Component, len(means)),
		Display:    display,
	}
	for i := range means {
		m.Components[i] = Component{
			Mean:       means[i],
			Covariance: covs[i],
			Weight:     prob[i],
		}
	}
	m.prepare()
	return m, nil
}

// prepare factorizes every component covariance once. Degenerate components
// are kept so their ellipses can still be drawn.
func (m *Mixture) prepare() {
	m.normals = make([]*distmv.Normal, len(m.Components))
	m.errs = make([]error, len(m.Components))
	for i, c := range m.Components {
		m.normals[i], m.errs[i] = c.Normal()
	}
}

// Len returns the number of components.
func (m *Mixture) Len() int { return len(m.Components) }

// Ellipses returns the covariance ellipse of every component, centered on
// its mean.
func (m *Mixture) Ellipses(scale float64) ([]Ellipse, error) {
	out := make([]Ellipse, len(m.Components))
	for i, c := range m.Components {
		e, err := EllipseFromCovariance(c.Covariance, scale)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		e.Center = c.Mean
		out[i] = e
	}
	return out, nil
}

// Validate reports the first component whose covariance cannot define a
// density.
func (m *Mixture) Validate() error {
	if len(m.normals) != len(m.Components) {
		m.prepare()
	}
	for i, err := range m.errs {
		if err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
	}
	return nil
}

// DensityAt evaluates the mixture density at a single point. Degenerate
// components contribute nothing.
func (m *Mixture) DensityAt(x, y float64) float64 {
	if len(m.normals) != len(m.Components) {
		m.prepare()
	}
	pt := []float64{x, y}
	var z float64
	for i, n := range m.normals {
		if n == nil {
			continue
		}
		z += m.Components[i].Weight * n.Prob(pt)
	}
	return z
}

// Density evaluates the mixture pointwise over coordinate matrices X and Y,
// which must share a shape. The result has that shape too.
func (m *Mixture) Density(X, Y [][]float64) ([][]float64, error) {
	if len(X) != len(Y) {
		return nil, fmt.Errorf("%w: X has %d rows, Y has %d", ErrShapeMismatch, len(X), len(Y))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != len(Y[i]) {
			return nil, fmt.Errorf("%w: row %d has %d x and %d y values", ErrShapeMismatch, i, len(X[i]), len(Y[i]))
		}
		out[i] = make([]float64, len(X[i]))
		for j := range X[i] {
			out[i][j] = m.DensityAt(X[i][j], Y[i][j])
		}
	}
	return out, nil
}

// Normal returns the component as a gonum multivariate normal. The
// off-diagonal term is taken from the upper triangle.
func (c Component) Normal() (*distmv.Normal, error) {
	vx, vy, cxy := c.Covariance[0][0], c.Covariance[1][1], c.Covariance[0][1]
	for _, v := range []float64{vx, vy, cxy, c.Mean[0], c.Mean[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite parameter in mean %v or covariance %v", c.Mean, c.Covariance)
		}
	}
	if !(vx > 0) || !(vy > 0) {
		return nil, fmt.Errorf("%w: diagonal %v and %v", ErrNotPositiveDefinite, vx, vy)
	}
	sigma := mat.NewSymDense(2, []float64{vx, cxy, cxy, vy})
	n, ok := distmv.NewNormal(c.Mean[:], sigma, nil)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, c.Covariance)
	}
	return n, nil
}
