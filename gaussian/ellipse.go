package gaussian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultConfidenceScale is the number of standard deviations covered by
// each semi-axis of a covariance ellipse.
const DefaultConfidenceScale = 2.0

// ErrNotSymmetric is returned when a covariance matrix is not symmetric.
var ErrNotSymmetric = errors.New("covariance matrix is not symmetric")

// symTol is the absolute tolerance used when comparing off-diagonal entries.
const symTol = 1e-9

// Ellipse describes a covariance ellipse centered on a component mean.
// Width is the full length of the major axis, Height the minor one, and
// Angle the counter-clockwise rotation of the major axis in degrees.
type Ellipse struct {
	Center [2]float64
	Width  float64
	Height float64
	Angle  float64
}

// EllipseFromCovariance derives an ellipse from a 2x2 covariance matrix
// using its eigendecomposition. Axis lengths are 2*scale*sqrt(eigenvalue).
//
// A singular matrix yields a zero-length axis rather than an error. For an
// isotropic matrix every direction is an eigenvector and Angle is 0.
func EllipseFromCovariance(cov [2][2]float64, scale float64) (Ellipse, error) {
	for i := range 2 {
		for j := range 2 {
			if math.IsNaN(cov[i][j]) || math.IsInf(cov[i][j], 0) {
				return Ellipse{}, fmt.Errorf("covariance entry [%d][%d] is not finite", i, j)
			}
		}
	}
	if math.Abs(cov[0][1]-cov[1][0]) > symTol {
		return Ellipse{}, fmt.Errorf("%w: %v != %v", ErrNotSymmetric, cov[0][1], cov[1][0])
	}
	if scale <= 0 {
		scale = DefaultConfidenceScale
	}

	sym := mat.NewSymDense(2, []float64{cov[0][0], cov[0][1], cov[0][1], cov[1][1]})
	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return Ellipse{}, fmt.Errorf("eigendecomposition of covariance %v failed", cov)
	}
	// Values are in ascending order, so the major axis is the last one.
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	minor, major := clampZero(vals[0]), clampZero(vals[1])

	angle := 0.0
	if major-minor > symTol*math.Max(1, major) {
		angle = normalizeAngle(math.Atan2(vecs.At(1, 1), vecs.At(0, 1)) * 180 / math.Pi)
	}

	return Ellipse{
		Width:  2 * scale * math.Sqrt(major),
		Height: 2 * scale * math.Sqrt(minor),
		Angle:  angle,
	}, nil
}

// Outline returns n points on the ellipse boundary, counter-clockwise,
// starting at the positive end of the major axis.
func (e Ellipse) Outline(n int) [][2]float64 {
	if n < 3 {
		n = 3
	}
	a, b := e.Width/2, e.Height/2
	theta := e.Angle * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	pts := make([][2]float64, n)
	for i := range n {
		t := 2 * math.Pi * float64(i) / float64(n)
		x, y := a*math.Cos(t), b*math.Sin(t)
		pts[i] = [2]float64{
			e.Center[0] + x*cos - y*sin,
			e.Center[1] + x*sin + y*cos,
		}
	}
	return pts
}

// clampZero absorbs tiny negative eigenvalues produced by rounding on
// positive semi-definite input.
func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// normalizeAngle maps an axis direction in degrees onto (-90, 90].
func normalizeAngle(deg float64) float64 {
	for deg > 90 {
		deg -= 180
	}
	for deg <= -90 {
		deg += 180
	}
	return deg
}
