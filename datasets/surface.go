package datasets

import (
	"errors"
	"fmt"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

var (
	// ErrNotSquare is returned when a flat grid cannot be laid out as an
	// n x n lattice.
	ErrNotSquare = errors.New("grid point count is not a perfect square")
	// ErrShapeMismatch is returned when two fields do not share a shape.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Surface is a scored grid reshaped into size x size row-major matrices:
// X[i][j], Y[i][j] and Z[i][j] all describe flat point i*Size+j.
type Surface struct {
	Size int
	X    [][]float64
	Y    [][]float64
	Z    [][]float64
}

// Reshape lays a flat scored grid out as a square Surface. The point count
// must be a non-zero perfect square.
func Reshape(points []ScoredPoint) (*Surface, error) {
	n := len(points)
	size := int(math.Sqrt(float64(n)))
	// Correct for floating point drift on large counts.
	for size*size > n {
		size--
	}
	for (size+1)*(size+1) <= n {
		size++
	}
	if n == 0 || size*size != n {
		return nil, fmt.Errorf("%w: %d points", ErrNotSquare, n)
	}

	s := &Surface{
		Size: size,
		X:    make([][]float64, size),
		Y:    make([][]float64, size),
		Z:    make([][]float64, size),
	}
	for i := range size {
		s.X[i] = make([]float64, size)
		s.Y[i] = make([]float64, size)
		s.Z[i] = make([]float64, size)
		for j := range size {
			p := points[i*size+j]
			s.X[i][j] = p.X
			s.Y[i][j] = p.Y
			s.Z[i][j] = p.Score
		}
	}
	return s, nil
}

// Bounds returns the extent of the lattice.
func (s *Surface) Bounds() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for i := range s.X {
		for j := range s.X[i] {
			xmin = min(xmin, s.X[i][j])
			xmax = max(xmax, s.X[i][j])
			ymin = min(ymin, s.Y[i][j])
			ymax = max(ymax, s.Y[i][j])
		}
	}
	return xmin, xmax, ymin, ymax
}

// CheckShape reports whether z has the lattice's size x size shape.
func (s *Surface) CheckShape(z [][]float64) error {
	if len(z) != s.Size {
		return fmt.Errorf("%w: field has %d rows, want %d", ErrShapeMismatch, len(z), s.Size)
	}
	for i, row := range z {
		if len(row) != s.Size {
			return fmt.Errorf("%w: field row %d has %d values, want %d", ErrShapeMismatch, i, len(row), s.Size)
		}
	}
	return nil
}

// Grid adapts a field over the lattice to the column/row view used by
// contour and heat map plotters (Dims, X, Y, Z).
type Grid struct {
	s      *Surface
	z      [][]float64
	xMajor bool
}

// Grid returns a plotting view of z over the lattice. The producer writes
// points x-major, so X is constant along a matrix row; in that case plot
// columns follow matrix rows. Meshgrid-ordered input (Y constant along a
// row) is handled too.
func (s *Surface) Grid(z [][]float64) (*Grid, error) {
	if err := s.CheckShape(z); err != nil {
		return nil, err
	}
	xMajor := s.Size > 1 && s.X[0][0] == s.X[0][1]
	return &Grid{s: s, z: z, xMajor: xMajor}, nil
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (c, r int) { return g.s.Size, g.s.Size }

// X returns the x coordinate of column c.
func (g *Grid) X(c int) float64 {
	if g.xMajor {
		return g.s.X[c][0]
	}
	return g.s.X[0][c]
}

// Y returns the y coordinate of row r.
func (g *Grid) Y(r int) float64 {
	if g.xMajor {
		return g.s.Y[0][r]
	}
	return g.s.Y[r][0]
}

// Z returns the field value at column c, row r.
func (g *Grid) Z(c, r int) float64 {
	if g.xMajor {
		return g.z[c][r]
	}
	return g.z[r][c]
}

// Range returns the finite minimum and maximum of the field.
func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range g.z {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

// Stack lays fields over the lattice out as one [len(fields), Size, Size]
// float64 gomlx tensor, field k holding fields[k].
func (s *Surface) Stack(fields ...[][]float64) (*tensors.Tensor, error) {
	if len(fields) == 0 {
		return nil, errors.New("no fields to stack")
	}
	for k, z := range fields {
		if err := s.CheckShape(z); err != nil {
			return nil, fmt.Errorf("field %d: %w", k, err)
		}
	}
	return tensors.FromAnyValue(fields), nil
}

// Unstack is the inverse of Stack.
func Unstack(t *tensors.Tensor) ([][][]float64, error) {
	if dims := t.Shape().Dimensions; len(dims) != 3 || dims[1] != dims[2] {
		return nil, fmt.Errorf("%w: expected [k, n, n] field tensor, got %v", ErrShapeMismatch, dims)
	}
	fields, ok := t.Value().([][][]float64)
	if !ok {
		return nil, fmt.Errorf("%w: field tensor holds %T", ErrShapeMismatch, t.Value())
	}
	return fields, nil
}

// Difference returns a-b elementwise.
func Difference(a, b [][]float64) ([][]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d rows vs %d", ErrShapeMismatch, len(a), len(b))
	}
	out := make([][]float64, len(a))
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return nil, fmt.Errorf("%w: row %d has %d vs %d values", ErrShapeMismatch, i, len(a[i]), len(b[i]))
		}
		out[i] = make([]float64, len(a[i]))
		for j := range a[i] {
			out[i][j] = a[i][j] - b[i][j]
		}
	}
	return out, nil
}
