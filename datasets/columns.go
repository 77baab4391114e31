package datasets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Columns holds two numeric columns read from a CSV file. Rows where either
// value failed to parse are dropped and counted in Skipped.
type Columns struct {
	XName   string
	YName   string
	X       []float64
	Y       []float64
	Skipped int
}

// LoadColumns reads the named columns from a CSV file with a header row.
// Column names are matched case-insensitively after trimming.
func LoadColumns(path, xName, yName string) (*Columns, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer file.Close()

	cols, err := ReadColumns(file, xName, yName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cols, nil
}

// ReadColumns is LoadColumns over an arbitrary reader.
func ReadColumns(r io.Reader, xName, yName string) (*Columns, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colIndex := headerIndex(header)

	xi, ok := colIndex[normalizeColumn(xName)]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in CSV", xName)
	}
	yi, ok := colIndex[normalizeColumn(yName)]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in CSV", yName)
	}

	cols := &Columns{XName: xName, YName: yName}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if xi >= len(record) || yi >= len(record) {
			cols.Skipped++
			continue
		}
		x, errX := parseFloat(record[xi])
		y, errY := parseFloat(record[yi])
		if errX != nil || errY != nil {
			cols.Skipped++
			continue
		}
		cols.X = append(cols.X, x)
		cols.Y = append(cols.Y, y)
	}
	return cols, nil
}

// Histogram2D is a bins x bins count histogram over a rectangular range.
// Counts[i][j] is the number of samples in x bin i and y bin j.
type Histogram2D struct {
	Bins   int
	XEdges []float64
	YEdges []float64
	Counts [][]float64
}

// NewHistogram2D bins paired samples into bins x bins cells spanning their
// range. Samples on the upper edge fall in the last bin.
func NewHistogram2D(xs, ys []float64, bins int) (*Histogram2D, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values, %d y values", ErrShapeMismatch, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, errors.New("no samples to bin")
	}

	xlo, xhi := extent(xs)
	ylo, yhi := extent(ys)
	h := &Histogram2D{
		Bins:   bins,
		XEdges: edges(xlo, xhi, bins),
		YEdges: edges(ylo, yhi, bins),
		Counts: make([][]float64, bins),
	}
	for i := range h.Counts {
		h.Counts[i] = make([]float64, bins)
	}
	for k := range xs {
		i := binOf(xs[k], h.XEdges)
		j := binOf(ys[k], h.YEdges)
		h.Counts[i][j]++
	}
	return h, nil
}

// Total returns the number of binned samples.
func (h *Histogram2D) Total() float64 {
	var t float64
	for _, row := range h.Counts {
		for _, c := range row {
			t += c
		}
	}
	return t
}

// Dims returns the number of columns and rows.
func (h *Histogram2D) Dims() (c, r int) { return h.Bins, h.Bins }

// X returns the center of x bin c.
func (h *Histogram2D) X(c int) float64 { return (h.XEdges[c] + h.XEdges[c+1]) / 2 }

// Y returns the center of y bin r.
func (h *Histogram2D) Y(r int) float64 { return (h.YEdges[r] + h.YEdges[r+1]) / 2 }

// Z returns the count in x bin c and y bin r.
func (h *Histogram2D) Z(c, r int) float64 { return h.Counts[c][r] }

func extent(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	return lo, hi
}

func edges(lo, hi float64, bins int) []float64 {
	e := make([]float64, bins+1)
	step := (hi - lo) / float64(bins)
	for i := range e {
		e[i] = lo + step*float64(i)
	}
	e[bins] = hi
	return e
}

func binOf(v float64, e []float64) int {
	bins := len(e) - 1
	i := int((v - e[0]) / (e[bins] - e[0]) * float64(bins))
	return max(0, min(i, bins-1))
}
