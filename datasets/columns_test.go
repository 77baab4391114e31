package datasets

import (
	"os"
	"path/filepath"
	"testing"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

func TestLoadColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	writeCSV(t, path, "id, X ,y,label", []string{
		"1,0.5,1.5,a",
		"2,1.0,2.0,b",
		"3,bad,3.0,c",
		"4,2.0,,d",
		"5,3.0,4.0,e",
	})

	cols, err := LoadColumns(path, "x", "Y")
	if err != nil {
		t.Fatalf("LoadColumns failed: %v", err)
	}
	if len(cols.X) != 3 || len(cols.Y) != 3 {
		t.Fatalf("expected 3 valid rows, got x=%d y=%d", len(cols.X), len(cols.Y))
	}
	if cols.Skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", cols.Skipped)
	}
	if cols.X[2] != 3 || cols.Y[2] != 4 {
		t.Fatalf("unexpected last row: %v,%v", cols.X[2], cols.Y[2])
	}
}

// TestLoadColumns_MissingColumn ensures LoadColumns returns an error when a
// requested column is absent from the header.
func TestLoadColumns_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeCSV(t, path, "a,b", []string{"1,2"})

	if _, err := LoadColumns(path, "a", "c"); err == nil {
		t.Fatalf("expected error when required column missing, got nil")
	}
}

func TestHistogram2D(t *testing.T) {
	xs := []float64{0, 0.1, 0.9, 1.0, 0.5, 0.5}
	ys := []float64{0, 0.1, 0.9, 1.0, 0.2, 0.8}

	h, err := NewHistogram2D(xs, ys, 2)
	if err != nil {
		t.Fatalf("NewHistogram2D failed: %v", err)
	}
	if h.Total() != float64(len(xs)) {
		t.Fatalf("bin counts sum to %v, want %d", h.Total(), len(xs))
	}
	c, r := h.Dims()
	if c != 2 || r != 2 {
		t.Fatalf("Dims = %d,%d", c, r)
	}
	// (0,0) and (0.1,0.1) share the low/low cell; (1,1) lands in the last bin.
	if h.Z(0, 0) != 2 {
		t.Fatalf("low/low cell = %v, want 2", h.Z(0, 0))
	}
	if h.Z(1, 1) != 3 {
		t.Fatalf("high/high cell = %v, want 3", h.Z(1, 1))
	}
	if h.Z(1, 0) != 1 {
		t.Fatalf("high/low cell = %v, want 1", h.Z(1, 0))
	}
	if h.X(0) != 0.25 || h.Y(1) != 0.75 {
		t.Fatalf("unexpected bin centers: x0=%v y1=%v", h.X(0), h.Y(1))
	}
}

func TestHistogram2D_Errors(t *testing.T) {
	if _, err := NewHistogram2D([]float64{1}, []float64{1}, 0); err == nil {
		t.Fatalf("expected error for zero bins")
	}
	if _, err := NewHistogram2D([]float64{1}, nil, 2); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
	if _, err := NewHistogram2D(nil, nil, 2); err == nil {
		t.Fatalf("expected error for no samples")
	}
}

func TestHistogram2D_ConstantColumn(t *testing.T) {
	h, err := NewHistogram2D([]float64{2, 2, 2}, []float64{1, 2, 3}, 4)
	if err != nil {
		t.Fatalf("NewHistogram2D failed: %v", err)
	}
	if h.Total() != 3 {
		t.Fatalf("Total = %v, want 3", h.Total())
	}
}
