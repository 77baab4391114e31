package datasets

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// SurfaceRow is one lattice point of an exported surface.
type SurfaceRow struct {
	// Row and Col locate the point in the reshaped matrices.
	Row int32 `parquet:"row,snappy"`
	Col int32 `parquet:"col,snappy"`

	X     float64 `parquet:"x,snappy"`
	Y     float64 `parquet:"y,snappy"`
	Score float64 `parquet:"score,snappy"`

	// Mixture is the reconstructed mixture density (null when the mixture
	// parameters were unavailable).
	Mixture *float64 `parquet:"mixture,optional,snappy"`

	// Difference is Score - Mixture (null when Mixture is null).
	Difference *float64 `parquet:"difference,optional,snappy"`
}

// SurfaceRows flattens a surface, and optionally its mixture density, back
// into row-major records. The score, mixture and difference fields travel
// as one stacked tensor.
func SurfaceRows(s *Surface, mixture [][]float64) ([]SurfaceRow, error) {
	fields := [][][]float64{s.Z}
	if mixture != nil {
		diff, err := Difference(s.Z, mixture)
		if err != nil {
			return nil, err
		}
		fields = append(fields, mixture, diff)
	}
	stacked, err := s.Stack(fields...)
	if err != nil {
		return nil, err
	}
	fields, err = Unstack(stacked)
	if err != nil {
		return nil, err
	}

	rows := make([]SurfaceRow, 0, s.Size*s.Size)
	for i := range s.Size {
		for j := range s.Size {
			r := SurfaceRow{
				Row:   int32(i),
				Col:   int32(j),
				X:     s.X[i][j],
				Y:     s.Y[i][j],
				Score: fields[0][i][j],
			}
			if len(fields) == 3 {
				m, d := fields[1][i][j], fields[2][i][j]
				r.Mixture = &m
				r.Difference = &d
			}
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// ExportSurfaceParquet writes the surface to outputPath as Parquet, one
// record per lattice point. mixture may be nil.
func ExportSurfaceParquet(s *Surface, mixture [][]float64, outputPath string) error {
	rows, err := SurfaceRows(s, mixture)
	if err != nil {
		return err
	}
	if err := ensureParentDir(outputPath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[SurfaceRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}
