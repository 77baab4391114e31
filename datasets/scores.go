// Package datasets loads the scored grid, mixture parameter and CSV inputs
// and shapes them into plottable surfaces.
package datasets

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ScoredPoint is one lattice point of a scored grid dump.
type ScoredPoint struct {
	X     float64
	Y     float64
	Score float64
}

// scoredPointJSON mirrors one entry of the producer's grid dump:
// {"metrics": {"data": [x, y]}, "score": s}.
type scoredPointJSON struct {
	Metrics struct {
		Data []float64 `json:"data"`
	} `json:"metrics"`
	Score *float64 `json:"score"`
}

// LoadScoredGrid reads a scored grid dump from path. Point order is kept
// as-is since it defines the lattice layout.
func LoadScoredGrid(path string) ([]ScoredPoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scored grid %s: %w", path, err)
	}
	defer file.Close()

	points, err := DecodeScoredGrid(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read scored grid %s: %w", path, err)
	}
	return points, nil
}

// DecodeScoredGrid decodes a scored grid dump from r.
func DecodeScoredGrid(r io.Reader) ([]ScoredPoint, error) {
	var raw []scoredPointJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	points := make([]ScoredPoint, len(raw))
	for i, p := range raw {
		if len(p.Metrics.Data) != 2 {
			return nil, fmt.Errorf("point %d: expected 2 coordinates, got %d", i, len(p.Metrics.Data))
		}
		if p.Score == nil {
			return nil, fmt.Errorf("point %d: missing score", i)
		}
		points[i] = ScoredPoint{
			X:     p.Metrics.Data[0],
			Y:     p.Metrics.Data[1],
			Score: *p.Score,
		}
	}
	return points, nil
}

// CapScores returns a copy of points with every score clipped to at most
// limit. A nil limit returns the points unchanged.
func CapScores(points []ScoredPoint, limit *float64) []ScoredPoint {
	if limit == nil {
		return points
	}
	out := make([]ScoredPoint, len(points))
	for i, p := range points {
		p.Score = min(p.Score, *limit)
		out[i] = p
	}
	return out
}
