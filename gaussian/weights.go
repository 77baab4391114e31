package gaussian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxDisplayWeight is the largest display weight handed to the renderer;
// it becomes the opacity of the heaviest component's ellipse.
const MaxDisplayWeight = 0.4

var (
	// ErrZeroWeights is returned when the weights cannot be normalized.
	ErrZeroWeights = errors.New("all mixture weights are zero")
	// ErrNoWeights is returned for an empty weight list.
	ErrNoWeights = errors.New("no mixture weights")
)

// NormalizeWeights turns raw, non-negative component weights into
// probability weights that sum to 1, plus display weights linearly rescaled
// so that the heaviest component gets MaxDisplayWeight. Display weights are
// for opacity and marker size only and never feed density evaluation.
func NormalizeWeights(raw []float64) (prob, display []float64, err error) {
	if len(raw) == 0 {
		return nil, nil, ErrNoWeights
	}
	for i, w := range raw {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, nil, fmt.Errorf("weight %d is not finite: %v", i, w)
		}
		if w < 0 {
			return nil, nil, fmt.Errorf("weight %d is negative: %v", i, w)
		}
	}

	total := floats.Sum(raw)
	if total == 0 {
		return nil, nil, ErrZeroWeights
	}
	prob = make([]float64, len(raw))
	copy(prob, raw)
	floats.Scale(1/total, prob)

	peak := floats.Max(prob)
	if peak == 0 {
		return nil, nil, ErrZeroWeights
	}
	display = make([]float64, len(prob))
	copy(display, prob)
	floats.Scale(MaxDisplayWeight/peak, display)

	return prob, display, nil
}
