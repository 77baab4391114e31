package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrParamsIncomplete is returned when only some of the three mixture
// parameter files are given.
var ErrParamsIncomplete = errors.New("centers, covariances and weights must be given together")

// ParamPaths locates the three files describing a Gaussian mixture.
type ParamPaths struct {
	Means       string
	Covariances string
	Weights     string
}

// IsZero reports whether no path is set.
func (p ParamPaths) IsZero() bool {
	return p.Means == "" && p.Covariances == "" && p.Weights == ""
}

// Validate checks that the paths are either all set or all empty.
func (p ParamPaths) Validate() error {
	if p.IsZero() || (p.Means != "" && p.Covariances != "" && p.Weights != "") {
		return nil
	}
	return fmt.Errorf("%w (centers=%q covariances=%q weights=%q)", ErrParamsIncomplete, p.Means, p.Covariances, p.Weights)
}

// FallbackPaths returns the conventional parameter dump locations for a test
// class and method: <dir>/<class>-<method>-{means,covariances,weights}.json.
func FallbackPaths(dir, testClass, testMethod string) ParamPaths {
	prefix := filepath.Join(dir, fmt.Sprintf("%s-%s", testClass, testMethod))
	return ParamPaths{
		Means:       prefix + "-means.json",
		Covariances: prefix + "-covariances.json",
		Weights:     prefix + "-weights.json",
	}
}

// MixtureParams holds raw mixture parameters, or records why they are not
// available. Weights are as dumped; normalization happens downstream.
type MixtureParams struct {
	Present     bool
	Means       [][2]float64
	Covariances [][2][2]float64
	Weights     []float64
	// Source is the means file the parameters were read from.
	Source string
	// Reason is set when Present is false.
	Reason error
}

// Absent returns a MixtureParams in the unavailable state.
func Absent(reason error) *MixtureParams {
	return &MixtureParams{Reason: reason}
}

// clusterParamJSON mirrors one entry of a parameter dump: {"data": ...}.
type clusterParamJSON struct {
	Data json.RawMessage `json:"data"`
}

// LoadClusterParameters reads a parameter dump and returns the raw "data"
// payload of every entry.
func LoadClusterParameters(path string) ([]json.RawMessage, error) {
	var entries []clusterParamJSON
	if err := readJSON(path, &entries); err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		if len(e.Data) == 0 {
			return nil, fmt.Errorf("%s: entry %d has no data", path, i)
		}
		out[i] = e.Data
	}
	return out, nil
}

// LoadMeans reads a dump of 2-vectors.
func LoadMeans(path string) ([][2]float64, error) {
	raw, err := LoadClusterParameters(path)
	if err != nil {
		return nil, err
	}
	means := make([][2]float64, len(raw))
	for i, r := range raw {
		var v []float64
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}
		if len(v) != 2 {
			return nil, fmt.Errorf("%s: entry %d: expected 2-vector, got length %d", path, i, len(v))
		}
		means[i] = [2]float64{v[0], v[1]}
	}
	return means, nil
}

// LoadCovariances reads a dump of 2x2 matrices.
func LoadCovariances(path string) ([][2][2]float64, error) {
	raw, err := LoadClusterParameters(path)
	if err != nil {
		return nil, err
	}
	covs := make([][2][2]float64, len(raw))
	for i, r := range raw {
		var m [][]float64
		if err := json.Unmarshal(r, &m); err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}
		if len(m) != 2 || len(m[0]) != 2 || len(m[1]) != 2 {
			return nil, fmt.Errorf("%s: entry %d: expected 2x2 matrix", path, i)
		}
		covs[i] = [2][2]float64{{m[0][0], m[0][1]}, {m[1][0], m[1][1]}}
	}
	return covs, nil
}

// LoadWeights reads a flat list of numbers.
func LoadWeights(path string) ([]float64, error) {
	var w []float64
	if err := readJSON(path, &w); err != nil {
		return nil, err
	}
	return w, nil
}

// LoadMixtureParams reads all three parameter files. Any failure, including
// components counts that disagree, is returned as an error.
func LoadMixtureParams(paths ParamPaths) (*MixtureParams, error) {
	if paths.IsZero() {
		return nil, errors.New("no mixture parameter paths given")
	}
	if err := paths.Validate(); err != nil {
		return nil, err
	}

	means, err := LoadMeans(paths.Means)
	if err != nil {
		return nil, err
	}
	covs, err := LoadCovariances(paths.Covariances)
	if err != nil {
		return nil, err
	}
	weights, err := LoadWeights(paths.Weights)
	if err != nil {
		return nil, err
	}
	if len(means) != len(covs) || len(means) != len(weights) {
		return nil, fmt.Errorf("%w: %d means, %d covariances, %d weights",
			ErrShapeMismatch, len(means), len(covs), len(weights))
	}

	return &MixtureParams{
		Present:     true,
		Means:       means,
		Covariances: covs,
		Weights:     weights,
		Source:      paths.Means,
	}, nil
}

// ResolveMixtureParams tries each candidate in order and returns the first
// parameter set that loads and that accept, when non-nil, does not reject.
// When none qualifies, the result is Absent with the joined errors as its
// Reason.
func ResolveMixtureParams(accept func(*MixtureParams) error, candidates ...ParamPaths) *MixtureParams {
	var errs []error
	for _, c := range candidates {
		if c.IsZero() {
			continue
		}
		p, err := LoadMixtureParams(c)
		if err == nil && accept != nil {
			if err = accept(p); err != nil {
				err = fmt.Errorf("%s: %w", p.Source, err)
			}
		}
		if err == nil {
			return p
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Absent(errors.New("no mixture parameter files configured"))
	}
	return Absent(errors.Join(errs...))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
