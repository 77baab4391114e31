package render

import (
	"fmt"
	"strings"
)

// Mode selects which scalar field is contoured.
type Mode string

const (
	// DensityMode contours the raw scores.
	DensityMode Mode = "density"
	// ComponentsMode contours the reconstructed mixture density.
	ComponentsMode Mode = "components"
	// DifferenceMode contours raw scores minus mixture density.
	DifferenceMode Mode = "difference"
	// NoopMode draws no contours, only overlays.
	NoopMode Mode = "noop"
)

// Modes lists the valid modes in help order.
var Modes = []Mode{DensityMode, ComponentsMode, DifferenceMode, NoopMode}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid plot mode %q (choose from %s)", s, ModeNames())
}

// ModeNames returns the valid modes as a comma-separated string.
func ModeNames() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// NeedsMixture reports whether the mode contours the mixture density.
func (m Mode) NeedsMixture() bool {
	return m == ComponentsMode || m == DifferenceMode
}

func (m Mode) String() string { return string(m) }
