package domain

import (
	"fmt"
	"time"
)

// CaptureAction describes the capture performed at every resolved coordinate.
type CaptureAction struct {
	// Camera is the device triggered for the capture.
	Camera string

	// Exposure is the exposure time applied before each capture.
	Exposure time.Duration
}

// AcquisitionSpec is the declarative description of a multi-dimensional
// acquisition. Axis order defines iteration nesting: the first axis varies
// slowest. The spec is constructed once before a run and never mutated
// during execution.
type AcquisitionSpec struct {
	Axes    []AxisSpec
	Capture CaptureAction
}

// Validate checks the structural invariants of the spec. All violations are
// reported as errors wrapping ErrInvalidSpec, before any hardware action.
func (s AcquisitionSpec) Validate() error {
	if len(s.Axes) == 0 {
		return fmt.Errorf("%w: no axes declared", ErrInvalidSpec)
	}
	if s.Capture.Camera == "" {
		return fmt.Errorf("%w: capture camera is required", ErrInvalidSpec)
	}
	if s.Capture.Exposure <= 0 {
		return fmt.Errorf("%w: capture exposure must be positive", ErrInvalidSpec)
	}

	names := make(map[string]bool, len(s.Axes))
	for _, axis := range s.Axes {
		if axis.Name == "" {
			return fmt.Errorf("%w: axis with empty name", ErrInvalidSpec)
		}
		if names[axis.Name] {
			return fmt.Errorf("%w: duplicate axis %q", ErrInvalidSpec, axis.Name)
		}
		names[axis.Name] = true

		if len(axis.Values) == 0 {
			return fmt.Errorf("%w: axis %q has no values", ErrInvalidSpec, axis.Name)
		}
		// Relative axes accumulate offsets, so uniqueness applies to the
		// resolved running targets rather than the declared offsets.
		if axis.Policy == StepRelative {
			var acc float64
			seen := make(map[float64]bool, len(axis.Values))
			for _, v := range axis.Values {
				acc += v.Number
				if seen[acc] {
					return fmt.Errorf("%w: axis %q resolves duplicate target %g",
						ErrInvalidSpec, axis.Name, acc)
				}
				seen[acc] = true
			}
		} else {
			seen := make(map[AxisValue]bool, len(axis.Values))
			for _, v := range axis.Values {
				if seen[v] {
					return fmt.Errorf("%w: axis %q has duplicate value %s",
						ErrInvalidSpec, axis.Name, v.Display())
				}
				seen[v] = true
			}
		}
	}

	return nil
}
