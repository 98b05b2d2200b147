package domain

import "strconv"

// Well-known axis names. Any other name is treated as a custom numeric axis.
const (
	AxisTime     = "time"
	AxisPosition = "position"
	AxisChannel  = "channel"
	AxisZ        = "z"
)

// StepPolicy controls how an axis value is translated into an absolute
// device target.
type StepPolicy int

const (
	// StepAbsolute uses each value's number directly as the device target.
	StepAbsolute StepPolicy = iota

	// StepRelative treats each value's number as an offset from the
	// previously resolved target on the same axis.
	StepRelative
)

// String returns a human-readable representation of the step policy.
func (p StepPolicy) String() string {
	switch p {
	case StepAbsolute:
		return "absolute"
	case StepRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// AxisValue is a single entry on an axis. Label identifies discrete values
// (channel names, position presets); Number carries the numeric target or
// offset for positional axes. Purely numeric axes leave Label empty.
type AxisValue struct {
	Label  string
	Number float64
}

// Display returns the value as shown in coordinates and storage keys:
// the label if present, otherwise the formatted number.
func (v AxisValue) Display() string {
	if v.Label != "" {
		return v.Label
	}
	return strconv.FormatFloat(v.Number, 'g', -1, 64)
}

// AxisSpec declares one independently varying dimension of an acquisition.
// Values must be non-empty and unique within the axis.
type AxisSpec struct {
	Name   string
	Policy StepPolicy
	Values []AxisValue
}
