package acquire

import (
	"time"

	"github.com/scopekit/acquire/internal/domain"
)

// Well-known axis names. Any other name declares a custom positioning axis.
const (
	AxisTime     = domain.AxisTime
	AxisPosition = domain.AxisPosition
	AxisChannel  = domain.AxisChannel
	AxisZ        = domain.AxisZ
)

// AxisValue is a single entry on an axis: a label for discrete axes
// (channel names) or a number for positional axes.
type AxisValue struct {
	Label  string
	Number float64
}

// Numbers builds axis values from numeric targets.
func Numbers(values ...float64) []AxisValue {
	out := make([]AxisValue, len(values))
	for i, v := range values {
		out[i] = AxisValue{Number: v}
	}
	return out
}

// Labels builds axis values from discrete labels.
func Labels(values ...string) []AxisValue {
	out := make([]AxisValue, len(values))
	for i, v := range values {
		out[i] = AxisValue{Label: v}
	}
	return out
}

// Axis declares one dimension of an acquisition. Axis order in a Spec
// defines iteration nesting: the first axis varies slowest, so expensive
// transitions (stage moves) should come before fast ones (channels).
type Axis struct {
	Name string

	// Relative treats each value's number as an offset accumulated from
	// the previous resolved target instead of an absolute position.
	Relative bool

	Values []AxisValue
}

// Spec is the declarative description of a multi-dimensional acquisition.
// It is validated on Start before any hardware action.
type Spec struct {
	Axes     []Axis
	Camera   string
	Exposure time.Duration
}

// toDomain converts the public spec to the internal representation.
func (s Spec) toDomain() domain.AcquisitionSpec {
	axes := make([]domain.AxisSpec, len(s.Axes))
	for i, axis := range s.Axes {
		policy := domain.StepAbsolute
		if axis.Relative {
			policy = domain.StepRelative
		}
		values := make([]domain.AxisValue, len(axis.Values))
		for j, v := range axis.Values {
			values[j] = domain.AxisValue{Label: v.Label, Number: v.Number}
		}
		axes[i] = domain.AxisSpec{Name: axis.Name, Policy: policy, Values: values}
	}
	return domain.AcquisitionSpec{
		Axes: axes,
		Capture: domain.CaptureAction{
			Camera:   s.Camera,
			Exposure: s.Exposure,
		},
	}
}

// Point is the resolved position of one axis within a frame coordinate.
type Point struct {
	Axis  string
	Index int
	Value string
}

// Coordinate is a resolved coordinate tuple in declared axis order.
type Coordinate []Point

// String returns a compact tuple form such as "(0,DAPI)".
func (c Coordinate) String() string {
	d := make(domain.Coordinate, len(c))
	for i, p := range c {
		d[i] = domain.AxisPoint{Axis: p.Axis, Index: p.Index, Value: domain.AxisValue{Label: p.Value}}
	}
	return d.String()
}

// Frame is a captured image as delivered to event handlers and the live
// view. Pixels reference the engine's immutable buffer and must not be
// modified.
type Frame struct {
	Seq       uint64
	Coord     Coordinate
	Pixels    []byte
	Width     int
	Height    int
	Timestamp time.Time
}

// convertCoord maps the internal coordinate to its public view.
func convertCoord(c domain.Coordinate) Coordinate {
	out := make(Coordinate, len(c))
	for i, p := range c {
		out[i] = Point{Axis: p.Axis, Index: p.Index, Value: p.Value.Display()}
	}
	return out
}

// convertFrame maps the internal frame to its public view.
func convertFrame(f *domain.Frame) Frame {
	return Frame{
		Seq:       f.Seq,
		Coord:     convertCoord(f.Coord),
		Pixels:    f.Pixels,
		Width:     f.Width,
		Height:    f.Height,
		Timestamp: f.Timestamp,
	}
}
