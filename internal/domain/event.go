package domain

import "strings"

// AxisPoint is the resolved position of one axis within a coordinate.
type AxisPoint struct {
	// Axis is the axis name from the spec.
	Axis string

	// Index is the position within the axis's declared values.
	Index int

	// Value is the declared axis value at Index.
	Value AxisValue

	// Target is the absolute device target after step-policy resolution.
	Target float64
}

// Coordinate is a fully resolved coordinate tuple, one point per axis in
// declared axis order (outermost first).
type Coordinate []AxisPoint

// Key returns a stable storage key such as "time=0/channel=DAPI".
func (c Coordinate) Key() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.Axis + "=" + p.Value.Display()
	}
	return strings.Join(parts, "/")
}

// String returns a compact tuple form such as "(0,DAPI)".
func (c Coordinate) String() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.Value.Display()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// SequenceEvent is one planned capture: a resolved coordinate plus the
// device commands required to reach it. Events are created by the planner,
// consumed exactly once by the dispatcher, and immutable after creation.
type SequenceEvent struct {
	// Index is the event's position in planned order, starting at 0.
	Index int

	// Coord is the resolved coordinate tuple.
	Coord Coordinate

	// Positioning holds the commands that bring every device to Coord.
	// They target independent devices and may be issued concurrently.
	Positioning []Command

	// Capture triggers the camera once Positioning has settled.
	Capture Command
}
