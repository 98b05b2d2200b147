package domain

import "time"

// Frame is one captured image tagged with its provenance. Frames are
// immutable after creation: the dispatcher hands the same instance to the
// frame store and the live view, and neither may modify Pixels.
type Frame struct {
	// Seq is the monotonically increasing sequence number within a run,
	// matching planned event order.
	Seq uint64

	// Coord is the coordinate the frame was captured at.
	Coord Coordinate

	// Pixels is the raw pixel buffer as delivered by the camera.
	Pixels []byte

	// Width and Height describe the pixel buffer geometry.
	Width  int
	Height int

	// Timestamp is the capture completion time.
	Timestamp time.Time
}
