package acquire

import (
	"github.com/scopekit/acquire/internal/app"
)

// RunState is the lifecycle state of the controller.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StatePaused
	StateCancelling
	StateErrored
	StateCompleted
)

// String returns a human-readable representation of the state.
func (s RunState) String() string {
	return convertToInternal(s).String()
}

// StateChangeEvent reports a run-state transition.
type StateChangeEvent struct {
	Previous RunState
	Current  RunState
	Reason   string
}

// FrameEvent reports a captured frame, emitted in sequence order.
type FrameEvent struct {
	Frame Frame
}

// EventFailedEvent reports a sequence event whose devices failed to settle
// or whose capture failed. Under the halt policy it precedes the Errored
// transition.
type EventFailedEvent struct {
	EventIndex int
	Coord      Coordinate
	Err        error
}

// StorageErrorEvent reports a frame that could not be persisted. Frames
// already written remain valid.
type StorageErrorEvent struct {
	Seq   uint64
	Coord Coordinate
	Err   error
}

// EventHandler receives notifications from a running acquisition.
// Callbacks are invoked synchronously from engine goroutines and must not
// block; hand heavy work to your own goroutine.
type EventHandler interface {
	OnStateChange(e StateChangeEvent)
	OnFrame(e FrameEvent)
	OnEventFailed(e EventFailedEvent)
	OnStorageError(e StorageErrorEvent)
}

func convertState(s app.RunState) RunState {
	switch s {
	case app.StateIdle:
		return StateIdle
	case app.StateRunning:
		return StateRunning
	case app.StatePaused:
		return StatePaused
	case app.StateCancelling:
		return StateCancelling
	case app.StateErrored:
		return StateErrored
	case app.StateCompleted:
		return StateCompleted
	default:
		return StateIdle
	}
}

func convertToInternal(s RunState) app.RunState {
	switch s {
	case StateIdle:
		return app.StateIdle
	case StateRunning:
		return app.StateRunning
	case StatePaused:
		return app.StatePaused
	case StateCancelling:
		return app.StateCancelling
	case StateErrored:
		return app.StateErrored
	case StateCompleted:
		return app.StateCompleted
	default:
		return app.StateIdle
	}
}
