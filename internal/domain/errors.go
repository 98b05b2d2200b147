package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the public API; check with errors.Is.
var (
	// ErrInvalidSpec is wrapped by all spec validation failures. It is
	// reported before any hardware action and is fully recoverable.
	ErrInvalidSpec = errors.New("acquire: invalid acquisition spec")

	// ErrAlreadyRunning is returned when Start() is called on an active run.
	ErrAlreadyRunning = errors.New("acquire: acquisition already running")

	// ErrNotRunning is returned when a control call requires an active run.
	ErrNotRunning = errors.New("acquire: no acquisition running")

	// ErrShutdownTimeout is returned when a run fails to settle in time.
	ErrShutdownTimeout = errors.New("acquire: shutdown timeout")

	// ErrInvalidConfig is returned when controller configuration validation
	// fails.
	ErrInvalidConfig = errors.New("acquire: invalid configuration")
)

// CommandError reports failure or timeout of a single device command.
type CommandError struct {
	// Token identifies the issued command at the gateway, if it was issued.
	Token string

	// Command is the instruction that failed.
	Command Command

	// Reason is the failure description reported by the gateway.
	Reason string

	// Timeout is true when no completion arrived within the deadline.
	Timeout bool
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("command %s on %s timed out", e.Command.Kind, e.Command.Device)
	}
	return fmt.Sprintf("command %s on %s failed: %s", e.Command.Kind, e.Command.Device, e.Reason)
}

// EventError aggregates the command failures of one sequence event. The
// event's capture was skipped because its coordinate could not be reached
// or the capture itself failed.
type EventError struct {
	EventIndex int
	Coord      Coordinate
	Causes     []error
}

// Error implements the error interface.
func (e *EventError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("event %d at %s failed: %s",
		e.EventIndex, e.Coord, strings.Join(msgs, "; "))
}

// Unwrap exposes the underlying command errors for errors.Is/As.
func (e *EventError) Unwrap() []error {
	return e.Causes
}

// StoreError reports a persistence failure for one frame. It does not
// invalidate frames that were already written.
type StoreError struct {
	Seq   uint64
	Coord Coordinate
	Err   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store frame %d at %s: %v", e.Seq, e.Coord, e.Err)
}

// Unwrap exposes the underlying write error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
