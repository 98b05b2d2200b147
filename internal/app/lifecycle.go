package app

import (
	"context"
	"sync"
	"time"

	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for a run to settle.
const ShutdownTimeout = 30 * time.Second

// RunState is the lifecycle state of an acquisition run.
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
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateCancelling:
		return "Cancelling"
	case StateErrored:
		return "Errored"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Lifecycle manages the run-state machine for the controller. All state
// mutation goes through TransitionTo, which validates the transition and
// emits a change event outside the lock.
type Lifecycle struct {
	mu           sync.RWMutex
	state        RunState
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       ports.Logger
	eventEmitter StateEmitter
}

// StateEmitter is called when the run state changes.
type StateEmitter interface {
	OnStateChange(previous, current RunState, reason string)
}

// NewLifecycle creates a new lifecycle manager in StateIdle.
func NewLifecycle(logger ports.Logger, emitter StateEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current run state.
func (l *Lifecycle) State() RunState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState RunState, reason string) error {
	l.mu.Lock()
	oldState := l.state

	// Validate transition
	switch oldState {
	case StateIdle, StateCompleted, StateErrored:
		// Terminal and idle states only accept a fresh start.
		if newState != StateRunning {
			l.mu.Unlock()
			return domain.ErrNotRunning
		}
	case StateRunning:
		if newState != StatePaused && newState != StateCancelling &&
			newState != StateErrored && newState != StateCompleted {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	case StatePaused:
		// Completed is reachable directly: a context cancel while paused is
		// a cooperative stop, same as from Running.
		if newState != StateRunning && newState != StateCancelling &&
			newState != StateErrored && newState != StateCompleted {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	case StateCancelling:
		if newState != StateCompleted && newState != StateErrored {
			l.mu.Unlock()
			return domain.ErrAlreadyRunning
		}
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

// CanStart returns true if a new run may begin.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateIdle || l.state == StateCompleted || l.state == StateErrored
}

// CanPause returns true if Pause() is valid in the current state.
func (l *Lifecycle) CanPause() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning
}

// CanResume returns true if Resume() is valid in the current state.
func (l *Lifecycle) CanResume() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StatePaused
}

// CanCancel returns true if Cancel() is valid in the current state.
func (l *Lifecycle) CanCancel() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning || l.state == StatePaused
}

// Active returns true while a run owns hardware (any non-terminal state
// past Idle).
func (l *Lifecycle) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning || l.state == StatePaused || l.state == StateCancelling
}

// SetCancel stores the cancel function for forced shutdown.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel triggers the stored context cancellation.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the run goroutine count.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the run goroutine count.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all run goroutines to finish with a timeout.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("run did not settle in time",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
