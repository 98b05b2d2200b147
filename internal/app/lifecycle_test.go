package app

import (
	"sync"
	"testing"
	"time"

	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockStateEmitter tracks state change events for testing.
type mockStateEmitter struct {
	mu     sync.Mutex
	events []stateChange
}

type stateChange struct {
	previous RunState
	current  RunState
	reason   string
}

func (m *mockStateEmitter) OnStateChange(previous, current RunState, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChange{previous, current, reason})
}

func (m *mockStateEmitter) Events() []stateChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChange{}, m.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", l.State())
	}
}

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{StateIdle, "Idle"},
		{StateRunning, "Running"},
		{StatePaused, "Paused"},
		{StateCancelling, "Cancelling"},
		{StateErrored, "Errored"},
		{StateCompleted, "Completed"},
		{RunState(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("RunState(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from RunState
		to   RunState
	}{
		{"idle to running", StateIdle, StateRunning},
		{"running to paused", StateRunning, StatePaused},
		{"running to cancelling", StateRunning, StateCancelling},
		{"running to errored", StateRunning, StateErrored},
		{"running to completed", StateRunning, StateCompleted},
		{"paused to running", StatePaused, StateRunning},
		{"paused to cancelling", StatePaused, StateCancelling},
		{"paused to errored", StatePaused, StateErrored},
		{"paused to completed", StatePaused, StateCompleted},
		{"cancelling to completed", StateCancelling, StateCompleted},
		{"cancelling to errored", StateCancelling, StateErrored},
		{"completed to running", StateCompleted, StateRunning},
		{"errored to running", StateErrored, StateRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != nil {
				t.Fatalf("TransitionTo() error = %v", err)
			}
			if l.State() != tt.to {
				t.Errorf("state = %v after transition, want %v", l.State(), tt.to)
			}
		})
	}
}

func TestLifecycle_TransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    RunState
		to      RunState
		wantErr error
	}{
		{"idle to paused", StateIdle, StatePaused, domain.ErrNotRunning},
		{"idle to cancelling", StateIdle, StateCancelling, domain.ErrNotRunning},
		{"idle to completed", StateIdle, StateCompleted, domain.ErrNotRunning},
		{"running to idle", StateRunning, StateIdle, domain.ErrAlreadyRunning},
		{"paused to paused", StatePaused, StatePaused, domain.ErrAlreadyRunning},
		{"paused to idle", StatePaused, StateIdle, domain.ErrAlreadyRunning},
		{"cancelling to running", StateCancelling, StateRunning, domain.ErrAlreadyRunning},
		{"cancelling to paused", StateCancelling, StatePaused, domain.ErrAlreadyRunning},
		{"completed to paused", StateCompleted, StatePaused, domain.ErrNotRunning},
		{"errored to cancelling", StateErrored, StateCancelling, domain.ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")
			if err != tt.wantErr {
				t.Errorf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}
			if l.State() != tt.from {
				t.Errorf("state = %v after rejected transition, want %v", l.State(), tt.from)
			}
		})
	}
}

func TestLifecycle_EmitsOutsideLock(t *testing.T) {
	emitter := &mockStateEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	if err := l.TransitionTo(StateRunning, "start"); err != nil {
		t.Fatalf("TransitionTo() error = %v", err)
	}
	if err := l.TransitionTo(StateCompleted, "finished"); err != nil {
		t.Fatalf("TransitionTo() error = %v", err)
	}

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].previous != StateIdle || events[0].current != StateRunning {
		t.Errorf("first event = %+v, want Idle->Running", events[0])
	}
	if events[1].current != StateCompleted || events[1].reason != "finished" {
		t.Errorf("second event = %+v, want ->Completed finished", events[1])
	}
}

func TestLifecycle_Predicates(t *testing.T) {
	tests := []struct {
		state     RunState
		canStart  bool
		canPause  bool
		canResume bool
		canCancel bool
		active    bool
	}{
		{StateIdle, true, false, false, false, false},
		{StateRunning, false, true, false, true, true},
		{StatePaused, false, false, true, true, true},
		{StateCancelling, false, false, false, false, true},
		{StateErrored, true, false, false, false, false},
		{StateCompleted, true, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.state

			if got := l.CanStart(); got != tt.canStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.canStart)
			}
			if got := l.CanPause(); got != tt.canPause {
				t.Errorf("CanPause() = %v, want %v", got, tt.canPause)
			}
			if got := l.CanResume(); got != tt.canResume {
				t.Errorf("CanResume() = %v, want %v", got, tt.canResume)
			}
			if got := l.CanCancel(); got != tt.canCancel {
				t.Errorf("CanCancel() = %v, want %v", got, tt.canCancel)
			}
			if got := l.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.AddWorker()
	go func() {
		time.Sleep(20 * time.Millisecond)
		l.WorkerDone()
	}()

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() error = %v", err)
	}
}

func TestLifecycle_WaitWithTimeout_Expires(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.AddWorker()
	defer l.WorkerDone()

	if err := l.WaitWithTimeout(20 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() error = %v, want ErrShutdownTimeout", err)
	}
}
