package app

import (
	"sync"
	"sync/atomic"

	"github.com/scopekit/acquire/internal/domain"
)

// LiveView is a single-slot latest-frame exchange between the dispatcher and
// a display consumer. Push never blocks: a frame that was not yet consumed
// is overwritten and counted as dropped. Frames cross the exchange by
// reference and must not be mutated by either side.
type LiveView struct {
	mu       sync.Mutex
	frame    *domain.Frame
	consumed bool
	drops    atomic.Uint64
	notify   chan struct{}
}

// NewLiveView creates an empty live view exchange.
func NewLiveView() *LiveView {
	return &LiveView{
		consumed: true,
		notify:   make(chan struct{}, 1),
	}
}

// Push publishes the newest frame. It always returns immediately; an
// unconsumed previous frame is silently replaced.
func (v *LiveView) Push(frame *domain.Frame) {
	v.mu.Lock()
	if v.frame != nil && !v.consumed {
		v.drops.Add(1)
	}
	v.frame = frame
	v.consumed = false
	v.mu.Unlock()

	// Coalescing notification: a pending signal already covers this push.
	select {
	case v.notify <- struct{}{}:
	default:
	}
}

// Latest returns the most recently pushed frame, or nil before the first
// push. Reading marks the slot consumed.
func (v *LiveView) Latest() *domain.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.consumed = true
	return v.frame
}

// Updates signals after pushes. The channel is 1-buffered, so bursts
// coalesce into a single wakeup; consumers read Latest after each signal.
func (v *LiveView) Updates() <-chan struct{} {
	return v.notify
}

// Drops returns the number of frames replaced before any consumer read them.
func (v *LiveView) Drops() uint64 {
	return v.drops.Load()
}
