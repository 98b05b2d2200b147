package app

import (
	"context"
	"sync"
	"time"

	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

// DispatcherConfig holds per-device-class command timeouts and the failure
// policy for a run. Stage moves settle slower than filter or exposure
// changes, so each command class carries its own deadline.
type DispatcherConfig struct {
	StageTimeout    time.Duration
	FilterTimeout   time.Duration
	ExposureTimeout time.Duration
	CaptureTimeout  time.Duration

	// HaltOnError stops the run on the first failed event. When false,
	// failed events are reported and dispatch skips to the next event.
	HaltOnError bool
}

// DispatchEmitter receives per-event results from the dispatcher.
type DispatchEmitter interface {
	OnFrame(frame *domain.Frame)
	OnEventFailed(err *domain.EventError)
}

// RunResult summarizes a finished dispatch loop.
type RunResult struct {
	FramesEmitted uint64
	EventsFailed  int
	Cancelled     bool
}

// Dispatcher drives planned events against the device gateway, one event at
// a time. Positioning commands within an event are issued concurrently and
// awaited together; frames are emitted in strictly increasing sequence
// order regardless of completion arrival order.
type Dispatcher struct {
	cfg     DispatcherConfig
	gateway ports.DeviceGateway
	store   *FrameStore
	live    *LiveView
	logger  ports.Logger
	emitter DispatchEmitter

	mu      sync.Mutex
	paused  bool
	resumeC chan struct{}
	stop    bool

	nextSeq uint64
}

// NewDispatcher creates a dispatcher over the given collaborators.
func NewDispatcher(cfg DispatcherConfig, gateway ports.DeviceGateway, store *FrameStore, live *LiveView, logger ports.Logger, emitter DispatchEmitter) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		gateway: gateway,
		store:   store,
		live:    live,
		logger:  logger,
		emitter: emitter,
	}
}

// Pause defers issuance of the next event. In-flight commands of the
// current event are not aborted and settle normally.
func (d *Dispatcher) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		d.paused = true
		d.resumeC = make(chan struct{})
	}
}

// Resume lifts a pause.
func (d *Dispatcher) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unpauseLocked()
}

// RequestStop asks the dispatcher to stop after the current event settles.
// A paused dispatcher is woken so it can observe the stop.
func (d *Dispatcher) RequestStop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stop = true
	d.unpauseLocked()
}

func (d *Dispatcher) unpauseLocked() {
	if d.paused {
		d.paused = false
		close(d.resumeC)
	}
}

func (d *Dispatcher) stopRequested() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop
}

// waitIfPaused blocks between events while the dispatcher is paused.
func (d *Dispatcher) waitIfPaused(ctx context.Context) error {
	for {
		d.mu.Lock()
		if !d.paused {
			d.mu.Unlock()
			return nil
		}
		resume := d.resumeC
		d.mu.Unlock()

		select {
		case <-resume:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run consumes the plan to exhaustion, until a stop request settles, or
// until an unrecoverable error. A cooperative stop is not an error: the
// result carries Cancelled=true and err is nil. Context cancellation is the
// forced-abort path and interrupts waits immediately.
func (d *Dispatcher) Run(ctx context.Context, plan *Plan) (RunResult, error) {
	var result RunResult
	plan.Reset()

	for {
		if d.stopRequested() {
			result.Cancelled = true
			return result, nil
		}
		if err := d.waitIfPaused(ctx); err != nil {
			result.Cancelled = true
			return result, nil
		}
		if d.stopRequested() {
			result.Cancelled = true
			return result, nil
		}

		// Storage failures surface between events under the halt policy.
		select {
		case err := <-d.store.Fatal():
			return result, err
		default:
		}

		ev, ok := plan.Next()
		if !ok {
			return result, nil
		}

		if err := d.runEvent(ctx, ev, &result); err != nil {
			evErr, isEvent := err.(*domain.EventError)
			if !isEvent {
				if ctx.Err() != nil {
					result.Cancelled = true
					return result, nil
				}
				return result, err
			}

			d.logger.Error("event failed",
				ports.Int("event", evErr.EventIndex),
				ports.String("coord", evErr.Coord.String()),
				ports.Err(evErr),
			)
			if d.emitter != nil {
				d.emitter.OnEventFailed(evErr)
			}
			if d.cfg.HaltOnError {
				return result, evErr
			}
			result.EventsFailed++
		}
	}
}

// runEvent positions all devices for the event's coordinate, captures, and
// hands the frame off. The capture is skipped when positioning fails: an
// image out of position is scientifically invalid.
func (d *Dispatcher) runEvent(ctx context.Context, ev domain.SequenceEvent, result *RunResult) error {
	if _, err := d.issueAndWait(ctx, ev, ev.Positioning); err != nil {
		return err
	}

	comps, err := d.issueAndWait(ctx, ev, []domain.Command{ev.Capture})
	if err != nil {
		return err
	}
	comp := comps[0]

	frame := &domain.Frame{
		Seq:       d.nextSeq,
		Coord:     ev.Coord,
		Pixels:    comp.Pixels,
		Width:     comp.Width,
		Height:    comp.Height,
		Timestamp: time.Now(),
	}
	d.nextSeq++

	// Hand-off order: the bounded store first (may block for backpressure),
	// then the never-blocking live view.
	if err := d.store.Put(ctx, frame); err != nil {
		return err
	}
	d.live.Push(frame)
	result.FramesEmitted++

	d.logger.Debug("frame captured",
		ports.Uint64("seq", frame.Seq),
		ports.String("coord", frame.Coord.String()),
	)
	if d.emitter != nil {
		d.emitter.OnFrame(frame)
	}
	return nil
}

// pendingCmd tracks one outstanding command awaiting completion.
type pendingCmd struct {
	cmd      domain.Command
	deadline time.Time
}

// issueAndWait issues all commands, then waits until every one of them has
// settled or timed out. Any failure or timeout aggregates into an
// EventError after the remaining outstanding commands settle, so the
// hardware is never left mid-command by this path.
func (d *Dispatcher) issueAndWait(ctx context.Context, ev domain.SequenceEvent, cmds []domain.Command) ([]ports.Completion, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	// Buffered to the command count: late completions after a timeout can
	// still be delivered without blocking the gateway's goroutine.
	comps := make(chan ports.Completion, len(cmds))
	pending := make(map[ports.CommandToken]pendingCmd, len(cmds))
	var causes []error

	for _, cmd := range cmds {
		token, err := d.gateway.Issue(ctx, cmd)
		if err != nil {
			causes = append(causes, &domain.CommandError{Command: cmd, Reason: err.Error()})
			// Do not issue the rest; wait out what is already in flight.
			break
		}
		d.gateway.Subscribe(token, func(c ports.Completion) {
			comps <- c
		})
		pending[token] = pendingCmd{
			cmd:      cmd,
			deadline: time.Now().Add(d.timeoutFor(cmd)),
		}
	}

	collected := make([]ports.Completion, 0, len(pending))
	for len(pending) > 0 {
		earliest := time.Time{}
		for _, p := range pending {
			if earliest.IsZero() || p.deadline.Before(earliest) {
				earliest = p.deadline
			}
		}

		select {
		case c := <-comps:
			p, ok := pending[c.Token]
			if !ok {
				// Late completion for a command already timed out.
				continue
			}
			delete(pending, c.Token)
			if c.Status == ports.CompletionFailure {
				causes = append(causes, &domain.CommandError{
					Token:   string(c.Token),
					Command: p.cmd,
					Reason:  c.Reason,
				})
			} else {
				collected = append(collected, c)
			}

		case <-time.After(time.Until(earliest)):
			now := time.Now()
			for token, p := range pending {
				if p.deadline.After(now) {
					continue
				}
				delete(pending, token)
				causes = append(causes, &domain.CommandError{
					Token:   string(token),
					Command: p.cmd,
					Reason:  "no completion before deadline",
					Timeout: true,
				})
			}

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(causes) > 0 {
		return nil, &domain.EventError{EventIndex: ev.Index, Coord: ev.Coord, Causes: causes}
	}
	return collected, nil
}

// timeoutFor derives the completion deadline from the command's device
// class. Captures additionally cover the programmed exposure.
func (d *Dispatcher) timeoutFor(cmd domain.Command) time.Duration {
	switch cmd.Kind {
	case domain.CmdStageMove:
		return d.cfg.StageTimeout
	case domain.CmdFilterSet:
		return d.cfg.FilterTimeout
	case domain.CmdExposureSet:
		return d.cfg.ExposureTimeout
	default:
		return d.cfg.CaptureTimeout + cmd.Exposure
	}
}
