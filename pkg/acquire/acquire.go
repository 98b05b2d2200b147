package acquire

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scopekit/acquire/internal/adapters/fs"
	"github.com/scopekit/acquire/internal/app"
	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

// Errors returned by the controller API; check with errors.Is.
var (
	ErrInvalidSpec     = domain.ErrInvalidSpec
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// RunResult summarizes a finished run.
type RunResult struct {
	// FramesEmitted is the number of frames captured and handed off.
	FramesEmitted uint64

	// FramesStored is the number of frames that reached durable storage.
	FramesStored uint64

	// EventsFailed counts events skipped under the skip policy.
	EventsFailed int

	// Cancelled marks a user-initiated stop; the run still completed
	// normally with partial results.
	Cancelled bool
}

// Controller orchestrates acquisitions against a device gateway: planning,
// sequential dispatch, chunked persistence and the live view. One run is
// active at a time; a finished controller can be started again.
//
// Use New() to create an instance, then Start() to begin a run.
type Controller struct {
	cfg     Config
	opts    options
	gateway ports.DeviceGateway
	logger  ports.Logger

	lifecycle *app.Lifecycle
	emitter   *emitterWrapper

	mu  sync.Mutex
	run *runHandle
}

// runHandle bundles the per-run collaborators and settlement signals.
type runHandle struct {
	dispatcher *app.Dispatcher
	store      *app.FrameStore
	live       *app.LiveView
	cancel     context.CancelFunc

	// settled closes when the dispatch loop returns; the cancel grace
	// period waits on it.
	settled chan struct{}

	// finished closes after storage is flushed and the terminal state is
	// reached.
	finished chan struct{}

	abortOnce sync.Once
	result    app.RunResult

	// err is the terminal error of the run, nil for completed and
	// cancelled runs. Written before finished closes.
	err error
}

// abort performs the idempotent hardware safety shutdown for this run.
func (r *runHandle) abort(gateway ports.DeviceGateway) {
	r.abortOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = gateway.AbortAll(ctx)
	})
}

// New creates a new controller bound to the given device gateway.
// The instance starts in StateIdle; call Start() to begin a run.
// Returns an error if the configuration is invalid.
func New(gateway DeviceGateway, cfg Config, opts ...Option) (*Controller, error) {
	if gateway == nil {
		return nil, fmt.Errorf("%w: device gateway is required", domain.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.writer == nil && cfg.OutputDir == "" {
		return nil, fmt.Errorf("%w: output dir or frame writer is required", domain.ErrInvalidConfig)
	}

	emitter := &emitterWrapper{handler: o.handler}
	c := &Controller{
		cfg:       cfg,
		opts:      o,
		gateway:   gateway,
		logger:    o.logger,
		emitter:   emitter,
		lifecycle: app.NewLifecycle(o.logger, emitter),
	}
	return c, nil
}

// Start plans the spec and begins dispatching in the background. It is
// valid from Idle and after a previous run reached Completed or Errored.
// An invalid spec is rejected here, before any hardware action, wrapping
// ErrInvalidSpec.
func (c *Controller) Start(ctx context.Context, spec Spec) error {
	dspec := spec.toDomain()
	plan, err := app.NewPlan(dspec)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	writer := c.opts.writer
	if writer == nil {
		writer = fs.NewChunkWriter(c.cfg.OutputDir, c.logger)
	}

	live := app.NewLiveView()
	store := app.NewFrameStore(app.FrameStoreConfig{
		QueueCapacity: c.cfg.QueueCapacity,
		WriteRetries:  c.cfg.WriteRetries,
		HaltOnError:   c.cfg.OnError == HaltOnError,
	}, writer, c.logger, c.emitter)

	runCtx, cancel := context.WithCancel(ctx)
	if err := store.Start(runCtx, dspec); err != nil {
		cancel()
		return err
	}

	dispatcher := app.NewDispatcher(app.DispatcherConfig{
		StageTimeout:    c.cfg.StageTimeout,
		FilterTimeout:   c.cfg.FilterTimeout,
		ExposureTimeout: c.cfg.ExposureTimeout,
		CaptureTimeout:  c.cfg.CaptureTimeout,
		HaltOnError:     c.cfg.OnError == HaltOnError,
	}, c.gateway, store, live, c.logger, c.emitter)

	run := &runHandle{
		dispatcher: dispatcher,
		store:      store,
		live:       live,
		cancel:     cancel,
		settled:    make(chan struct{}),
		finished:   make(chan struct{}),
	}

	if err := c.lifecycle.TransitionTo(app.StateRunning, "Start() called"); err != nil {
		cancel()
		closeCtx, cancelClose := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
		defer cancelClose()
		if closeErr := store.Close(closeCtx, ports.RunSummary{Errored: true, FinishedAt: time.Now()}); closeErr != nil {
			c.logger.Error("storage finalize failed", ports.Err(closeErr))
		}
		return err
	}
	c.run = run
	c.lifecycle.SetCancel(cancel)

	c.logger.Info("acquisition started",
		ports.Int("events", plan.Total()),
		ports.Int("axes", len(spec.Axes)),
	)

	c.lifecycle.AddWorker()
	go c.runLoop(runCtx, run, plan)
	return nil
}

// runLoop drives one run to a terminal state.
func (c *Controller) runLoop(ctx context.Context, run *runHandle, plan *app.Plan) {
	defer c.lifecycle.WorkerDone()
	defer close(run.finished)

	result, runErr := run.dispatcher.Run(ctx, plan)
	run.result = result
	ctxCancelled := ctx.Err() != nil
	close(run.settled)

	// A context cancel can interrupt the dispatcher mid-event with commands
	// still outstanding; unlike a cooperative stop, the event never settled,
	// so force the safety shutdown before finalizing.
	if ctxCancelled {
		run.abort(c.gateway)
	}

	// A storage failure that surfaced after the last between-events check
	// still ends the run under the halt policy.
	if runErr == nil {
		select {
		case err := <-run.store.Fatal():
			runErr = err
		default:
		}
	}

	// Drain and flush on a fresh context so frames captured before a
	// cancel or forced abort still reach durable storage.
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
	defer cancelFlush()
	closeErr := run.store.Close(flushCtx, ports.RunSummary{
		Cancelled:  result.Cancelled,
		Errored:    runErr != nil,
		FinishedAt: time.Now(),
	})
	if closeErr != nil {
		c.logger.Error("storage finalize failed", ports.Err(closeErr))
		if runErr == nil && c.cfg.OnError == HaltOnError {
			runErr = closeErr
		}
	}
	if runErr == nil {
		select {
		case err := <-run.store.Fatal():
			runErr = err
		default:
		}
	}

	run.cancel()
	run.err = runErr

	if runErr != nil {
		// Safety shutdown: no outstanding commands, no device left holding
		// a shutter or exposure.
		run.abort(c.gateway)
		_ = c.lifecycle.TransitionTo(app.StateErrored, runErr.Error())
		return
	}

	reason := "sequence finished"
	if result.Cancelled {
		reason = "cancelled"
	}
	_ = c.lifecycle.TransitionTo(app.StateCompleted, reason)
	c.logger.Info("acquisition finished",
		ports.Uint64("frames", result.FramesEmitted),
		ports.Uint64("stored", run.store.Written()),
		ports.Bool("cancelled", result.Cancelled),
	)
}

// Pause defers issuance of the next event. In-flight device commands are
// not aborted. Valid only while Running.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanPause() {
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StatePaused, "Pause() called"); err != nil {
		return err
	}
	c.run.dispatcher.Pause()
	return nil
}

// Resume lifts a pause. Valid only while Paused.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanResume() {
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateRunning, "Resume() called"); err != nil {
		return err
	}
	c.run.dispatcher.Resume()
	return nil
}

// Cancel stops the run after the current event settles; cancellation is
// cooperative and not a failure. If the hardware does not settle within the
// configured grace period, the controller escalates to a forced device
// abort. Valid from Running or Paused. Cancel returns once the dispatch
// loop has stopped.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if !c.lifecycle.CanCancel() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateCancelling, "Cancel() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	run := c.run
	c.mu.Unlock()

	run.dispatcher.RequestStop()

	select {
	case <-run.settled:
	case <-time.After(c.cfg.CancelGrace):
		c.logger.Warn("cancel grace elapsed, forcing device abort",
			ports.Duration("grace", c.cfg.CancelGrace),
		)
		run.abort(c.gateway)
		run.cancel()
		select {
		case <-run.settled:
		case <-time.After(c.cfg.ShutdownTimeout):
			return domain.ErrShutdownTimeout
		}
	}
	return nil
}

// Status returns the current run state.
// Safe to call concurrently from any goroutine.
func (c *Controller) Status() RunState {
	return convertState(c.lifecycle.State())
}

// LatestFrame returns the most recently captured frame of the current or
// last run. The second return value is false before the first capture.
func (c *Controller) LatestFrame() (Frame, bool) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil {
		return Frame{}, false
	}
	f := run.live.Latest()
	if f == nil {
		return Frame{}, false
	}
	return convertFrame(f), true
}

// FrameUpdates returns the live-view notification channel of the current
// run, or nil before the first Start. The channel coalesces bursts; read
// LatestFrame after each signal.
func (c *Controller) FrameUpdates() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return nil
	}
	return c.run.live.Updates()
}

// Result returns the summary of the last run once it reached a terminal
// state. The second return value is false while a run is still active or
// before the first run.
func (c *Controller) Result() (RunResult, bool) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil {
		return RunResult{}, false
	}
	select {
	case <-run.finished:
	default:
		return RunResult{}, false
	}
	return RunResult{
		FramesEmitted: run.result.FramesEmitted,
		FramesStored:  run.store.Written(),
		EventsFailed:  run.result.EventsFailed,
		Cancelled:     run.result.Cancelled,
	}, true
}

// Wait blocks until the active run reaches a terminal state or the timeout
// expires.
func (c *Controller) Wait(timeout time.Duration) error {
	return c.lifecycle.WaitWithTimeout(timeout)
}

// Await blocks until the current run reaches a terminal state and returns
// its summary. The returned error is the run's terminal error: nil for
// completed and cancelled runs. The context bounds the wait only;
// cancelling it does not cancel the run.
func (c *Controller) Await(ctx context.Context) (RunResult, error) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil {
		return RunResult{}, domain.ErrNotRunning
	}
	select {
	case <-run.finished:
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}

	return RunResult{
		FramesEmitted: run.result.FramesEmitted,
		FramesStored:  run.store.Written(),
		EventsFailed:  run.result.EventsFailed,
		Cancelled:     run.result.Cancelled,
	}, run.err
}

// emitterWrapper adapts the public EventHandler to the internal emitter
// interfaces. All methods are nil-safe.
type emitterWrapper struct {
	handler EventHandler
}

func (e *emitterWrapper) OnStateChange(previous, current app.RunState, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *emitterWrapper) OnFrame(frame *domain.Frame) {
	if e.handler == nil {
		return
	}
	e.handler.OnFrame(FrameEvent{Frame: convertFrame(frame)})
}

func (e *emitterWrapper) OnEventFailed(err *domain.EventError) {
	if e.handler == nil {
		return
	}
	e.handler.OnEventFailed(EventFailedEvent{
		EventIndex: err.EventIndex,
		Coord:      convertCoord(err.Coord),
		Err:        err,
	})
}

func (e *emitterWrapper) OnFrameStored(frame *domain.Frame) {}

func (e *emitterWrapper) OnStoreError(err *domain.StoreError) {
	if e.handler == nil {
		return
	}
	e.handler.OnStorageError(StorageErrorEvent{
		Seq:   err.Seq,
		Coord: convertCoord(err.Coord),
		Err:   err,
	})
}
