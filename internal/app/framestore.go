package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

// FrameStoreConfig configures buffering and the write retry policy.
type FrameStoreConfig struct {
	// QueueCapacity bounds the hand-off queue between dispatcher and write
	// worker. A Put against a full queue blocks; this is the single
	// deliberate backpressure point of the engine.
	QueueCapacity int

	// WriteRetries is the number of attempts per frame before the failure
	// is reported as a storage error.
	WriteRetries int

	// RetryInitial and RetryMax bound the backoff between write attempts.
	RetryInitial time.Duration
	RetryMax     time.Duration

	// HaltOnError makes the first storage failure fatal to the run.
	HaltOnError bool
}

// StoreEmitter receives persistence results from the write worker.
type StoreEmitter interface {
	OnFrameStored(frame *domain.Frame)
	OnStoreError(err *domain.StoreError)
}

// FrameStore buffers captured frames in a bounded queue and persists them
// through a FrameWriter on its own worker goroutine, decoupling storage
// latency from command dispatch.
type FrameStore struct {
	cfg     FrameStoreConfig
	writer  ports.FrameWriter
	logger  ports.Logger
	emitter StoreEmitter

	queue   chan *domain.Frame
	done    chan struct{}
	fatal   chan error
	written atomic.Uint64
}

// NewFrameStore creates a frame store over the given writer.
func NewFrameStore(cfg FrameStoreConfig, writer ports.FrameWriter, logger ports.Logger, emitter StoreEmitter) *FrameStore {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 8
	}
	if cfg.WriteRetries <= 0 {
		cfg.WriteRetries = 3
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = DefaultRetryInitial
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = DefaultRetryMax
	}
	return &FrameStore{
		cfg:    cfg,
		writer: writer,
		logger: logger,

		emitter: emitter,
		queue:   make(chan *domain.Frame, cfg.QueueCapacity),
		done:    make(chan struct{}),
		fatal:   make(chan error, 1),
	}
}

// Start writes the run's sidecar metadata and launches the write worker.
// It must be called before the first Put.
func (s *FrameStore) Start(ctx context.Context, spec domain.AcquisitionSpec) error {
	if err := s.writer.Begin(ctx, spec, time.Now()); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

// Put hands one frame to the store. It blocks only while the queue is full,
// applying backpressure to the caller; frames are never dropped silently.
func (s *FrameStore) Put(ctx context.Context, frame *domain.Frame) error {
	select {
	case s.queue <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fatal reports the first unrecoverable storage failure under the halt
// policy. The channel never produces more than one error per run.
func (s *FrameStore) Fatal() <-chan error {
	return s.fatal
}

// Written returns the number of frames that reached durable storage.
func (s *FrameStore) Written() uint64 {
	return s.written.Load()
}

// Close stops intake, waits for queued frames to drain and seals the run's
// metadata. Every frame accepted by Put is either durable or was reported
// as a storage error by the time Close returns.
func (s *FrameStore) Close(ctx context.Context, summary ports.RunSummary) error {
	close(s.queue)

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	summary.FramesWritten = s.written.Load()
	return s.writer.Finalize(ctx, summary)
}

// run is the write worker loop. It keeps draining after a fatal report so
// frames already captured still get a persistence attempt.
func (s *FrameStore) run(ctx context.Context) {
	defer close(s.done)

	bo := newBackoff(s.cfg.RetryInitial, s.cfg.RetryMax)
	for frame := range s.queue {
		if err := s.writeFrame(ctx, frame, bo); err != nil {
			serr := &domain.StoreError{Seq: frame.Seq, Coord: frame.Coord, Err: err}
			s.logger.Error("frame write failed",
				ports.Uint64("seq", frame.Seq),
				ports.String("coord", frame.Coord.String()),
				ports.Err(err),
			)
			if s.emitter != nil {
				s.emitter.OnStoreError(serr)
			}
			if s.cfg.HaltOnError {
				select {
				case s.fatal <- serr:
				default:
				}
			}
			continue
		}

		s.written.Add(1)
		s.logger.Debug("frame stored",
			ports.Uint64("seq", frame.Seq),
			ports.String("coord", frame.Coord.String()),
			ports.Int("bytes", len(frame.Pixels)),
		)
		if s.emitter != nil {
			s.emitter.OnFrameStored(frame)
		}
	}
}

// writeFrame attempts one frame with bounded retries.
func (s *FrameStore) writeFrame(ctx context.Context, frame *domain.Frame, bo *backoff) error {
	bo.Reset()

	var err error
	for attempt := 1; attempt <= s.cfg.WriteRetries; attempt++ {
		err = s.writer.Write(ctx, frame)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < s.cfg.WriteRetries {
			s.logger.Warn("frame write retry",
				ports.Uint64("seq", frame.Seq),
				ports.Int("attempt", attempt),
				ports.Err(err),
			)
			if werr := bo.Wait(ctx); werr != nil {
				return err
			}
		}
	}
	return err
}
