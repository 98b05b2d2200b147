package acquire

import (
	"fmt"
	"time"

	"github.com/scopekit/acquire/internal/domain"
)

// FailurePolicy selects the run behavior when an event or frame write fails.
type FailurePolicy string

const (
	// HaltOnError stops the run on the first failure. This is the default:
	// frames captured out of position are scientifically invalid.
	HaltOnError FailurePolicy = "halt"

	// SkipOnError reports the failure and continues with the next event.
	SkipOnError FailurePolicy = "skip"
)

// Config holds the configuration for an acquisition controller.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// OutputDir is the chunk storage root for captured frames. Required
	// unless a custom frame writer is injected with WithFrameWriter.
	OutputDir string

	// Per-device-class command timeouts. Stage moves settle slower than
	// filter or exposure changes. Capture timeouts are extended by the
	// programmed exposure automatically.
	StageTimeout    time.Duration
	FilterTimeout   time.Duration
	ExposureTimeout time.Duration
	CaptureTimeout  time.Duration

	// QueueCapacity bounds the dispatcher-to-storage hand-off queue. When
	// the write path falls behind, dispatch blocks once this many frames
	// are buffered.
	QueueCapacity int

	// WriteRetries is the number of persistence attempts per frame.
	WriteRetries int

	// OnError selects halt or skip behavior for event and storage failures.
	OnError FailurePolicy

	// CancelGrace is how long Cancel waits for the current event to settle
	// before escalating to a forced device abort.
	CancelGrace time.Duration

	// ShutdownTimeout bounds the final drain and flush of a run.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set OutputDir (or inject a frame writer).
func DefaultConfig() Config {
	return Config{
		StageTimeout:    10 * time.Second,
		FilterTimeout:   2 * time.Second,
		ExposureTimeout: time.Second,
		CaptureTimeout:  5 * time.Second,
		QueueCapacity:   8,
		WriteRetries:    3,
		OnError:         HaltOnError,
		CancelGrace:     5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StageTimeout <= 0 || c.FilterTimeout <= 0 ||
		c.ExposureTimeout <= 0 || c.CaptureTimeout <= 0 {
		return fmt.Errorf("%w: command timeouts must be positive", domain.ErrInvalidConfig)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("%w: queue capacity must be positive", domain.ErrInvalidConfig)
	}
	if c.WriteRetries <= 0 {
		return fmt.Errorf("%w: write retries must be positive", domain.ErrInvalidConfig)
	}
	switch c.OnError {
	case HaltOnError, SkipOnError:
	default:
		return fmt.Errorf("%w: unknown failure policy %q", domain.ErrInvalidConfig, c.OnError)
	}
	if c.CancelGrace <= 0 {
		return fmt.Errorf("%w: cancel grace must be positive", domain.ErrInvalidConfig)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
