package acquire

import (
	"github.com/scopekit/acquire/internal/ports"
)

// Logger is the structured logging interface consumed by the controller.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// FrameWriter is the chunked storage interface. The built-in filesystem
// writer is used unless a custom implementation is injected.
type FrameWriter = ports.FrameWriter

// DeviceGateway is the instrument control boundary consumed by the
// controller.
type DeviceGateway = ports.DeviceGateway

// Option configures optional behavior of the controller.
type Option func(*options)

// options holds the optional configuration for a controller instance.
type options struct {
	logger  ports.Logger
	handler EventHandler
	writer  ports.FrameWriter
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: noopLogger{},
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for acquisition events.
// Events are called synchronously from engine goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.handler = handler
	}
}

// WithFrameWriter injects a custom chunked storage backend. When set,
// Config.OutputDir is ignored.
func WithFrameWriter(writer FrameWriter) Option {
	return func(o *options) {
		o.writer = writer
	}
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
