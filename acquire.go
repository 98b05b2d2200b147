// Package acquire provides a sequencing engine for multi-dimensional
// image acquisitions on scientific imaging hardware.
//
// Example usage:
//
//	spec := acquire.Spec{
//	    Axes: []acquire.Axis{
//	        {Name: acquire.AxisTime, Values: acquire.Numbers(0, 1, 2)},
//	        {Name: acquire.AxisChannel, Values: acquire.Labels("DAPI", "FITC")},
//	    },
//	    Camera:   "cam0",
//	    Exposure: 20 * time.Millisecond,
//	}
//	cfg := acquire.DefaultConfig()
//	cfg.OutputDir = "./run-001"
//	result, err := acquire.Run(context.Background(), gateway, cfg, spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
package acquire

import (
	"context"

	engine "github.com/scopekit/acquire/pkg/acquire"
)

// Config holds the configuration for an acquisition controller.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = engine.Config

// Spec is the declarative description of a multi-dimensional acquisition.
type Spec = engine.Spec

// Axis declares one dimension of an acquisition.
type Axis = engine.Axis

// AxisValue is a single entry on an axis.
type AxisValue = engine.AxisValue

// Frame is a captured image as delivered to event handlers.
type Frame = engine.Frame

// RunResult summarizes a finished run.
type RunResult = engine.RunResult

// Controller orchestrates acquisitions against a device gateway.
type Controller = engine.Controller

// DeviceGateway is the instrument control boundary.
type DeviceGateway = engine.DeviceGateway

// EventHandler receives notifications from a running acquisition.
type EventHandler = engine.EventHandler

// Option configures optional behavior of the controller.
type Option = engine.Option

// Well-known axis names.
const (
	AxisTime     = engine.AxisTime
	AxisPosition = engine.AxisPosition
	AxisChannel  = engine.AxisChannel
	AxisZ        = engine.AxisZ
)

// Numbers builds axis values from numeric targets.
func Numbers(values ...float64) []AxisValue {
	return engine.Numbers(values...)
}

// Labels builds axis values from discrete labels.
func Labels(values ...string) []AxisValue {
	return engine.Labels(values...)
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set OutputDir (or inject a frame writer).
func DefaultConfig() Config {
	return engine.DefaultConfig()
}

// New creates a new controller bound to the given device gateway.
func New(gateway DeviceGateway, cfg Config, opts ...Option) (*Controller, error) {
	return engine.New(gateway, cfg, opts...)
}

// WithLogger sets a custom logger for structured logging.
func WithLogger(logger engine.Logger) Option {
	return engine.WithLogger(logger)
}

// WithEventHandler sets a handler for acquisition events.
func WithEventHandler(handler EventHandler) Option {
	return engine.WithEventHandler(handler)
}

// Run executes one acquisition to a terminal state and returns its summary.
// Cancelling ctx stops the run cooperatively after the current event
// settles; a cancelled run returns its partial result with a nil error.
func Run(ctx context.Context, gateway DeviceGateway, cfg Config, spec Spec, opts ...Option) (RunResult, error) {
	ctrl, err := engine.New(gateway, cfg, opts...)
	if err != nil {
		return RunResult{}, err
	}
	if err := ctrl.Start(context.Background(), spec); err != nil {
		return RunResult{}, err
	}

	settled := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ctrl.Cancel()
		case <-settled:
		}
	}()

	result, runErr := ctrl.Await(context.Background())
	close(settled)
	return result, runErr
}
