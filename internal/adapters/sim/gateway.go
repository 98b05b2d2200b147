// Package sim provides a simulated device gateway for demos and tests.
// Commands execute on their own goroutines with configurable latency and
// failure injection, and captures synthesize deterministic pixel data, so
// the full engine can run without any instrument attached.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

// GatewayConfig controls the simulated hardware behavior.
type GatewayConfig struct {
	// Per-device-class settle latency. Captures additionally wait out the
	// programmed exposure.
	StageLatency    time.Duration
	FilterLatency   time.Duration
	ExposureLatency time.Duration
	CaptureLatency  time.Duration

	// FailEvery makes every Nth issued command report a failure; 0 disables
	// failure injection.
	FailEvery int

	// Width and Height are the synthesized frame geometry.
	Width  int
	Height int
}

// DefaultGatewayConfig returns a configuration with fast, reliable devices.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		StageLatency:    20 * time.Millisecond,
		FilterLatency:   5 * time.Millisecond,
		ExposureLatency: time.Millisecond,
		CaptureLatency:  5 * time.Millisecond,
		Width:           64,
		Height:          64,
	}
}

// Gateway is a simulated ports.DeviceGateway.
type Gateway struct {
	cfg    GatewayConfig
	logger ports.Logger

	mu      sync.Mutex
	subs    map[ports.CommandToken]func(ports.Completion)
	arrived map[ports.CommandToken]ports.Completion
	aborts  map[ports.CommandToken]chan struct{}
	issued  uint64
}

// NewGateway creates a simulated gateway.
func NewGateway(cfg GatewayConfig, logger ports.Logger) *Gateway {
	if cfg.Width <= 0 {
		cfg.Width = 64
	}
	if cfg.Height <= 0 {
		cfg.Height = 64
	}
	return &Gateway{
		cfg:     cfg,
		logger:  logger,
		subs:    make(map[ports.CommandToken]func(ports.Completion)),
		arrived: make(map[ports.CommandToken]ports.Completion),
		aborts:  make(map[ports.CommandToken]chan struct{}),
	}
}

// Issue accepts the command and schedules its asynchronous completion.
func (g *Gateway) Issue(ctx context.Context, cmd domain.Command) (ports.CommandToken, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	token := ports.CommandToken(uuid.NewString())
	abort := make(chan struct{})

	g.mu.Lock()
	g.issued++
	serial := g.issued
	g.aborts[token] = abort
	g.mu.Unlock()

	fail := g.cfg.FailEvery > 0 && serial%uint64(g.cfg.FailEvery) == 0

	go g.execute(token, cmd, serial, fail, abort)
	return token, nil
}

// Subscribe registers the completion callback for token. A completion that
// arrived before subscription is delivered promptly.
func (g *Gateway) Subscribe(token ports.CommandToken, fn func(ports.Completion)) {
	g.mu.Lock()
	if comp, ok := g.arrived[token]; ok {
		delete(g.arrived, token)
		g.mu.Unlock()
		go fn(comp)
		return
	}
	g.subs[token] = fn
	g.mu.Unlock()
}

// AbortAll cancels every outstanding command. Each aborted command still
// delivers its single (failure) completion. Idempotent.
func (g *Gateway) AbortAll(ctx context.Context) error {
	g.mu.Lock()
	aborts := make([]chan struct{}, 0, len(g.aborts))
	for token, ch := range g.aborts {
		delete(g.aborts, token)
		aborts = append(aborts, ch)
	}
	g.mu.Unlock()

	for _, ch := range aborts {
		close(ch)
	}
	if g.logger != nil {
		g.logger.Warn("abort all", ports.Int("outstanding", len(aborts)))
	}
	return nil
}

// Outstanding returns the number of commands still in flight.
func (g *Gateway) Outstanding() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.aborts)
}

// execute waits out the command latency, then delivers the completion.
func (g *Gateway) execute(token ports.CommandToken, cmd domain.Command, serial uint64, fail bool, abort chan struct{}) {
	comp := ports.Completion{Token: token, Status: ports.CompletionSuccess}

	timer := time.NewTimer(g.latencyFor(cmd))
	defer timer.Stop()
	select {
	case <-timer.C:
		if fail {
			comp.Status = ports.CompletionFailure
			comp.Reason = "injected device fault"
		} else if cmd.Kind == domain.CmdCapture {
			comp.Pixels = g.synthesize(serial)
			comp.Width = g.cfg.Width
			comp.Height = g.cfg.Height
		}
	case <-abort:
		comp.Status = ports.CompletionFailure
		comp.Reason = "aborted"
	}

	g.mu.Lock()
	delete(g.aborts, token)
	fn := g.subs[token]
	if fn != nil {
		delete(g.subs, token)
	} else {
		g.arrived[token] = comp
	}
	g.mu.Unlock()

	if fn != nil {
		fn(comp)
	}
}

// latencyFor returns the settle time of the command's device class.
func (g *Gateway) latencyFor(cmd domain.Command) time.Duration {
	switch cmd.Kind {
	case domain.CmdStageMove:
		return g.cfg.StageLatency
	case domain.CmdFilterSet:
		return g.cfg.FilterLatency
	case domain.CmdExposureSet:
		return g.cfg.ExposureLatency
	default:
		return g.cfg.CaptureLatency + cmd.Exposure
	}
}

// synthesize produces a deterministic diagonal gradient so chunks differ
// between captures.
func (g *Gateway) synthesize(serial uint64) []byte {
	pixels := make([]byte, g.cfg.Width*g.cfg.Height)
	for y := 0; y < g.cfg.Height; y++ {
		for x := 0; x < g.cfg.Width; x++ {
			pixels[y*g.cfg.Width+x] = byte(x + y + int(serial))
		}
	}
	return pixels
}
