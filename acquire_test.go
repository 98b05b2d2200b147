package acquire

import (
	"context"
	"testing"
	"time"

	"github.com/scopekit/acquire/internal/adapters/sim"
)

func simGateway(cfg sim.GatewayConfig) *sim.Gateway {
	return sim.NewGateway(cfg, nil)
}

func fastSim() sim.GatewayConfig {
	return sim.GatewayConfig{
		StageLatency:    time.Millisecond,
		FilterLatency:   time.Millisecond,
		ExposureLatency: time.Millisecond,
		CaptureLatency:  time.Millisecond,
		Width:           8,
		Height:          8,
	}
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()

	spec := Spec{
		Axes: []Axis{
			{Name: AxisTime, Values: Numbers(0, 1)},
			{Name: AxisChannel, Values: Labels("DAPI", "FITC")},
		},
		Camera:   "cam0",
		Exposure: time.Millisecond,
	}

	result, err := Run(context.Background(), simGateway(fastSim()), cfg, spec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FramesEmitted != 4 || result.FramesStored != 4 {
		t.Errorf("result = %+v, want 4 frames emitted and stored", result)
	}
	if result.Cancelled {
		t.Error("result.Cancelled = true, want false")
	}
}

func TestRun_ContextCancelStopsCooperatively(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()

	gw := fastSim()
	gw.CaptureLatency = 10 * time.Millisecond
	spec := Spec{
		Axes:     []Axis{{Name: AxisTime, Values: Numbers(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)}},
		Camera:   "cam0",
		Exposure: time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	result, err := Run(ctx, simGateway(gw), cfg, spec)
	if err != nil {
		t.Fatalf("Run() error = %v, want partial result without error", err)
	}
	if !result.Cancelled {
		t.Error("result.Cancelled = false, want true")
	}
	if result.FramesEmitted >= 10 {
		t.Errorf("FramesEmitted = %d, want a partial run", result.FramesEmitted)
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()

	if _, err := Run(context.Background(), simGateway(fastSim()), cfg, Spec{}); err == nil {
		t.Error("Run() with empty spec succeeded, want error")
	}
}
