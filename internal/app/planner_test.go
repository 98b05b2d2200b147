package app

import (
	"errors"
	"testing"
	"time"

	"github.com/scopekit/acquire/internal/domain"
)

func planSpec(axes ...domain.AxisSpec) domain.AcquisitionSpec {
	return domain.AcquisitionSpec{
		Axes:    axes,
		Capture: domain.CaptureAction{Camera: "cam0", Exposure: 10 * time.Millisecond},
	}
}

func drain(t *testing.T, p *Plan) []domain.SequenceEvent {
	t.Helper()
	var events []domain.SequenceEvent
	for {
		ev, ok := p.Next()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func TestNewPlan_InvalidSpec(t *testing.T) {
	_, err := NewPlan(domain.AcquisitionSpec{})
	if !errors.Is(err, domain.ErrInvalidSpec) {
		t.Fatalf("NewPlan() error = %v, want wrapping ErrInvalidSpec", err)
	}
}

func TestPlan_TotalIsAxisProduct(t *testing.T) {
	p, err := NewPlan(planSpec(
		domain.AxisSpec{Name: domain.AxisTime, Values: numbers(0, 1, 2)},
		domain.AxisSpec{Name: domain.AxisChannel, Values: labels("DAPI", "FITC")},
		domain.AxisSpec{Name: domain.AxisZ, Values: numbers(0, 0.5, 1, 1.5)},
	))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	if p.Total() != 24 {
		t.Errorf("Total() = %d, want 24", p.Total())
	}
	if got := len(drain(t, p)); got != 24 {
		t.Errorf("drained %d events, want 24", got)
	}
}

func TestPlan_OrderingOutermostSlowest(t *testing.T) {
	p, err := NewPlan(planSpec(
		domain.AxisSpec{Name: domain.AxisTime, Values: numbers(0, 1)},
		domain.AxisSpec{Name: domain.AxisChannel, Values: labels("DAPI", "FITC")},
	))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	want := []string{"(0,DAPI)", "(0,FITC)", "(1,DAPI)", "(1,FITC)"}
	events := drain(t, p)
	if len(events) != len(want) {
		t.Fatalf("drained %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Index != i {
			t.Errorf("event %d has Index %d", i, ev.Index)
		}
		if got := ev.Coord.String(); got != want[i] {
			t.Errorf("event %d coord = %s, want %s", i, got, want[i])
		}
	}
}

func TestPlan_RelativeAxisAccumulates(t *testing.T) {
	p, err := NewPlan(planSpec(
		domain.AxisSpec{Name: domain.AxisZ, Policy: domain.StepRelative, Values: numbers(1, 0.5, 0.5)},
	))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	want := []float64{1, 1.5, 2}
	for i, ev := range drain(t, p) {
		if got := ev.Coord[0].Target; got != want[i] {
			t.Errorf("event %d target = %g, want %g", i, got, want[i])
		}
	}
}

func TestPlan_ResetReplaysIdentically(t *testing.T) {
	p, err := NewPlan(planSpec(
		domain.AxisSpec{Name: domain.AxisTime, Values: numbers(0, 1)},
		domain.AxisSpec{Name: domain.AxisZ, Policy: domain.StepRelative, Values: numbers(0, 0.5)},
	))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	first := drain(t, p)
	p.Reset()
	second := drain(t, p)

	if len(first) != len(second) {
		t.Fatalf("replay produced %d events, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].Coord.Key() != second[i].Coord.Key() {
			t.Errorf("event %d replayed as %s, want %s",
				i, second[i].Coord.Key(), first[i].Coord.Key())
		}
		if first[i].Coord[1].Target != second[i].Coord[1].Target {
			t.Errorf("event %d replayed target %g, want %g",
				i, second[i].Coord[1].Target, first[i].Coord[1].Target)
		}
	}
}

func TestPlan_EventCommands(t *testing.T) {
	p, err := NewPlan(planSpec(
		domain.AxisSpec{Name: domain.AxisTime, Values: numbers(0)},
		domain.AxisSpec{Name: domain.AxisChannel, Values: labels("DAPI")},
		domain.AxisSpec{Name: domain.AxisZ, Values: numbers(2.5)},
	))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	ev, ok := p.Next()
	if !ok {
		t.Fatal("Next() returned no event")
	}

	// The time axis paces iteration only; channel, z and the exposure
	// program remain.
	if len(ev.Positioning) != 3 {
		t.Fatalf("got %d positioning commands, want 3", len(ev.Positioning))
	}

	filter := ev.Positioning[0]
	if filter.Kind != domain.CmdFilterSet || filter.Setting != "DAPI" {
		t.Errorf("filter command = %+v, want CmdFilterSet DAPI", filter)
	}
	stage := ev.Positioning[1]
	if stage.Kind != domain.CmdStageMove || stage.Target != 2.5 || stage.Device != domain.AxisZ {
		t.Errorf("stage command = %+v, want CmdStageMove z 2.5", stage)
	}
	exposure := ev.Positioning[2]
	if exposure.Kind != domain.CmdExposureSet || exposure.Exposure != 10*time.Millisecond {
		t.Errorf("exposure command = %+v, want CmdExposureSet 10ms", exposure)
	}

	if ev.Capture.Kind != domain.CmdCapture || ev.Capture.Device != "cam0" {
		t.Errorf("capture command = %+v, want CmdCapture on cam0", ev.Capture)
	}
}

func numbers(vs ...float64) []domain.AxisValue {
	out := make([]domain.AxisValue, len(vs))
	for i, v := range vs {
		out[i] = domain.AxisValue{Number: v}
	}
	return out
}

func labels(vs ...string) []domain.AxisValue {
	out := make([]domain.AxisValue, len(vs))
	for i, v := range vs {
		out[i] = domain.AxisValue{Label: v}
	}
	return out
}
