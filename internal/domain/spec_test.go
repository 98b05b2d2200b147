package domain

import (
	"errors"
	"testing"
	"time"
)

func validSpec() AcquisitionSpec {
	return AcquisitionSpec{
		Axes: []AxisSpec{
			{Name: AxisTime, Values: []AxisValue{{Number: 0}, {Number: 1}}},
			{Name: AxisChannel, Values: []AxisValue{{Label: "DAPI"}, {Label: "FITC"}}},
		},
		Capture: CaptureAction{Camera: "cam0", Exposure: 10 * time.Millisecond},
	}
}

func TestAcquisitionSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AcquisitionSpec)
		wantErr bool
	}{
		{"valid spec", func(s *AcquisitionSpec) {}, false},
		{"no axes", func(s *AcquisitionSpec) { s.Axes = nil }, true},
		{"missing camera", func(s *AcquisitionSpec) { s.Capture.Camera = "" }, true},
		{"zero exposure", func(s *AcquisitionSpec) { s.Capture.Exposure = 0 }, true},
		{"negative exposure", func(s *AcquisitionSpec) { s.Capture.Exposure = -time.Second }, true},
		{"empty axis name", func(s *AcquisitionSpec) { s.Axes[0].Name = "" }, true},
		{"duplicate axis name", func(s *AcquisitionSpec) { s.Axes[1].Name = s.Axes[0].Name }, true},
		{"axis without values", func(s *AcquisitionSpec) { s.Axes[1].Values = nil }, true},
		{"duplicate absolute value", func(s *AcquisitionSpec) {
			s.Axes[0].Values = []AxisValue{{Number: 1}, {Number: 1}}
		}, true},
		{"duplicate label", func(s *AcquisitionSpec) {
			s.Axes[1].Values = []AxisValue{{Label: "DAPI"}, {Label: "DAPI"}}
		}, true},
		{"repeated relative offsets resolve to unique targets", func(s *AcquisitionSpec) {
			s.Axes = append(s.Axes, AxisSpec{
				Name:   AxisZ,
				Policy: StepRelative,
				Values: []AxisValue{{Number: 0}, {Number: 0.5}, {Number: 0.5}},
			})
		}, false},
		{"relative offsets resolving to duplicate target", func(s *AcquisitionSpec) {
			s.Axes = append(s.Axes, AxisSpec{
				Name:   AxisZ,
				Policy: StepRelative,
				Values: []AxisValue{{Number: 1}, {Number: -1}, {Number: 1}},
			})
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			err := spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Validate() error = %v, want wrapping ErrInvalidSpec", err)
			}
		})
	}
}

func TestAxisValue_Display(t *testing.T) {
	tests := []struct {
		value AxisValue
		want  string
	}{
		{AxisValue{Label: "DAPI"}, "DAPI"},
		{AxisValue{Label: "DAPI", Number: 3}, "DAPI"},
		{AxisValue{Number: 0}, "0"},
		{AxisValue{Number: 1.5}, "1.5"},
		{AxisValue{Number: -0.25}, "-0.25"},
	}

	for _, tt := range tests {
		if got := tt.value.Display(); got != tt.want {
			t.Errorf("Display() = %q, want %q", got, tt.want)
		}
	}
}

func TestCoordinate_KeyAndString(t *testing.T) {
	coord := Coordinate{
		{Axis: AxisTime, Index: 0, Value: AxisValue{Number: 0}},
		{Axis: AxisChannel, Index: 1, Value: AxisValue{Label: "FITC"}},
		{Axis: AxisZ, Index: 2, Value: AxisValue{Number: 1.5}, Target: 1.5},
	}

	if got, want := coord.Key(), "time=0/channel=FITC/z=1.5"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if got, want := coord.String(), "(0,FITC,1.5)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestEventError_Unwrap(t *testing.T) {
	cmdErr := &CommandError{
		Command: Command{Kind: CmdStageMove, Device: "z"},
		Reason:  "stall",
	}
	evErr := &EventError{EventIndex: 3, Causes: []error{cmdErr}}

	var got *CommandError
	if !errors.As(evErr, &got) {
		t.Fatal("errors.As did not find the CommandError cause")
	}
	if got.Reason != "stall" {
		t.Errorf("cause reason = %q, want %q", got.Reason, "stall")
	}
}
