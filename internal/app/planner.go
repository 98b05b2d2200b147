package app

import (
	"github.com/scopekit/acquire/internal/domain"
)

// Plan is the expanded, ordered set of capture events for one acquisition.
// It is lazy and restartable: events are produced on demand by Next and the
// cursor rewinds with Reset. Planning is a pure transformation; building two
// plans from the same spec yields identical event streams.
type Plan struct {
	spec   domain.AcquisitionSpec
	axes   []resolvedAxis
	cursor []int
	serial int
	done   bool
	total  int
}

// resolvedAxis carries an axis with its step policy already applied: targets
// are the absolute device values for each declared value index.
type resolvedAxis struct {
	name    string
	values  []domain.AxisValue
	targets []float64
}

// NewPlan validates spec and resolves per-axis device targets. Relative step
// policies accumulate offsets at plan time, so every event carries absolute
// targets and replanning is idempotent.
func NewPlan(spec domain.AcquisitionSpec) (*Plan, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	axes := make([]resolvedAxis, len(spec.Axes))
	total := 1
	for i, axis := range spec.Axes {
		ra := resolvedAxis{
			name:    axis.Name,
			values:  axis.Values,
			targets: make([]float64, len(axis.Values)),
		}
		var acc float64
		for j, v := range axis.Values {
			switch axis.Policy {
			case domain.StepRelative:
				acc += v.Number
				ra.targets[j] = acc
			default:
				ra.targets[j] = v.Number
			}
		}
		axes[i] = ra
		total *= len(axis.Values)
	}

	return &Plan{
		spec:   spec,
		axes:   axes,
		cursor: make([]int, len(axes)),
		total:  total,
	}, nil
}

// Total returns the number of events the plan produces: the product of all
// axis lengths.
func (p *Plan) Total() int {
	return p.total
}

// Reset rewinds the plan to its first event.
func (p *Plan) Reset() {
	for i := range p.cursor {
		p.cursor[i] = 0
	}
	p.serial = 0
	p.done = false
}

// Next produces the next event in nesting order, outermost axis varying
// slowest. The second return value is false once the plan is exhausted.
func (p *Plan) Next() (domain.SequenceEvent, bool) {
	if p.done {
		return domain.SequenceEvent{}, false
	}

	ev := p.buildEvent()

	// Advance the odometer from the innermost axis.
	for i := len(p.cursor) - 1; i >= 0; i-- {
		p.cursor[i]++
		if p.cursor[i] < len(p.axes[i].values) {
			break
		}
		p.cursor[i] = 0
		if i == 0 {
			p.done = true
		}
	}
	p.serial++

	return ev, true
}

// buildEvent resolves the coordinate and device commands at the current
// cursor position.
func (p *Plan) buildEvent() domain.SequenceEvent {
	coord := make(domain.Coordinate, len(p.axes))
	var positioning []domain.Command

	for i, axis := range p.axes {
		idx := p.cursor[i]
		point := domain.AxisPoint{
			Axis:   axis.name,
			Index:  idx,
			Value:  axis.values[idx],
			Target: axis.targets[idx],
		}
		coord[i] = point

		if cmd, ok := commandFor(point); ok {
			positioning = append(positioning, cmd)
		}
	}

	// Exposure is programmed alongside positioning for every event.
	positioning = append(positioning, domain.Command{
		Kind:     domain.CmdExposureSet,
		Device:   p.spec.Capture.Camera,
		Exposure: p.spec.Capture.Exposure,
	})

	return domain.SequenceEvent{
		Index:       p.serial,
		Coord:       coord,
		Positioning: positioning,
		Capture: domain.Command{
			Kind:     domain.CmdCapture,
			Device:   p.spec.Capture.Camera,
			Exposure: p.spec.Capture.Exposure,
		},
	}
}

// commandFor maps one axis point to the device command that reaches it.
// The time axis only paces iteration and needs no device transition.
func commandFor(point domain.AxisPoint) (domain.Command, bool) {
	switch point.Axis {
	case domain.AxisTime:
		return domain.Command{}, false
	case domain.AxisChannel:
		return domain.Command{
			Kind:    domain.CmdFilterSet,
			Device:  point.Axis,
			Setting: point.Value.Display(),
		}, true
	default:
		// position, z and custom axes are positioning devices.
		return domain.Command{
			Kind:   domain.CmdStageMove,
			Device: point.Axis,
			Target: point.Target,
		}, true
	}
}
