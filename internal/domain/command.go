package domain

import "time"

// CommandKind discriminates the device command variants. Device gateways
// must handle every kind exhaustively; there is no open-ended dispatch.
type CommandKind int

const (
	// CmdStageMove moves a positioning device to an absolute target.
	CmdStageMove CommandKind = iota

	// CmdFilterSet switches a filter or channel selection device.
	CmdFilterSet

	// CmdExposureSet programs the camera exposure time.
	CmdExposureSet

	// CmdCapture triggers a capture and produces pixel data.
	CmdCapture
)

// String returns a human-readable representation of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CmdStageMove:
		return "stage-move"
	case CmdFilterSet:
		return "filter-set"
	case CmdExposureSet:
		return "exposure-set"
	case CmdCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// Command is a single instruction for one device. The meaningful payload
// depends on Kind: stage moves carry Target, filter changes carry Setting,
// exposure programming and captures carry Exposure.
type Command struct {
	Kind     CommandKind
	Device   string
	Target   float64
	Setting  string
	Exposure time.Duration
}
