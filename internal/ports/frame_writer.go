package ports

import (
	"context"
	"time"

	"github.com/scopekit/acquire/internal/domain"
)

// RunSummary seals the sidecar metadata of a finished run.
type RunSummary struct {
	// FramesWritten is the number of frames that reached durable storage.
	FramesWritten uint64

	// Cancelled marks a user-initiated stop; not a failure.
	Cancelled bool

	// Errored marks a run terminated by an unrecoverable error.
	Errored bool

	// FinishedAt is the run end time.
	FinishedAt time.Time
}

// FrameWriter persists frames into chunked storage keyed by coordinate.
// Implementations handle layout, serialization and atomicity.
//
// The call sequence for one run is Begin, zero or more Write calls, then
// exactly one Finalize. After Finalize every acknowledged Write must be
// durable.
type FrameWriter interface {
	// Begin opens the run and writes the sidecar metadata snapshot
	// (acquisition spec, start timestamp) before any frame arrives.
	Begin(ctx context.Context, spec domain.AcquisitionSpec, startedAt time.Time) error

	// Write persists one frame as a chunk keyed by its coordinate.
	Write(ctx context.Context, frame *domain.Frame) error

	// Finalize flushes pending data and seals the run metadata.
	Finalize(ctx context.Context, summary RunSummary) error
}
