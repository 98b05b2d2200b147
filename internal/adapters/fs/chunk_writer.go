package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scopekit/acquire/internal/domain"
	"github.com/scopekit/acquire/internal/ports"
)

const (
	metaFileName  = "acquisition.json"
	indexFileName = "frames.idx"
	chunkDirName  = "chunks"
)

// ChunkWriter implements ports.FrameWriter on the local file system. Each
// frame becomes one chunk file keyed by its coordinate, an append-only index
// records write order, and a sidecar metadata document is written at Begin
// and sealed at Finalize. All metadata writes are atomic (temp file, then
// rename).
type ChunkWriter struct {
	root   string
	logger ports.Logger

	doc runDoc
	idx *os.File
}

// runDoc is the sidecar metadata layout.
type runDoc struct {
	StartedAt  time.Time `json:"started_at"`
	Camera     string    `json:"camera"`
	ExposureMS float64   `json:"exposure_ms"`
	Axes       []axisDoc `json:"axes"`

	Finalized  bool       `json:"finalized"`
	Frames     uint64     `json:"frames"`
	Cancelled  bool       `json:"cancelled"`
	Errored    bool       `json:"errored"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// axisDoc snapshots one axis of the acquisition spec.
type axisDoc struct {
	Name   string   `json:"name"`
	Policy string   `json:"policy"`
	Values []string `json:"values"`
}

// indexLine is one record in the append-only frame index.
type indexLine struct {
	Seq    uint64 `json:"seq"`
	Key    string `json:"key"`
	TS     int64  `json:"ts"`
	Length int    `json:"len"`
	Width  int    `json:"w"`
	Height int    `json:"h"`
}

// NewChunkWriter creates a writer rooted at dir. The directory is created
// on Begin.
func NewChunkWriter(dir string, logger ports.Logger) *ChunkWriter {
	return &ChunkWriter{root: dir, logger: logger}
}

// Begin creates the run layout and writes the sidecar metadata snapshot.
func (w *ChunkWriter) Begin(ctx context.Context, spec domain.AcquisitionSpec, startedAt time.Time) error {
	if err := os.MkdirAll(filepath.Join(w.root, chunkDirName), 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	w.doc = runDoc{
		StartedAt:  startedAt,
		Camera:     spec.Capture.Camera,
		ExposureMS: float64(spec.Capture.Exposure) / float64(time.Millisecond),
		Axes:       make([]axisDoc, len(spec.Axes)),
	}
	for i, axis := range spec.Axes {
		ad := axisDoc{
			Name:   axis.Name,
			Policy: axis.Policy.String(),
			Values: make([]string, len(axis.Values)),
		}
		for j, v := range axis.Values {
			ad.Values[j] = v.Display()
		}
		w.doc.Axes[i] = ad
	}
	if err := w.writeMeta(); err != nil {
		return err
	}

	idx, err := os.OpenFile(filepath.Join(w.root, indexFileName),
		os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open frame index: %w", err)
	}
	w.idx = idx

	w.logger.Info("run storage opened",
		ports.String("dir", w.root),
		ports.Int("axes", len(spec.Axes)),
	)
	return nil
}

// Write persists one frame chunk and appends its index record.
func (w *ChunkWriter) Write(ctx context.Context, frame *domain.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(w.root, chunkDirName, filepath.FromSlash(frame.Coord.Key())+".raw")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}

	// Atomic chunk write: temp file in the same directory, then rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, frame.Pixels, 0o644); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit chunk: %w", err)
	}

	line, err := json.Marshal(indexLine{
		Seq:    frame.Seq,
		Key:    frame.Coord.Key(),
		TS:     frame.Timestamp.UnixNano(),
		Length: len(frame.Pixels),
		Width:  frame.Width,
		Height: frame.Height,
	})
	if err != nil {
		return err
	}
	if _, err := w.idx.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append frame index: %w", err)
	}
	return nil
}

// Finalize syncs the frame index and seals the sidecar metadata.
func (w *ChunkWriter) Finalize(ctx context.Context, summary ports.RunSummary) error {
	if w.idx != nil {
		if err := w.idx.Sync(); err != nil {
			return fmt.Errorf("sync frame index: %w", err)
		}
		if err := w.idx.Close(); err != nil {
			return fmt.Errorf("close frame index: %w", err)
		}
		w.idx = nil
	}

	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	w.doc.Finalized = true
	w.doc.Frames = summary.FramesWritten
	w.doc.Cancelled = summary.Cancelled
	w.doc.Errored = summary.Errored
	w.doc.FinishedAt = &finished

	if err := w.writeMeta(); err != nil {
		return err
	}
	w.logger.Info("run storage finalized",
		ports.Uint64("frames", summary.FramesWritten),
		ports.Bool("cancelled", summary.Cancelled),
		ports.Bool("errored", summary.Errored),
	)
	return nil
}

// writeMeta writes the sidecar document atomically.
func (w *ChunkWriter) writeMeta() error {
	data, err := json.MarshalIndent(w.doc, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(w.root, metaFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write run metadata: %w", err)
	}
	return os.Rename(tmp, path)
}
