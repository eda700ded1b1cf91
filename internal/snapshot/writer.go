package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Writer serializes snapshots to a stable file location. The write is
// temp-file plus rename so a crash mid-write never leaves a half-written
// artifact behind.
type Writer struct {
	path   string
	logger *zap.Logger
	now    func() time.Time // Injectable clock for deterministic output
}

// WriterOptions contains configuration for creating a Writer.
type WriterOptions struct {
	Path   string
	Logger *zap.Logger
}

// NewWriter creates a snapshot writer targeting the given path.
func NewWriter(opts WriterOptions) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		path:   opts.Path,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Write stamps the snapshot and writes it atomically, creating the output
// directory if needed.
func (w *Writer) Write(snap *Snapshot) error {
	snap.GeneratedAt = w.now().Format(time.RFC3339)

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot into place: %w", err)
	}

	w.logger.Info("snapshot written",
		zap.String("path", w.path),
		zap.Int("rows", len(snap.Leaderboard.All)))
	return nil
}
