package output

import (
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Progress update types
const (
	UpdateHeartbeat    = "heartbeat"
	UpdateFileProgress = "file_progress"
	UpdateFileComplete = "file_complete"
	UpdateFileError    = "file_error"
)

// ProgressUpdate represents a progress notification during a pipeline stage.
// For file_progress, Bytes is the count read so far from FilePath; for
// file_complete it is the size of the file handled.
type ProgressUpdate struct {
	Type      string // "heartbeat", "file_progress", "file_complete", "file_error"
	Stage     string
	FilePath  string
	Completed int
	Active    int
	Total     int
	Bytes     int64
	Error     error
}

// Formatter defines the interface for console output.
// Implementations include human-readable, progress bar and JSON formatters.
type Formatter interface {
	// Start announces a pipeline stage over total tasks
	Start(stage string, total int, maxWorkers int) error

	// Progress reports progress within the current stage
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays the run summary
	Complete(report *models.RunReport) error

	// Error reports a run-level error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}
