package models

import (
	"time"
)

// RunReport represents the results of one invocation
type RunReport struct {
	// Operation details
	OperationID string
	Mode        RunMode
	SourcePath  string
	DestPath    string
	DryRun      bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Operations performed (moves and deletes, planned ones in dry-run)
	Operations []FileOperation

	// Per-file failures, in the order they were folded
	Failures []Failure

	// Paths left in place because no creation date was found
	NoCreationDate []string

	// Media files without a sidecar, and sidecars without media
	MissingSidecars []string
	OrphanSidecars  []string

	// External paths whose content has no internal copy
	OnlyExternal []string

	// ReportPath is where the path report was written, if any
	ReportPath string

	// Interrupted is set when cancellation stopped the run outside a batch,
	// during the scan for instance
	Interrupted bool

	// Overall status
	Status RunStatus
}

// Statistics holds run metrics. Every counter is folded by a single goroutine
// after the stage barrier.
type Statistics struct {
	// Scan and hash
	FilesFound      int   `json:"files_found"`
	FilesHashed     int   `json:"files_hashed"`
	FilesUnreadable int   `json:"files_unreadable"`
	BytesHashed     int64 `json:"bytes_hashed"`

	// Grouping
	UniqueFiles        int `json:"unique_files"`
	Duplicates         int `json:"duplicates"`
	FilenameCollisions int `json:"filename_collisions"`
	NoCreationDate     int `json:"no_creation_date"`

	// Move mode
	FilesMoved  int `json:"files_moved"`
	MovesFailed int `json:"moves_failed"`

	// Classification
	InternalFiles int `json:"internal_files"`
	ExternalFiles int `json:"external_files"`
	OnlyExternal  int `json:"only_external"`
	PresentInBoth int `json:"present_in_both"`

	// Delete mode
	FilesDeleted      int   `json:"files_deleted"`
	DeletesFailed     int   `json:"deletes_failed"`
	SidecarsDeleted   int   `json:"sidecars_deleted"`
	SidecarsAbsent    int   `json:"sidecars_absent"`
	BytesFreed        int64 `json:"bytes_freed"`
	SidecarBytesFreed int64 `json:"sidecar_bytes_freed"`

	// Sidecar audit
	SidecarsFound   int `json:"sidecars_found"`
	SidecarsMissing int `json:"sidecars_missing"`
	OrphanSidecars  int `json:"orphan_sidecars"`

	// Tasks never run because the batch was cancelled
	TasksAborted int `json:"tasks_aborted"`
	// Tasks still running when the grace period expired
	TasksUnresolved int `json:"tasks_unresolved"`
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates all operations completed successfully
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some per-file operations failed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates every attempted operation failed
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the batch was aborted before completion
	StatusCancelled RunStatus = "cancelled"
)

// Failure represents one file that could not be processed
type Failure struct {
	Path      string
	Stage     Action
	Err       error
	Timestamp time.Time
}

// Message returns the failure text
func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// AddFailure records a per-file failure
func (r *RunReport) AddFailure(stage Action, path string, err error) {
	r.Failures = append(r.Failures, Failure{
		Path:      path,
		Stage:     stage,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Settle derives the final status from the attempted task count
func (r *RunReport) Settle(attempted int) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	switch {
	case r.Interrupted || r.Stats.TasksAborted > 0 || r.Stats.TasksUnresolved > 0:
		r.Status = StatusCancelled
	case len(r.Failures) == 0:
		r.Status = StatusSuccess
	case attempted > 0 && len(r.Failures) >= attempted:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}

// ExitCode returns the process exit code for the run status.
// Code 1 is reserved for invalid arguments.
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 2
	case StatusFailed:
		return 3
	case StatusCancelled:
		return 4
	default:
		return 3
	}
}
