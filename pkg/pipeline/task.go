package pipeline

import (
	"time"

	"github.com/sdejongh/dedupnorris/pkg/classify"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// HashTask is the outcome of hashing one scanned file
type HashTask struct {
	Stub     *models.FileEntry
	Entry    *models.FileEntry // hashed copy, nil on failure
	Err      error
	Duration time.Duration
}

// Failure implements Result
func (t HashTask) Failure() error {
	return t.Err
}

// MoveTask is one planned rename into the destination tree
type MoveTask struct {
	Entry       *models.FileEntry
	Destination string
	Moved       bool
	Err         error
	Duration    time.Duration
}

// Failure implements Result
func (t MoveTask) Failure() error {
	return t.Err
}

// DeleteState tracks a purge task through its steps
type DeleteState string

const (
	// StateClassified: the external file has an internal copy
	StateClassified DeleteState = "classified"
	// StateMediaDeleted: the external media file is gone
	StateMediaDeleted DeleteState = "media_deleted"
	// StateSidecarChecked: the sidecar lookup is done
	StateSidecarChecked DeleteState = "sidecar_checked"
	// StateSidecarDeleted: terminal, sidecar removed
	StateSidecarDeleted DeleteState = "sidecar_deleted"
	// StateSidecarAbsent: terminal, there was no sidecar
	StateSidecarAbsent DeleteState = "sidecar_absent"
	// StateFailed: terminal, see Err
	StateFailed DeleteState = "failed"
	// StateAborted: terminal, never run because the batch was cancelled
	StateAborted DeleteState = "aborted"
	// StateUnresolved: terminal, still running when the grace period expired
	StateUnresolved DeleteState = "outcome_unknown"
)

// DeleteTask is the purge of one external file and its sidecar
type DeleteTask struct {
	Match        classify.Match
	State        DeleteState
	MediaDeleted bool
	MediaBytes   int64
	SidecarPath  string
	SidecarBytes int64
	Err          error
	Duration     time.Duration
}

// NewDeleteTask creates a task for a classified match
func NewDeleteTask(m classify.Match) DeleteTask {
	return DeleteTask{Match: m, State: StateClassified}
}

// Failure implements Result
func (t DeleteTask) Failure() error {
	return t.Err
}

// MarkMediaDeleted records the media removal
func (t *DeleteTask) MarkMediaDeleted(bytes int64) {
	t.State = StateMediaDeleted
	t.MediaDeleted = true
	t.MediaBytes = bytes
}

// MarkSidecarChecked records the sidecar lookup
func (t *DeleteTask) MarkSidecarChecked(path string) {
	t.State = StateSidecarChecked
	t.SidecarPath = path
}

// MarkSidecarDeleted records the sidecar removal
func (t *DeleteTask) MarkSidecarDeleted(bytes int64) {
	t.State = StateSidecarDeleted
	t.SidecarBytes = bytes
}

// MarkSidecarAbsent records that no sidecar existed
func (t *DeleteTask) MarkSidecarAbsent() {
	t.State = StateSidecarAbsent
}

// MarkFailed records a failure. A media file already deleted stays deleted.
func (t *DeleteTask) MarkFailed(err error) {
	t.State = StateFailed
	t.Err = err
}

// MarkAborted records that the task never ran
func (t *DeleteTask) MarkAborted() {
	t.State = StateAborted
	t.Err = models.ErrAborted
}

// MarkUnresolved records that the task was still running when the batch stopped
func (t *DeleteTask) MarkUnresolved() {
	t.State = StateUnresolved
	t.Err = models.ErrOutcomeUnknown
}

// Terminal reports whether the task reached a final state
func (t DeleteTask) Terminal() bool {
	switch t.State {
	case StateSidecarDeleted, StateSidecarAbsent, StateFailed, StateAborted, StateUnresolved:
		return true
	}
	return false
}
