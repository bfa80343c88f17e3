package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// HumanFormatter prints a line per stage, a periodic heartbeat and failures
type HumanFormatter struct {
	writer  io.Writer
	verbose bool

	mu    sync.Mutex
	stage string
	total int
}

// NewHumanFormatter creates a human-readable formatter. A nil writer is stdout.
// With verbose set, the summary also lists every path behind each count.
func NewHumanFormatter(writer io.Writer, verbose bool) *HumanFormatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &HumanFormatter{writer: writer, verbose: verbose}
}

// Start announces a stage
func (f *HumanFormatter) Start(stage string, total int, maxWorkers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stage = stage
	f.total = total
	fmt.Fprintf(f.writer, "%s: %d files (%d workers)\n", stage, total, maxWorkers)
	return nil
}

// Progress prints heartbeats and per-file failures
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch update.Type {
	case UpdateHeartbeat:
		fmt.Fprintf(f.writer, "  %s: %d/%d done, %d active\n",
			f.stage, update.Completed, update.Total, update.Active)
	case UpdateFileError:
		fmt.Fprintf(f.writer, "  ✗ %s: %v\n", update.FilePath, update.Error)
	case UpdateFileComplete:
		if f.verbose {
			fmt.Fprintf(f.writer, "  ✓ %s\n", update.FilePath)
		}
	}
	return nil
}

// Complete prints the run summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeSummary(f.writer, report, f.verbose)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	fmt.Fprintf(f.writer, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the counters relevant to the run mode
func writeSummary(w io.Writer, report *models.RunReport, verbose bool) {
	s := report.Stats
	title := string(report.Mode)
	if report.DryRun {
		title += " (dry run)"
	}

	fmt.Fprintf(w, "\n%s completed in %s\n\n", title, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Files found:        %d\n", s.FilesFound)

	switch report.Mode {
	case models.ModeAuditSidecars:
		fmt.Fprintf(w, "  With sidecar:       %d\n", s.SidecarsFound)
		fmt.Fprintf(w, "  Without sidecar:    %d\n", s.SidecarsMissing)
		fmt.Fprintf(w, "  Orphan sidecars:    %d\n", s.OrphanSidecars)
		if verbose {
			writeList(w, "Missing sidecars", report.MissingSidecars)
			writeList(w, "Orphan sidecars", report.OrphanSidecars)
		}

	case models.ModeReorganize, models.ModeDedupeFlat:
		fmt.Fprintf(w, "  Hashed:             %d (%s)\n", s.FilesHashed, humanize.IBytes(uint64(s.BytesHashed)))
		fmt.Fprintf(w, "  Unreadable:         %d\n", s.FilesUnreadable)
		fmt.Fprintf(w, "  Unique:             %d\n", s.UniqueFiles)
		fmt.Fprintf(w, "  Duplicates:         %d\n", s.Duplicates)
		if report.Mode == models.ModeReorganize {
			fmt.Fprintf(w, "  No creation date:   %d\n", s.NoCreationDate)
		}
		fmt.Fprintf(w, "  Name collisions:    %d\n", s.FilenameCollisions)
		fmt.Fprintf(w, "  Moved:              %d\n", s.FilesMoved)
		fmt.Fprintf(w, "  Move failures:      %d\n", s.MovesFailed)
		if verbose {
			writeList(w, "No creation date", report.NoCreationDate)
		}

	case models.ModeCrossFolderAudit, models.ModeCrossFolderPurge:
		fmt.Fprintf(w, "  Hashed:             %d (%s)\n", s.FilesHashed, humanize.IBytes(uint64(s.BytesHashed)))
		fmt.Fprintf(w, "  Unreadable:         %d\n", s.FilesUnreadable)
		fmt.Fprintf(w, "  Internal:           %d\n", s.InternalFiles)
		fmt.Fprintf(w, "  External:           %d\n", s.ExternalFiles)
		fmt.Fprintf(w, "  Only external:      %d\n", s.OnlyExternal)
		fmt.Fprintf(w, "  Present in both:    %d\n", s.PresentInBoth)
		if report.Mode == models.ModeCrossFolderPurge {
			fmt.Fprintf(w, "  Deleted:            %d\n", s.FilesDeleted)
			fmt.Fprintf(w, "  Delete failures:    %d\n", s.DeletesFailed)
			fmt.Fprintf(w, "  Sidecars deleted:   %d (%d absent)\n", s.SidecarsDeleted, s.SidecarsAbsent)
			fmt.Fprintf(w, "  Freed:              %s (+%s sidecars)\n",
				humanize.IBytes(uint64(s.BytesFreed)), humanize.IBytes(uint64(s.SidecarBytesFreed)))
		}
		if report.ReportPath != "" {
			fmt.Fprintf(w, "  Report:             %s\n", report.ReportPath)
		}
	}

	if s.TasksAborted > 0 {
		fmt.Fprintf(w, "  Aborted:            %d\n", s.TasksAborted)
	}
	if s.TasksUnresolved > 0 {
		fmt.Fprintf(w, "  Outcome unknown:    %d\n", s.TasksUnresolved)
	}

	fmt.Fprintf(w, "\nStatus: %s\n", report.Status)

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, fail := range report.Failures {
			fmt.Fprintf(w, "  [%s] %s: %s\n", fail.Stage, fail.Path, fail.Message())
		}
	}
}

func writeList(w io.Writer, label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", label)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
