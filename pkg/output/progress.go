package output

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

const progressTemplate = `{{string . "stage"}} {{counters . }} {{bar . }} {{percent . }} {{string . "bytes"}} {{etime . }}`

// HeartbeatInterval returns how often the progress bar wants heartbeats.
// Windows terminals have higher latency with ANSI sequences.
func HeartbeatInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ProgressFormatter renders one progress bar per stage
type ProgressFormatter struct {
	writer    io.Writer
	termWidth int

	mu  sync.Mutex
	bar *pb.ProgressBar

	// bytes read by files still in flight, and by finished files of the stage
	inflight  map[string]int64
	doneBytes int64
}

// NewProgressFormatter creates a progress bar formatter. A nil writer is stdout.
func NewProgressFormatter(writer io.Writer) *ProgressFormatter {
	if writer == nil {
		writer = os.Stdout
	}

	f := &ProgressFormatter{writer: writer, termWidth: 120}
	if file, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
		}
	}
	return f
}

// Start finishes the previous bar and starts one for the new stage
func (f *ProgressFormatter) Start(stage string, total int, maxWorkers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finish()

	bar := pb.New(total)
	bar.SetWriter(f.writer)
	bar.SetWidth(f.termWidth)
	bar.SetTemplateString(progressTemplate)
	bar.Set("stage", stage)
	bar.Set("bytes", "")
	bar.SetRefreshRate(HeartbeatInterval())
	f.bar = bar.Start()
	f.inflight = make(map[string]int64)
	f.doneBytes = 0
	return nil
}

// Progress moves the bar to the heartbeat count and prints failures above it
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case UpdateHeartbeat:
		f.bar.SetCurrent(int64(update.Completed))
	case UpdateFileProgress:
		f.inflight[update.FilePath] = update.Bytes
		f.setBytes()
	case UpdateFileComplete:
		delete(f.inflight, update.FilePath)
		f.doneBytes += update.Bytes
		f.setBytes()
	case UpdateFileError:
		delete(f.inflight, update.FilePath)
		f.setBytes()
		fmt.Fprintf(f.writer, "\r✗ %s: %v\n", update.FilePath, update.Error)
	}
	return nil
}

// setBytes must be called with the lock held
func (f *ProgressFormatter) setBytes() {
	if total := f.bytes(); total > 0 {
		f.bar.Set("bytes", humanize.IBytes(uint64(total)))
	}
}

// bytes returns what the current stage has read so far, lock held
func (f *ProgressFormatter) bytes() int64 {
	total := f.doneBytes
	for _, n := range f.inflight {
		total += n
	}
	return total
}

// Complete closes the last bar and prints the summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finish()
	writeSummary(f.writer, report, false)
	return nil
}

// finish must be called with the lock held
func (f *ProgressFormatter) finish() {
	if f.bar == nil {
		return
	}
	f.bar.Finish()
	f.bar = nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fmt.Fprintf(f.writer, "\nError: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
