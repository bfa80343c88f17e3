// Package pipeline runs the scan, hash, group, classify and act stages of a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/dedupnorris/pkg/classify"
	"github.com/sdejongh/dedupnorris/pkg/digest"
	"github.com/sdejongh/dedupnorris/pkg/exifdate"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/output"
	"github.com/sdejongh/dedupnorris/pkg/ratelimit"
	"github.com/sdejongh/dedupnorris/pkg/scan"
	"github.com/sdejongh/dedupnorris/pkg/sidecar"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Options holds engine settings that are not part of the operation itself
type Options struct {
	// Heartbeat is the interval between progress notifications, 0 disables them
	Heartbeat time.Duration
}

// Engine orchestrates one run
type Engine struct {
	operation  *models.RunOperation
	formatter  output.Formatter
	logger     logging.Logger
	options    Options
	scanner    *scan.Scanner
	hasher     *digest.Hasher
	dates      *exifdate.Extractor
	classifier *classify.Classifier

	// openBackend opens a tree root, storage.NewLocal outside tests
	openBackend func(root string) (storage.Backend, error)
}

func openLocal(root string) (storage.Backend, error) {
	return storage.NewLocal(root)
}

// NewEngine validates the operation and builds the stage components
func NewEngine(operation *models.RunOperation, formatter output.Formatter, logger logging.Logger, options Options) (*Engine, error) {
	if err := operation.Validate(); err != nil {
		return nil, err
	}
	if operation.ID == "" {
		operation.ID = uuid.New().String()
	}
	if operation.CreatedAt.IsZero() {
		operation.CreatedAt = time.Now()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	logger = logger.WithFields(logging.Fields{"run_id": operation.ID})

	hasher, err := digest.New(operation.HashAlgorithm, operation.BufferSize)
	if err != nil {
		return nil, err
	}
	if limiter := ratelimit.NewLimiter(operation.BandwidthLimit); limiter != nil {
		hasher.SetReaderWrapper(func(ctx context.Context, rc io.ReadCloser) io.ReadCloser {
			return ratelimit.NewReadCloser(ctx, rc, limiter)
		})
	}

	if formatter != nil {
		hasher.SetProgressCallback(func(path string, current, total int64) {
			formatter.Progress(output.ProgressUpdate{
				Type:     output.UpdateFileProgress,
				Stage:    string(models.ActionHash),
				FilePath: path,
				Bytes:    current,
				Total:    int(total),
			})
		})
	}

	classifier, err := classify.New(operation.InternalPattern)
	if err != nil {
		return nil, err
	}

	filter := scan.Filter{
		ExcludeExtensions: operation.ExcludeExtensions,
		SkipNameContains:  operation.SkipNameContains,
		ExcludePatterns:   operation.ExcludePatterns,
	}
	if operation.Mode == models.ModeAuditSidecars {
		// The audit needs to see the sidecars themselves
		filter.ExcludeExtensions = withoutSidecarExt(filter.ExcludeExtensions)
	}

	return &Engine{
		operation:  operation,
		formatter:  formatter,
		logger:     logger,
		options:    options,
		scanner:    scan.New(filter, logger),
		hasher:     hasher,
		dates:      exifdate.New(),
		classifier: classifier,

		openBackend: openLocal,
	}, nil
}

func withoutSidecarExt(exts []string) []string {
	var out []string
	for _, x := range exts {
		if !strings.EqualFold(strings.TrimPrefix(x, "."), sidecar.Ext) {
			out = append(out, x)
		}
	}
	return out
}

// Run executes the operation's mode. Setup errors (unreadable roots, report
// file creation) are returned; per-file failures are recorded in the report.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	op := e.operation
	report := &models.RunReport{
		OperationID: op.ID,
		Mode:        op.Mode,
		SourcePath:  op.SourcePath,
		DestPath:    op.DestPath,
		DryRun:      op.DryRun,
		StartTime:   time.Now(),
		ReportPath:  op.ReportPath,
	}

	e.logger.Info(ctx, "Starting run", logging.Fields{
		"mode":        op.Mode,
		"source":      op.SourcePath,
		"dest":        op.DestPath,
		"dry_run":     op.DryRun,
		"hash":        op.HashAlgorithm,
		"max_workers": op.MaxWorkers,
	})

	source, err := e.openBackend(op.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer source.Close()

	var attempted int
	switch op.Mode {
	case models.ModeAuditSidecars:
		attempted, err = e.auditSidecars(ctx, source, report)
	case models.ModeReorganize, models.ModeDedupeFlat:
		attempted, err = e.moveUnique(ctx, source, report)
	case models.ModeCrossFolderAudit, models.ModeCrossFolderPurge:
		attempted, err = e.crossFolder(ctx, source, report)
	}
	if err != nil {
		if ctx.Err() == nil || !errors.Is(err, context.Canceled) {
			return nil, err
		}
		// A signal during the scan is a cancelled run, not a setup error
		report.Interrupted = true
		e.logger.Warn(ctx, "Run interrupted", logging.Fields{"error": err.Error()})
	}

	report.Settle(attempted)

	e.logger.Info(ctx, "Run completed", logging.Fields{
		"duration":    report.Duration.String(),
		"status":      report.Status,
		"found":       report.Stats.FilesFound,
		"failures":    len(report.Failures),
		"aborted":     report.Stats.TasksAborted,
		"unresolved":  report.Stats.TasksUnresolved,
		"moved":       report.Stats.FilesMoved,
		"deleted":     report.Stats.FilesDeleted,
		"bytes_freed": report.Stats.BytesFreed,
	})

	if e.formatter != nil {
		e.formatter.Complete(report)
	}

	return report, nil
}

// auditSidecars counts media with and without a sidecar. Nothing is hashed.
func (e *Engine) auditSidecars(ctx context.Context, source storage.Backend, report *models.RunReport) (int, error) {
	entries, err := e.scanner.Scan(ctx, source)
	if err != nil {
		return 0, err
	}

	res := sidecar.Audit(entries)
	report.Stats.FilesFound = len(res.WithSidecar) + len(res.Missing)
	report.Stats.SidecarsFound = len(res.WithSidecar)
	report.Stats.SidecarsMissing = len(res.Missing)
	report.Stats.OrphanSidecars = len(res.Orphans)
	for _, m := range res.Missing {
		report.MissingSidecars = append(report.MissingSidecars, m.Path)
	}
	for _, o := range res.Orphans {
		report.OrphanSidecars = append(report.OrphanSidecars, o.Path)
	}

	e.logger.Info(ctx, "Sidecar audit completed", logging.Fields{
		"media":   report.Stats.FilesFound,
		"missing": report.Stats.SidecarsMissing,
		"orphans": report.Stats.OrphanSidecars,
	})
	return 0, nil
}

// scanAndHash runs the first two stages shared by the content-based modes.
// It returns the hashed entries in scan order, and false if the hash batch was
// cancelled, in which case no action stage may run.
func (e *Engine) scanAndHash(ctx context.Context, source storage.Backend, report *models.RunReport, withDates bool) ([]*models.FileEntry, bool, error) {
	stubs, err := e.scanner.Scan(ctx, source)
	if err != nil {
		return nil, false, err
	}
	report.Stats.FilesFound = len(stubs)

	hashed := e.hashStage(ctx, source, stubs, withDates, report)
	return hashed, report.Stats.TasksAborted+report.Stats.TasksUnresolved == 0, nil
}

func (e *Engine) newPool(stage string) *Pool {
	cfg := PoolConfig{
		Workers:      e.operation.MaxWorkers,
		AbortOnError: e.operation.AbortOnError,
		GracePeriod:  e.operation.GracePeriod,
		Heartbeat:    e.options.Heartbeat,
	}
	if e.formatter != nil {
		cfg.OnHeartbeat = func(completed, active, total int) {
			e.formatter.Progress(output.ProgressUpdate{
				Type:      output.UpdateHeartbeat,
				Stage:     stage,
				Completed: completed,
				Active:    active,
				Total:     total,
			})
		}
	}
	return NewPool(cfg)
}

func (e *Engine) startStage(ctx context.Context, stage string, total int) {
	e.logger.Info(ctx, "Starting stage", logging.Fields{"stage": stage, "tasks": total})
	if e.formatter != nil {
		e.formatter.Start(stage, total, e.operation.MaxWorkers)
	}
}

// recordComplete notifies the console that a file went through a stage
func (e *Engine) recordComplete(stage models.Action, path string, bytes int64) {
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{
			Type:     output.UpdateFileComplete,
			Stage:    string(stage),
			FilePath: path,
			Bytes:    bytes,
		})
	}
}

// recordFailure adds a per-file failure to the report and notifies the console
func (e *Engine) recordFailure(ctx context.Context, report *models.RunReport, stage models.Action, path string, err error) {
	report.AddFailure(stage, path, err)
	e.logger.Error(ctx, "File failed", err, logging.Fields{"stage": stage, "path": path})
	if e.formatter != nil {
		e.formatter.Progress(output.ProgressUpdate{
			Type:     output.UpdateFileError,
			Stage:    string(stage),
			FilePath: path,
			Error:    err,
		})
	}
}

// recordUnfinished reports the tasks of a cancelled batch. Tasks that never
// acted are aborted; tasks still running past the grace period are unresolved,
// since their file may already be moved or deleted.
func (e *Engine) recordUnfinished(ctx context.Context, report *models.RunReport, stage models.Action, u Unfinished, pathOf func(i int) string) {
	if u.Len() == 0 {
		return
	}
	report.Stats.TasksAborted += len(u.Aborted)
	for _, i := range u.Aborted {
		p := pathOf(i)
		report.AddFailure(stage, p, models.NewFileError(stage, p, models.ErrAborted, nil))
	}
	report.Stats.TasksUnresolved += len(u.Unresolved)
	for _, i := range u.Unresolved {
		p := pathOf(i)
		err := models.NewFileError(stage, p, models.ErrOutcomeUnknown, nil)
		report.AddFailure(stage, p, err)
		e.logger.Error(ctx, "Task outlived the grace period", err, logging.Fields{"stage": stage, "path": p})
	}
	e.logger.Warn(ctx, "Batch cancelled", logging.Fields{
		"stage":      stage,
		"aborted":    len(u.Aborted),
		"unresolved": len(u.Unresolved),
	})
}
