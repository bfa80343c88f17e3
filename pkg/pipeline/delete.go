package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/classify"
	"github.com/sdejongh/dedupnorris/pkg/digest"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/output"
	"github.com/sdejongh/dedupnorris/pkg/sidecar"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// crossFolder runs cross-folder-audit and cross-folder-purge. Every hashed
// entry is classified, so duplicates inside the external tree are all matched.
func (e *Engine) crossFolder(ctx context.Context, source storage.Backend, report *models.RunReport) (int, error) {
	op := e.operation

	hashed, ok, err := e.scanAndHash(ctx, source, report, false)
	if err != nil {
		return 0, err
	}
	attempted := report.Stats.FilesUnreadable
	if !ok {
		return attempted + report.Stats.TasksAborted + report.Stats.TasksUnresolved, nil
	}

	internal, external := e.classifier.Partition(hashed)
	res := classify.Compare(internal, external)
	report.Stats.InternalFiles = len(internal)
	report.Stats.ExternalFiles = len(external)
	report.Stats.OnlyExternal = len(res.OnlyExternal)
	report.Stats.PresentInBoth = len(res.PresentInBoth)

	report.OnlyExternal = make([]string, 0, len(res.OnlyExternal))
	for _, entry := range res.OnlyExternal {
		report.OnlyExternal = append(report.OnlyExternal, entry.Path)
	}

	e.logger.Info(ctx, "Classification completed", logging.Fields{
		"pattern":         e.classifier.Pattern(),
		"internal":        report.Stats.InternalFiles,
		"external":        report.Stats.ExternalFiles,
		"only_external":   report.Stats.OnlyExternal,
		"present_in_both": report.Stats.PresentInBoth,
	})

	reportPath := op.ReportPath
	if reportPath == "" {
		reportPath = output.PathReportName
	}
	if err := output.WritePathReport(reportPath, report.OnlyExternal); err != nil {
		return 0, err
	}
	if abs, err := filepath.Abs(reportPath); err == nil {
		reportPath = abs
	}
	report.ReportPath = reportPath
	e.logger.Info(ctx, "Path report written", logging.Fields{"path": reportPath, "entries": len(report.OnlyExternal)})

	if op.Mode != models.ModeCrossFolderPurge {
		return report.Stats.FilesFound, nil
	}

	attempted += len(res.PresentInBoth)
	e.deleteStage(ctx, source, res.PresentInBoth, report)
	return attempted, nil
}

func (e *Engine) deleteStage(ctx context.Context, source storage.Backend, matches []classify.Match, report *models.RunReport) {
	stage := string(models.ActionDelete)
	e.startStage(ctx, stage, len(matches))
	start := time.Now()

	work := func(ctx context.Context, i int) DeleteTask {
		return e.deleteOne(ctx, source, NewDeleteTask(matches[i]))
	}
	fold := func(i int, t DeleteTask) {
		if !t.Terminal() {
			t.MarkFailed(models.NewFileError(models.ActionDelete, t.Match.External.Path, models.ErrDeleteFailed,
				fmt.Errorf("task stopped in state %s", t.State)))
		}
		report.Operations = append(report.Operations, models.FileOperation{
			Entry:       t.Match.External,
			Action:      models.ActionDelete,
			Destination: t.SidecarPath,
			Reason:      "present in " + t.Match.Internal.Path,
			Error:       t.Err,
			Duration:    t.Duration,
		})
		if t.MediaDeleted {
			report.Stats.FilesDeleted++
			report.Stats.BytesFreed += t.MediaBytes
		} else if t.Err != nil {
			report.Stats.DeletesFailed++
		}
		switch t.State {
		case StateSidecarDeleted:
			report.Stats.SidecarsDeleted++
			report.Stats.SidecarBytesFreed += t.SidecarBytes
		case StateSidecarAbsent:
			report.Stats.SidecarsAbsent++
		}
		if t.Err != nil {
			e.recordFailure(ctx, report, models.ActionDelete, t.Match.External.Path, t.Err)
			return
		}
		e.recordComplete(models.ActionDelete, t.Match.External.Path, t.MediaBytes)
	}

	unfinished := Run(ctx, e.newPool(stage), len(matches), work, fold)
	for _, i := range unfinished.Aborted {
		t := NewDeleteTask(matches[i])
		t.MarkAborted()
		report.Operations = append(report.Operations, models.FileOperation{
			Entry:  t.Match.External,
			Action: models.ActionSkip,
			Reason: string(t.State),
			Error:  t.Err,
		})
	}
	for _, i := range unfinished.Unresolved {
		t := NewDeleteTask(matches[i])
		t.MarkUnresolved()
		report.Operations = append(report.Operations, models.FileOperation{
			Entry:  t.Match.External,
			Action: models.ActionDelete,
			Reason: string(t.State),
			Error:  t.Err,
		})
	}
	e.recordUnfinished(ctx, report, models.ActionDelete, unfinished, func(i int) string { return matches[i].External.Path })

	e.logger.Info(ctx, "Delete stage completed", logging.Fields{
		"deleted":          report.Stats.FilesDeleted,
		"failed":           report.Stats.DeletesFailed,
		"sidecars_deleted": report.Stats.SidecarsDeleted,
		"sidecars_absent":  report.Stats.SidecarsAbsent,
		"bytes_freed":      report.Stats.BytesFreed,
		"dry_run":          e.operation.DryRun,
		"duration":         time.Since(start).String(),
	})
}

// deleteOne walks a task from Classified to a terminal state
func (e *Engine) deleteOne(ctx context.Context, source storage.Backend, task DeleteTask) DeleteTask {
	start := time.Now()
	media := task.Match.External

	exists, err := source.Exists(ctx, task.Match.Internal.Path)
	if err != nil || !exists {
		if err == nil {
			err = fmt.Errorf("%s no longer exists", task.Match.Internal.Path)
		}
		task.MarkFailed(models.NewFileError(models.ActionDelete, media.Path, models.ErrCounterpartMissing, err))
		task.Duration = time.Since(start)
		return task
	}

	if e.operation.Verify {
		if err := e.hasher.Verify(ctx, source, task.Match.Internal.Path, media.Path); err != nil {
			kind := models.ErrUnreadableFile
			var diff *digest.Difference
			if errors.As(err, &diff) {
				kind = models.ErrContentMismatch
			}
			task.MarkFailed(models.NewFileError(models.ActionDelete, media.Path, kind, err))
			task.Duration = time.Since(start)
			return task
		}
	}

	sidecarPath := sidecar.PathFor(media.Path)

	if e.operation.DryRun {
		task.MarkMediaDeleted(media.Size)
		task.MarkSidecarChecked(sidecarPath)
		if info, err := source.Stat(ctx, sidecarPath); err == nil {
			task.MarkSidecarDeleted(info.Size)
		} else {
			task.MarkSidecarAbsent()
		}
		e.logger.Debug(ctx, "Would delete file", logging.Fields{"path": media.Path, "sidecar": sidecarPath})
		task.Duration = time.Since(start)
		return task
	}

	if err := ctx.Err(); err != nil {
		task.MarkFailed(models.NewFileError(models.ActionDelete, media.Path, models.ErrAborted, err))
		task.Duration = time.Since(start)
		return task
	}
	if err := source.Delete(ctx, media.Path); err != nil {
		task.MarkFailed(models.NewFileError(models.ActionDelete, media.Path, models.ErrDeleteFailed, err))
		task.Duration = time.Since(start)
		return task
	}
	task.MarkMediaDeleted(media.Size)
	e.logger.Debug(ctx, "File deleted", logging.Fields{"path": media.Path, "counterpart": task.Match.Internal.Path})

	task.MarkSidecarChecked(sidecarPath)
	info, err := source.Stat(ctx, sidecarPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			task.MarkSidecarAbsent()
			e.logger.Debug(ctx, "No sidecar", logging.Fields{"path": sidecarPath})
		} else {
			task.MarkFailed(models.NewFileError(models.ActionDelete, sidecarPath, models.ErrDeleteFailed, err))
		}
		task.Duration = time.Since(start)
		return task
	}

	if ctx.Err() != nil {
		// The media is gone: fold the task as a failure rather than drop it
		task.MarkFailed(models.NewFileError(models.ActionDelete, sidecarPath, models.ErrAborted, nil))
		task.Duration = time.Since(start)
		return task
	}
	if err := source.Delete(ctx, sidecarPath); err != nil {
		task.MarkFailed(models.NewFileError(models.ActionDelete, sidecarPath, models.ErrDeleteFailed, err))
		task.Duration = time.Since(start)
		return task
	}
	task.MarkSidecarDeleted(info.Size)
	e.logger.Debug(ctx, "Sidecar deleted", logging.Fields{"path": sidecarPath})

	task.Duration = time.Since(start)
	return task
}
