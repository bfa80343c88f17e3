package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/dedupe"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

var errDestinationConflict = errors.New("destination conflict")

// moveUnique runs reorganize and dedupe-flat: one representative per content
// hash is moved into the destination, duplicates stay where they are.
func (e *Engine) moveUnique(ctx context.Context, source storage.Backend, report *models.RunReport) (int, error) {
	op := e.operation

	dest, err := e.openBackend(op.DestPath)
	if err != nil {
		return 0, fmt.Errorf("destination: %w", err)
	}
	defer dest.Close()

	hashed, ok, err := e.scanAndHash(ctx, source, report, op.Mode == models.ModeReorganize)
	if err != nil {
		return 0, err
	}
	attempted := report.Stats.FilesUnreadable
	if !ok {
		return attempted + report.Stats.TasksAborted + report.Stats.TasksUnresolved, nil
	}

	unique, discarded := dedupe.Representatives(hashed)
	report.Stats.UniqueFiles = len(unique)
	report.Stats.Duplicates = discarded

	candidates := unique
	if op.Mode == models.ModeReorganize {
		candidates = make([]*models.FileEntry, 0, len(unique))
		for _, entry := range unique {
			if !entry.HasCreationDate() {
				report.NoCreationDate = append(report.NoCreationDate, entry.Path)
				report.Operations = append(report.Operations, models.FileOperation{
					Entry:  entry,
					Action: models.ActionSkip,
					Reason: "no creation date",
				})
				continue
			}
			candidates = append(candidates, entry)
		}
		report.Stats.NoCreationDate = len(report.NoCreationDate)
	}

	report.Stats.FilenameCollisions = dedupe.Collisions(dedupe.GroupByFilename(candidates)).Len()

	tasks := e.planMoves(candidates)
	attempted += len(tasks)

	e.logger.Info(ctx, "Moves planned", logging.Fields{
		"unique":     report.Stats.UniqueFiles,
		"duplicates": report.Stats.Duplicates,
		"no_date":    report.Stats.NoCreationDate,
		"collisions": report.Stats.FilenameCollisions,
		"moves":      len(tasks),
	})

	e.moveStage(ctx, dest, tasks, report)
	return attempted, nil
}

// planMoves assigns a destination to every candidate. A destination already
// planned for an earlier entry becomes a failed task instead of a second move.
func (e *Engine) planMoves(candidates []*models.FileEntry) []MoveTask {
	op := e.operation
	assignments := dedupe.AssignNames(candidates, op.SuffixPolicy)

	tasks := make([]MoveTask, 0, len(assignments))
	planned := make(map[string]string, len(assignments))
	for _, a := range assignments {
		dst := destinationFor(op, a)
		task := MoveTask{Entry: a.Entry, Destination: dst}
		if first, taken := planned[dst]; taken {
			task.Err = models.NewFileError(models.ActionMove, a.Entry.Path, models.ErrMoveFailed,
				fmt.Errorf("%w: %s is also planned for %s", errDestinationConflict, dst, first))
		} else {
			planned[dst] = a.Entry.Path
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func destinationFor(op *models.RunOperation, a dedupe.Assignment) string {
	if op.Mode == models.ModeReorganize && a.Entry.HasCreationDate() {
		t := a.Entry.CreationDate.UTC()
		return filepath.Join(op.DestPath, t.Format("2006"), t.Format("01"), a.Name)
	}
	return filepath.Join(op.DestPath, a.Name)
}

func (e *Engine) moveStage(ctx context.Context, dest storage.Backend, tasks []MoveTask, report *models.RunReport) {
	stage := string(models.ActionMove)
	e.startStage(ctx, stage, len(tasks))
	start := time.Now()

	work := func(ctx context.Context, i int) MoveTask {
		return e.moveOne(ctx, dest, tasks[i])
	}
	fold := func(i int, t MoveTask) {
		report.Operations = append(report.Operations, models.FileOperation{
			Entry:       t.Entry,
			Action:      models.ActionMove,
			Destination: t.Destination,
			Error:       t.Err,
			Duration:    t.Duration,
		})
		if t.Err != nil {
			report.Stats.MovesFailed++
			e.recordFailure(ctx, report, models.ActionMove, t.Entry.Path, t.Err)
			return
		}
		report.Stats.FilesMoved++
		e.recordComplete(models.ActionMove, t.Entry.Path, t.Entry.Size)
	}

	unfinished := Run(ctx, e.newPool(stage), len(tasks), work, fold)
	e.recordUnfinished(ctx, report, models.ActionMove, unfinished, func(i int) string { return tasks[i].Entry.Path })

	e.logger.Info(ctx, "Move stage completed", logging.Fields{
		"moved":    report.Stats.FilesMoved,
		"failed":   report.Stats.MovesFailed,
		"dry_run":  e.operation.DryRun,
		"duration": time.Since(start).String(),
	})
}

func (e *Engine) moveOne(ctx context.Context, dest storage.Backend, task MoveTask) MoveTask {
	if task.Err != nil {
		return task
	}
	if e.operation.DryRun {
		e.logger.Debug(ctx, "Would move file", logging.Fields{"path": task.Entry.Path, "dest": task.Destination})
		return task
	}

	start := time.Now()
	if err := ctx.Err(); err != nil {
		task.Err = models.NewFileError(models.ActionMove, task.Entry.Path, models.ErrAborted, err)
		return task
	}
	err := storage.Move(ctx, dest, task.Entry.Path, task.Destination, storage.MoveOptions{
		CopyFallback: e.operation.CopyFallback,
	})
	task.Duration = time.Since(start)
	if err != nil {
		task.Err = models.NewFileError(models.ActionMove, task.Entry.Path, models.ErrMoveFailed, err)
		return task
	}

	task.Moved = true
	e.logger.Debug(ctx, "File moved", logging.Fields{"path": task.Entry.Path, "dest": task.Destination})
	return task
}
