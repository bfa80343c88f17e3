package pipeline

import (
	"context"
	"time"

	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// hashStage digests every stub. Unreadable files are recorded and left out of
// the result, which keeps scan order.
func (e *Engine) hashStage(ctx context.Context, source storage.Backend, stubs []*models.FileEntry, withDates bool, report *models.RunReport) []*models.FileEntry {
	stage := string(models.ActionHash)
	e.startStage(ctx, stage, len(stubs))
	start := time.Now()

	results := make([]*models.FileEntry, len(stubs))
	work := func(ctx context.Context, i int) HashTask {
		return e.hashOne(ctx, source, stubs[i], withDates)
	}
	fold := func(i int, t HashTask) {
		if t.Err != nil {
			report.Stats.FilesUnreadable++
			e.recordFailure(ctx, report, models.ActionHash, t.Stub.Path, t.Err)
			return
		}
		results[i] = t.Entry
		report.Stats.FilesHashed++
		report.Stats.BytesHashed += t.Entry.Size
		e.recordComplete(models.ActionHash, t.Stub.Path, t.Entry.Size)
	}

	unfinished := Run(ctx, e.newPool(stage), len(stubs), work, fold)
	e.recordUnfinished(ctx, report, models.ActionHash, unfinished, func(i int) string { return stubs[i].Path })

	hashed := make([]*models.FileEntry, 0, len(stubs))
	for _, entry := range results {
		if entry != nil {
			hashed = append(hashed, entry)
		}
	}

	e.logger.Info(ctx, "Hash stage completed", logging.Fields{
		"hashed":     report.Stats.FilesHashed,
		"unreadable": report.Stats.FilesUnreadable,
		"bytes":      report.Stats.BytesHashed,
		"duration":   time.Since(start).String(),
	})
	return hashed
}

func (e *Engine) hashOne(ctx context.Context, source storage.Backend, stub *models.FileEntry, withDates bool) HashTask {
	start := time.Now()
	task := HashTask{Stub: stub}

	sum, err := e.hasher.Sum(ctx, source, stub.Path)
	if err != nil {
		task.Err = models.NewFileError(models.ActionHash, stub.Path, models.ErrUnreadableFile, err)
		task.Duration = time.Since(start)
		return task
	}

	var created *time.Time
	if withDates {
		if t, ok := e.dates.ExtractFile(ctx, source, stub.Path); ok {
			created = &t
		}
	}

	task.Entry = stub.WithDigest(sum.Size, sum.Hash, created)
	task.Duration = time.Since(start)
	e.logger.Debug(ctx, "File hashed", logging.Fields{
		"path":     stub.Path,
		"hash":     sum.Hash,
		"size":     sum.Size,
		"duration": task.Duration.String(),
	})
	return task
}
