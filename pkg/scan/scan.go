// Package scan lists the media files of a tree as unhashed FileEntry stubs.
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sdejongh/dedupnorris/internal/platform"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Scanner walks a storage backend and applies a Filter
type Scanner struct {
	filter Filter
	logger logging.Logger
}

// New creates a scanner. A nil logger discards output.
func New(filter Filter, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Scanner{filter: filter, logger: logger}
}

// Scan returns every regular file under the backend root that passes the
// filter, sorted by relative path. Nothing is read or modified.
func (s *Scanner) Scan(ctx context.Context, backend storage.Backend) ([]*models.FileEntry, error) {
	infos, err := backend.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", backend.Root(), err)
	}

	entries := make([]*models.FileEntry, 0, len(infos))
	skipped := 0
	for _, info := range infos {
		if info.IsDir || !info.IsRegular {
			continue
		}

		stem, ext := platform.SplitName(filepath.Base(info.Path))
		if s.filter.Excludes(info.RelativePath, ext) {
			skipped++
			continue
		}

		entries = append(entries, &models.FileEntry{
			Path:         platform.NormalizePath(info.Path),
			RelativePath: info.RelativePath,
			Stem:         stem,
			Ext:          ext,
			Size:         info.Size,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelativePath < entries[j].RelativePath })

	s.logger.Info(ctx, "Scan completed", logging.Fields{
		"root":    backend.Root(),
		"files":   len(entries),
		"skipped": skipped,
	})

	return entries, nil
}
