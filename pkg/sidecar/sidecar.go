// Package sidecar associates media files with their "<name>.json" metadata files.
package sidecar

import (
	"path/filepath"
	"strings"

	"github.com/sdejongh/dedupnorris/internal/platform"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Ext is the sidecar extension, compared case-insensitively
const Ext = "json"

// PathFor returns the sidecar path of a media file
func PathFor(mediaPath string) string {
	return mediaPath + "." + Ext
}

// IsSidecar reports whether name carries the sidecar extension
func IsSidecar(name string) bool {
	_, ext := platform.SplitName(filepath.Base(name))
	return strings.EqualFold(ext, Ext)
}

// MediaPathFor returns the media path a sidecar describes, or false when the
// sidecar does not follow the "<name>.<ext>.json" form (e.g. metadata.json)
func MediaPathFor(sidecarPath string) (string, bool) {
	if !IsSidecar(sidecarPath) {
		return "", false
	}
	media := sidecarPath[:len(sidecarPath)-len(Ext)-1]
	if _, ext := platform.SplitName(filepath.Base(media)); ext == "" {
		return "", false
	}
	return media, true
}

// Result is the outcome of a sidecar audit
type Result struct {
	// WithSidecar are media files whose sidecar is in the scanned set
	WithSidecar []*models.FileEntry
	// Missing are media files without a sidecar
	Missing []*models.FileEntry
	// Orphans are sidecars whose media file is absent
	Orphans []*models.FileEntry
}

// Audit splits a scanned set (sidecars included) into media with and without
// a sidecar, plus orphan sidecars. Matching is by exact path.
func Audit(entries []*models.FileEntry) Result {
	paths := make(map[string]bool, len(entries))
	for _, e := range entries {
		paths[e.Path] = true
	}

	var res Result
	for _, e := range entries {
		if IsSidecar(e.Path) {
			if media, ok := MediaPathFor(e.Path); ok && !paths[media] {
				res.Orphans = append(res.Orphans, e)
			}
			continue
		}
		if paths[PathFor(e.Path)] {
			res.WithSidecar = append(res.WithSidecar, e)
		} else {
			res.Missing = append(res.Missing, e)
		}
	}
	return res
}
