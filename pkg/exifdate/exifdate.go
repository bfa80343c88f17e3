// Package exifdate recovers the capture time embedded in a media file.
package exifdate

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// DefaultMaxBytes bounds how much of a file is handed to the EXIF decoder.
// JPEG APP1 segments are limited to 64KiB and sit at the start of the file.
const DefaultMaxBytes = 1 << 20

// exifLayout is the EXIF date format; EXIF carries no time zone
const exifLayout = "2006:01:02 15:04:05"

// Extractor reads EXIF DateTimeOriginal
type Extractor struct {
	MaxBytes int64
}

// New creates an extractor with the default read bound
func New() *Extractor {
	return &Extractor{MaxBytes: DefaultMaxBytes}
}

// Extract returns DateTimeOriginal as wall-clock time in UTC.
// Any decode failure or a missing tag yields false.
func (e *Extractor) Extract(r io.Reader) (time.Time, bool) {
	limit := e.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	x, err := exif.Decode(io.LimitReader(r, limit))
	if err != nil {
		return time.Time{}, false
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false
	}

	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}

	return Parse(raw)
}

// ExtractFile opens path on the backend and extracts its date
func (e *Extractor) ExtractFile(ctx context.Context, backend storage.Backend, path string) (time.Time, bool) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return time.Time{}, false
	}
	defer reader.Close()
	return e.Extract(reader)
}

// Parse reads an EXIF "YYYY:MM:DD HH:MM:SS" value. Blank placeholders such as
// "0000:00:00 00:00:00" are rejected.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if len(raw) < len(exifLayout) {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(exifLayout, raw[:len(exifLayout)], time.UTC)
	if err != nil || t.Year() < 1 {
		return time.Time{}, false
	}
	return t, true
}
