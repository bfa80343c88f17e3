// Package digest computes streaming content digests of media files.
package digest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"
	"time"

	sha256 "github.com/minio/sha256-simd"
	"github.com/twmb/murmur3"

	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// ReaderWrapper wraps a file reader before hashing (e.g., for rate limiting)
type ReaderWrapper func(ctx context.Context, rc io.ReadCloser) io.ReadCloser

// ProgressFunc receives throttled per-file byte progress
type ProgressFunc func(path string, current, total int64)

// Sum is the digest of one file
type Sum struct {
	Hash string
	Size int64
}

// Hasher streams files through a pooled buffer into the configured digest
type Hasher struct {
	algorithm      models.HashAlgorithm
	newHash        func() hash.Hash
	bufferPool     *sync.Pool
	progressReport ProgressFunc
	readerWrapper  ReaderWrapper
}

// New creates a hasher for the given algorithm. An empty algorithm selects md5.
func New(algorithm models.HashAlgorithm, bufferSize int) (*Hasher, error) {
	if algorithm == "" {
		algorithm = models.HashMD5
	}

	newHash, err := constructor(algorithm)
	if err != nil {
		return nil, err
	}

	if bufferSize < 4096 {
		bufferSize = 4096
	}

	return &Hasher{
		algorithm: algorithm,
		newHash:   newHash,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}, nil
}

func constructor(algorithm models.HashAlgorithm) (func() hash.Hash, error) {
	switch algorithm {
	case models.HashMD5:
		return md5.New, nil
	case models.HashSHA256:
		return sha256.New, nil
	case models.HashMurmur3:
		return func() hash.Hash { return murmur3.New128() }, nil
	default:
		return nil, &models.ValidationError{Field: "hash.algorithm", Message: "unsupported algorithm " + string(algorithm)}
	}
}

// Algorithm returns the digest name
func (h *Hasher) Algorithm() models.HashAlgorithm {
	return h.algorithm
}

// SetProgressCallback sets a callback for progress reporting during hashing
func (h *Hasher) SetProgressCallback(callback ProgressFunc) {
	h.progressReport = callback
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (h *Hasher) SetReaderWrapper(wrapper ReaderWrapper) {
	h.readerWrapper = wrapper
}

// Sum digests the file at path. The byte count is what was actually read.
func (h *Hasher) Sum(ctx context.Context, backend storage.Backend, path string) (Sum, error) {
	var total int64
	if h.progressReport != nil {
		if info, err := backend.Stat(ctx, path); err == nil {
			total = info.Size
		}
	}

	reader, err := backend.Read(ctx, path)
	if err != nil {
		return Sum{}, err
	}
	defer reader.Close()

	var src io.ReadCloser = reader
	if h.readerWrapper != nil {
		src = h.readerWrapper(ctx, reader)
	}

	return h.sum(ctx, src, path, total)
}

func (h *Hasher) sum(ctx context.Context, reader io.Reader, path string, total int64) (Sum, error) {
	digest := h.newHash()

	bufPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufPtr)
	buf := *bufPtr

	// Progress throttling
	const (
		progressReportInterval = 50 * time.Millisecond
		progressReportBytes    = 64 * 1024
	)
	var bytesRead, lastReported int64
	var lastReportTime time.Time

	for {
		select {
		case <-ctx.Done():
			return Sum{}, ctx.Err()
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
			bytesRead += int64(n)

			if h.progressReport != nil &&
				(bytesRead-lastReported >= progressReportBytes || time.Since(lastReportTime) >= progressReportInterval) {
				h.progressReport(path, bytesRead, total)
				lastReported = bytesRead
				lastReportTime = time.Now()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Sum{}, fmt.Errorf("failed to read file: %w", err)
		}
	}

	if h.progressReport != nil && bytesRead > lastReported {
		h.progressReport(path, bytesRead, total)
	}

	return Sum{Hash: hex.EncodeToString(digest.Sum(nil)), Size: bytesRead}, nil
}
