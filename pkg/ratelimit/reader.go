// Package ratelimit caps the aggregate read bandwidth of the hashing stage.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// minBucket keeps small limits from degenerating into tiny reads
const minBucket = 64 * 1024

// Limiter is a token bucket shared by every reader of a run
type Limiter struct {
	bytesPerSecond int64

	mu         sync.Mutex
	tokens     int64
	lastUpdate time.Time
	bucketSize int64
}

// ParseBandwidth parses a limit such as "10M", "512KiB" or "1.5 MB".
// An empty string or "0" means unlimited.
func ParseBandwidth(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	// "10M/s" is accepted as well as "10M"
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/s"), "ps")

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth %q: %w", s, err)
	}
	return int64(n), nil
}

// NewLimiter creates a limiter. A non-positive rate returns nil (no limiting).
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	bucketSize := bytesPerSecond
	if bucketSize < minBucket {
		bucketSize = minBucket
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
		bucketSize:     bucketSize,
	}
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	return l.bytesPerSecond
}

// WaitN blocks until n tokens are available or ctx is done
func (l *Limiter) WaitN(ctx context.Context, n int64) error {
	if n > l.bucketSize {
		n = l.bucketSize
	}

	for {
		l.mu.Lock()
		l.refill(time.Now())
		if l.tokens >= n {
			l.mu.Unlock()
			return nil
		}
		deficit := n - l.tokens
		l.mu.Unlock()

		wait := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill must be called with the lock held
func (l *Limiter) refill(now time.Time) {
	add := int64(now.Sub(l.lastUpdate).Seconds() * float64(l.bytesPerSecond))
	if add <= 0 {
		return
	}
	l.tokens += add
	if l.tokens > l.bucketSize {
		l.tokens = l.bucketSize
	}
	l.lastUpdate = now
}

func (l *Limiter) consume(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens -= n
	if l.tokens < 0 {
		l.tokens = 0
	}
}

// Reader throttles reads from an underlying reader
type Reader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *Limiter
}

// NewReader wraps r. A nil limiter returns r unchanged.
func NewReader(ctx context.Context, r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &Reader{ctx: ctx, reader: r, limiter: limiter}
}

// Read implements io.Reader
func (r *Reader) Read(p []byte) (int, error) {
	want := int64(len(p))
	if want > r.limiter.bucketSize {
		want = r.limiter.bucketSize
	}

	if err := r.limiter.WaitN(r.ctx, want); err != nil {
		return 0, err
	}

	n, err := r.reader.Read(p[:want])
	if n > 0 {
		r.limiter.consume(int64(n))
	}
	return n, err
}

// ReadCloser is a throttled io.ReadCloser
type ReadCloser struct {
	Reader
	closer io.Closer
}

// NewReadCloser wraps rc. A nil limiter returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &ReadCloser{
		Reader: Reader{ctx: ctx, reader: rc, limiter: limiter},
		closer: rc,
	}
}

// Close implements io.Closer
func (rc *ReadCloser) Close() error {
	return rc.closer.Close()
}
