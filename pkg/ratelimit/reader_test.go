package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"10M", 10 * 1000 * 1000, false},
		{"10MiB", 10 * 1024 * 1024, false},
		{"512KB/s", 512 * 1000, false},
		{"1.5 MB", 1500 * 1000, false},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBandwidth(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBandwidth(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBandwidth(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLimiter(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		if NewLimiter(0) != nil || NewLimiter(-1) != nil {
			t.Error("NewLimiter() should return nil for non-positive rates")
		}
	})

	t.Run("MinimumBucket", func(t *testing.T) {
		l := NewLimiter(1000)
		if l.bucketSize != minBucket {
			t.Errorf("bucketSize = %d, want %d", l.bucketSize, minBucket)
		}
		if l.tokens != l.bucketSize {
			t.Error("bucket should start full")
		}
	})

	t.Run("OneSecondBucket", func(t *testing.T) {
		l := NewLimiter(8 * 1024 * 1024)
		if l.bucketSize != 8*1024*1024 || l.Rate() != 8*1024*1024 {
			t.Errorf("bucketSize = %d, want one second of data", l.bucketSize)
		}
	})
}

func TestLimiterWaitN(t *testing.T) {
	t.Run("AvailableImmediately", func(t *testing.T) {
		l := NewLimiter(1024 * 1024)
		if err := l.WaitN(context.Background(), 1024); err != nil {
			t.Fatalf("WaitN() error = %v", err)
		}
	})

	t.Run("CancelledWhileWaiting", func(t *testing.T) {
		l := NewLimiter(1000)
		l.tokens = 0
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := l.WaitN(ctx, minBucket)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("WaitN() error = %v, want DeadlineExceeded", err)
		}
		if time.Since(start) > time.Second {
			t.Error("WaitN() ignored the context deadline")
		}
	})

	t.Run("Refill", func(t *testing.T) {
		l := NewLimiter(1000)
		l.tokens = 0
		now := time.Now()
		l.lastUpdate = now.Add(-100 * time.Millisecond)

		l.refill(now)
		if l.tokens < 50 || l.tokens > 150 {
			t.Errorf("tokens after refill = %d, want about 100", l.tokens)
		}

		l.lastUpdate = now.Add(-time.Hour)
		l.refill(now)
		if l.tokens != l.bucketSize {
			t.Errorf("tokens = %d, want capped at %d", l.tokens, l.bucketSize)
		}
	})

	t.Run("ConsumeClamps", func(t *testing.T) {
		l := NewLimiter(1024)
		l.tokens = 100
		l.consume(200)
		if l.tokens != 0 {
			t.Errorf("tokens = %d, want 0", l.tokens)
		}
	})
}

func TestReader(t *testing.T) {
	t.Run("NilLimiterPassthrough", func(t *testing.T) {
		base := strings.NewReader("x")
		if NewReader(context.Background(), base, nil) != base {
			t.Error("NewReader() should return the original reader")
		}
		rc := io.NopCloser(base)
		if NewReadCloser(context.Background(), rc, nil) != rc {
			t.Error("NewReadCloser() should return the original reader")
		}
	})

	t.Run("ReadsAllContent", func(t *testing.T) {
		content := []byte("0123456789abcdef")
		rc := NewReadCloser(context.Background(), io.NopCloser(bytes.NewReader(content)), NewLimiter(1024*1024))

		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("ReadAll() = %q, want %q", got, content)
		}
		if err := rc.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		l := NewLimiter(1000)
		l.tokens = 0
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := NewReader(ctx, bytes.NewReader(make([]byte, 1024)), l)
		if _, err := r.Read(make([]byte, 100)); !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	})
}

func BenchmarkRateLimitedRead(b *testing.B) {
	content := make([]byte, 1024*1024)
	limiter := NewLimiter(1024 * 1024 * 1024)
	buf := make([]byte, 64*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(context.Background(), bytes.NewReader(content), limiter)
		for {
			if _, err := r.Read(buf); err != nil {
				break
			}
		}
	}
}
