package digest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

func TestVerify(t *testing.T) {
	ctx := context.Background()
	long := strings.Repeat("0123456789", 1000)
	backend := newBackend(t, map[string]string{
		"a.jpg":     long,
		"b.jpg":     long,
		"c.jpg":     long[:5000] + "X" + long[5001:],
		"short.jpg": long[:10],
		"e1.jpg":    "",
		"e2.jpg":    "",
	})
	h, err := New(models.HashMD5, 4096)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name       string
		a, b       string
		wantOffset int64 // -1 means identical
	}{
		{"Identical", "a.jpg", "b.jpg", -1},
		{"Empty", "e1.jpg", "e2.jpg", -1},
		{"ContentDiffers", "a.jpg", "c.jpg", 5000},
		{"SizeDiffers", "a.jpg", "short.jpg", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify(ctx, backend, tt.a, tt.b)
			if tt.wantOffset < 0 {
				if err != nil {
					t.Errorf("Verify() error = %v, want nil", err)
				}
				return
			}
			var diff *Difference
			if !errors.As(err, &diff) {
				t.Fatalf("Verify() error = %v, want *Difference", err)
			}
			if diff.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", diff.Offset, tt.wantOffset)
			}
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		err := h.Verify(ctx, backend, "a.jpg", "nope.jpg")
		var diff *Difference
		if err == nil || errors.As(err, &diff) {
			t.Errorf("Verify() error = %v, want read error", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := h.Verify(cctx, backend, "a.jpg", "b.jpg"); !errors.Is(err, context.Canceled) {
			t.Errorf("Verify() error = %v, want context.Canceled", err)
		}
	})
}
