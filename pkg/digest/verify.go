package digest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Difference describes why two files are not byte-identical
type Difference struct {
	Offset int64
	Reason string
}

func (d *Difference) Error() string {
	return d.Reason
}

// Verify compares two files byte by byte through the hasher's buffers.
// It returns nil when the contents are identical, a *Difference when they
// are not, and any other error when a file cannot be read.
func (h *Hasher) Verify(ctx context.Context, backend storage.Backend, pathA, pathB string) error {
	infoA, err := backend.Stat(ctx, pathA)
	if err != nil {
		return err
	}
	infoB, err := backend.Stat(ctx, pathB)
	if err != nil {
		return err
	}
	if infoA.Size != infoB.Size {
		return &Difference{Offset: 0, Reason: fmt.Sprintf("size mismatch: %d != %d", infoA.Size, infoB.Size)}
	}

	readerA, err := backend.Read(ctx, pathA)
	if err != nil {
		return err
	}
	defer readerA.Close()

	readerB, err := backend.Read(ctx, pathB)
	if err != nil {
		return err
	}
	defer readerB.Close()

	var srcA, srcB io.Reader = readerA, readerB
	if h.readerWrapper != nil {
		srcA = h.readerWrapper(ctx, readerA)
		srcB = h.readerWrapper(ctx, readerB)
	}

	bufA := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufA)
	bufB := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufB)

	var compared int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// ReadFull keeps both sides aligned even when Read returns short counts
		nA, errA := io.ReadFull(srcA, *bufA)
		nB, errB := io.ReadFull(srcB, *bufB)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return fmt.Errorf("failed to read %s: %w", pathA, errA)
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return fmt.Errorf("failed to read %s: %w", pathB, errB)
		}

		n := min(nA, nB)
		if !bytes.Equal((*bufA)[:n], (*bufB)[:n]) {
			for i := 0; i < n; i++ {
				if (*bufA)[i] != (*bufB)[i] {
					return &Difference{
						Offset: compared + int64(i),
						Reason: fmt.Sprintf("content differs at byte offset %d", compared+int64(i)),
					}
				}
			}
		}
		if nA != nB {
			return &Difference{Offset: compared + int64(n), Reason: fmt.Sprintf("length differs after %d bytes", compared+int64(n))}
		}
		compared += int64(n)

		if errA != nil || errB != nil {
			return nil
		}
	}
}
