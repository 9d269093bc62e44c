package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBufferSize = 256 << 10

// ErrClientGone marks copy failures on the client side of the connection:
// a disconnect, a reset, or a write that stalled past the deadline.
var ErrClientGone = errors.New("client gone")

// Copier moves a byte window from a file to an HTTP response in bounded
// chunks, flushing each one. Before every write the connection's write
// deadline is pushed StallTimeout into the future, so a client that stops
// reading fails the write instead of pinning the file and goroutine.
type Copier struct {
	BufferSize   int
	StallTimeout time.Duration
}

// Copy writes window of src to w. It returns the number of bytes written and
// the first error that stopped the copy: the context error when the request
// ended, or the read or write error otherwise.
func (c Copier) Copy(ctx context.Context, w http.ResponseWriter, src io.ReaderAt, window Window) (int64, error) {
	size := c.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	if n := window.Len(); n < int64(size) {
		size = int(max(n, 1))
	}
	buf := make([]byte, size)

	rc := http.NewResponseController(w)
	section := io.NewSectionReader(src, window.Start, window.Len())

	var written int64
	for written < window.Len() {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := section.Read(buf)
		if n > 0 {
			if c.StallTimeout > 0 {
				if err := rc.SetWriteDeadline(time.Now().Add(c.StallTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
					return written, fmt.Errorf("%w: set write deadline: %w", ErrClientGone, err)
				}
			}
			m, err := w.Write(buf[:n])
			written += int64(m)
			if err != nil {
				return written, fmt.Errorf("%w: write: %w", ErrClientGone, err)
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, fmt.Errorf("%w: flush: %w", ErrClientGone, err)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return written, fmt.Errorf("read: %w", readErr)
		}
	}

	if written < window.Len() {
		return written, io.ErrUnexpectedEOF
	}
	return written, nil
}

// IsClientGone reports whether err means the client went away mid-stream
// rather than a server-side failure.
func IsClientGone(err error) bool {
	return errors.Is(err, ErrClientGone) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
