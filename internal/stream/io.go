package stream

import (
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// ReadChunk fills buf from r until it is full or the input is exhausted.
// A count shorter than len(buf) means the end of the input was reached.
// Interrupted reads are retried.
func ReadChunk(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n

		if err == io.EOF {
			break
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}

	return total, nil
}

// IsClosedSink reports whether a write failed because nobody is reading anymore.
func IsClosedSink(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
