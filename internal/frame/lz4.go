// Package frame wraps the raw side of a stream in lz4 frames, so that
// compressed payloads can be armored with base64.
package frame

import (
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// CompressReader returns a reader yielding src compressed as an lz4 frame.
// Closing the reader stops the compression goroutine.
func CompressReader(src io.Reader) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		compressedWriter := lz4.NewWriter(pw)

		if _, err := io.Copy(compressedWriter, src); err != nil {
			pw.CloseWithError(errors.Wrap(err, "lz4 compress"))
			return
		}

		pw.CloseWithError(compressedWriter.Close())
	}()

	return pr
}

type decompressWriter struct {
	pw   *io.PipeWriter
	done chan error
}

// DecompressWriter returns a writer that accepts an lz4 frame and writes the
// decompressed bytes to dst. Close must be called to flush the tail of the
// frame; it reports any decompression or write error.
func DecompressWriter(dst io.Writer) io.WriteCloser {
	pr, pw := io.Pipe()
	w := &decompressWriter{pw: pw, done: make(chan error, 1)}

	go func() {
		compressedReader := lz4.NewReader(pr)

		_, err := compressedReader.WriteTo(dst)
		// Unblock pending writes if decompression stopped early.
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *decompressWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *decompressWriter) Close() error {
	w.pw.Close()
	return <-w.done
}
