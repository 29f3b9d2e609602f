// Package storage resolves the source and sink paths given to the CLI.
//
// A path is one of:
//   - "" or "-": standard input or output
//   - "s3://bucket/key": an S3 object
//   - anything else: a local file
package storage

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/lomik/zapwriter"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZaninAndrea/sixlet/internal/config"
)

const s3Scheme = "s3://"

var ErrInvalidS3URL = errors.New("invalid s3 url")

type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return s3Scheme + l.Bucket + "/" + l.Key
}

func IsStdio(path string) bool {
	return path == "" || path == "-"
}

func IsS3(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3URL splits an s3://bucket/key url.
func ParseS3URL(raw string) (Location, error) {
	if !IsS3(raw) {
		return Location{}, errors.Wrapf(ErrInvalidS3URL, "%q has no %s scheme", raw, s3Scheme)
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(raw, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, errors.Wrapf(ErrInvalidS3URL, "%q needs both a bucket and a key", raw)
	}

	return Location{Bucket: bucket, Key: key}, nil
}

// Open returns the source named by path.
func Open(ctx context.Context, path string, cfg config.S3Config) (io.ReadCloser, error) {
	logger := zapwriter.Logger("storage")

	switch {
	case IsStdio(path):
		return io.NopCloser(os.Stdin), nil
	case IsS3(path):
		loc, err := ParseS3URL(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("opening s3 object", zap.Stringer("location", loc))
		return openS3(ctx, loc, cfg)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open source")
		}
		return f, nil
	}
}

// Create returns the sink named by path. The sink must be closed to flush it.
func Create(ctx context.Context, path string, cfg config.S3Config) (io.WriteCloser, error) {
	logger := zapwriter.Logger("storage")

	switch {
	case IsStdio(path):
		return nopWriteCloser{os.Stdout}, nil
	case IsS3(path):
		loc, err := ParseS3URL(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("uploading s3 object", zap.Stringer("location", loc))
		return createS3(ctx, loc, cfg)
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrap(err, "create sink")
		}
		return f, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Abort closes a sink after a failed run. Sinks that can discard their
// output, such as S3 uploads, do so.
func Abort(w io.WriteCloser, cause error) error {
	if aborter, ok := w.(interface{ CloseWithError(error) error }); ok {
		return aborter.CloseWithError(cause)
	}
	return w.Close()
}
