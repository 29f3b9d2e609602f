package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZaninAndrea/sixlet/pkg/base64"
)

// DefaultChunkSize is a multiple of both 3 and 4, so it is valid in either mode.
const DefaultChunkSize = 3 * 1024 * 1024

const DefaultInFlight = 16

var ErrMisalignedChunk = errors.New("chunk size does not align with base64 groups")
var ErrInvalidOptions = errors.New("invalid stream options")

// errSinkClosed is returned internally when the reader on the other end of
// the sink has gone away. Run turns it into a clean stop.
var errSinkClosed = errors.New("sink closed")

type Mode int

const (
	Encode Mode = iota
	Decode
)

func (m Mode) String() string {
	switch m {
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "encode", "":
		return Encode, nil
	case "decode":
		return Decode, nil
	default:
		return 0, errors.Wrapf(ErrInvalidOptions, "unknown mode %q", s)
	}
}

// groupSize is the number of input bytes that make up one whole base64 group.
func (m Mode) groupSize() int {
	if m == Decode {
		return 4
	}
	return 3
}

type Options struct {
	Mode      Mode
	ChunkSize int

	// Overlapped runs reading, transforming and writing as concurrent stages.
	Overlapped bool
	// InFlight caps the chunks held by the overlapped pipeline at once.
	InFlight int
	// Workers is the number of transform goroutines in overlapped mode.
	Workers int
}

// Driver moves bytes from a source to a sink one chunk at a time, applying
// the codec to every chunk.
type Driver struct {
	codec  *base64.Codec
	opts   Options
	logger *zap.Logger
	stats  Stats
}

func NewDriver(codec *base64.Codec, opts Options, logger *zap.Logger) (*Driver, error) {
	if codec == nil {
		codec = base64.Std
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Mode != Encode && opts.Mode != Decode {
		return nil, errors.Wrapf(ErrInvalidOptions, "unknown mode %d", int(opts.Mode))
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkSize < 0 {
		return nil, errors.Wrapf(ErrInvalidOptions, "negative chunk size %d", opts.ChunkSize)
	}
	if opts.ChunkSize%opts.Mode.groupSize() != 0 {
		return nil, errors.Wrapf(ErrMisalignedChunk, "%s needs a multiple of %d, got %d",
			opts.Mode, opts.Mode.groupSize(), opts.ChunkSize)
	}
	if opts.InFlight <= 0 {
		opts.InFlight = DefaultInFlight
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &Driver{
		codec:  codec,
		opts:   opts,
		logger: logger,
	}, nil
}

func (d *Driver) Options() Options {
	return d.opts
}

func (d *Driver) Stats() Snapshot {
	return d.stats.Snapshot()
}

// Run transforms everything readable from src into dst.
// A sink that has been closed by its reader ends the run without an error.
func (d *Driver) Run(ctx context.Context, src io.Reader, dst io.Writer) error {
	d.logger.Debug("stream started",
		zap.Stringer("mode", d.opts.Mode),
		zap.Int("chunk_size", d.opts.ChunkSize),
		zap.Bool("overlapped", d.opts.Overlapped),
		zap.Int("in_flight", d.opts.InFlight),
		zap.Int("workers", d.opts.Workers),
	)

	var err error
	if d.opts.Overlapped {
		err = d.runOverlapped(ctx, src, dst)
	} else {
		err = d.runSync(ctx, src, dst)
	}

	snapshot := d.stats.Snapshot()
	if errors.Is(err, errSinkClosed) {
		d.logger.Info("sink closed, stopping",
			zap.Int64("chunks", snapshot.Chunks),
			zap.Int64("bytes_out", snapshot.BytesOut),
		)
		return nil
	}
	if err != nil {
		return err
	}

	d.logger.Debug("stream finished",
		zap.Int64("chunks", snapshot.Chunks),
		zap.Int64("bytes_in", snapshot.BytesIn),
		zap.Int64("bytes_out", snapshot.BytesOut),
	)
	return nil
}

func (d *Driver) runSync(ctx context.Context, src io.Reader, dst io.Writer) error {
	buf := make([]byte, d.opts.ChunkSize)
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := ReadChunk(src, buf)
		if err != nil {
			return errors.Wrap(err, "read chunk")
		}
		if n == 0 {
			return nil
		}
		d.stats.chunkRead(n)

		out, err := d.transform(buf[:n], offset)
		if err != nil {
			return err
		}
		if err := d.write(dst, out); err != nil {
			return err
		}

		if n < len(buf) {
			return nil
		}
		offset += int64(n)
	}
}

// transform applies the codec to a single chunk. offset is the position of
// the chunk in the source, used to report decode errors.
func (d *Driver) transform(chunk []byte, offset int64) ([]byte, error) {
	if d.opts.Mode == Encode {
		return d.codec.Encode(chunk), nil
	}

	out, err := d.codec.Decode(trimTrailingSpace(chunk))
	if err != nil {
		return nil, errors.Wrapf(err, "decode chunk at offset %d", offset)
	}
	return out, nil
}

func (d *Driver) write(dst io.Writer, p []byte) error {
	if len(p) == 0 {
		return nil
	}

	n, err := dst.Write(p)
	d.stats.written(n)
	if err != nil {
		if IsClosedSink(err) {
			return errSinkClosed
		}
		return errors.Wrap(err, "write chunk")
	}
	return nil
}

func trimTrailingSpace(chunk []byte) []byte {
	return bytes.TrimRight(chunk, " \t\r\n\v\f")
}
