package stream

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ZaninAndrea/sixlet/pkg/containers"
)

// job is one chunk travelling through the overlapped pipeline. The buffer is
// owned by whichever stage currently holds the job.
type job struct {
	index  int64
	offset int64
	buf    *[]byte
	n      int
	result *containers.Future[[]byte]
}

func (j *job) data() []byte {
	return (*j.buf)[:j.n]
}

// runOverlapped reads, transforms and writes concurrently. The reader hands
// every job to the workers and, in the same order, to the writer, which
// awaits each result before moving on. Output order therefore matches read
// order regardless of which worker finishes first.
func (d *Driver) runOverlapped(ctx context.Context, src io.Reader, dst io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)

	// Acquired by the reader, released by the writer once the chunk is out.
	inFlight := semaphore.NewWeighted(int64(d.opts.InFlight))
	jobs := make(chan *job, d.opts.InFlight)
	pending := make(chan *job, d.opts.InFlight)

	chunkSize := d.opts.ChunkSize
	buffers := sync.Pool{New: func() any {
		buf := make([]byte, chunkSize)
		return &buf
	}}

	g.Go(func() error {
		defer close(pending)
		defer close(jobs)

		var index, offset int64
		for {
			if err := inFlight.Acquire(ctx, 1); err != nil {
				return err
			}

			buf := buffers.Get().(*[]byte)
			n, err := ReadChunk(src, *buf)
			if err != nil {
				return errors.Wrap(err, "read chunk")
			}
			if n == 0 {
				buffers.Put(buf)
				return nil
			}
			d.stats.chunkRead(n)
			last := n < len(*buf)

			j := &job{
				index:  index,
				offset: offset,
				buf:    buf,
				n:      n,
				result: containers.NewFuture[[]byte](),
			}

			// Neither send blocks: the semaphore keeps at most InFlight jobs queued.
			jobs <- j
			pending <- j

			if last {
				return nil
			}
			index++
			offset += int64(n)
		}
	})

	for w := 0; w < d.opts.Workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					j.result.Resolve(containers.Err[[]byte](err))
					continue
				}

				out, err := d.transform(j.data(), j.offset)
				buffers.Put(j.buf)
				j.buf = nil
				j.result.Resolve(containers.NewResult(out, err))
			}
			return nil
		})
	}

	g.Go(func() error {
		for j := range pending {
			res := j.result.Await(ctx)
			if res.IsErr() {
				return res.Err
			}

			d.logger.Debug("chunk done",
				zap.Int64("index", j.index),
				zap.Int("bytes_in", j.n),
				zap.Int("bytes_out", len(res.Value)),
			)

			err := d.write(dst, res.Value)
			inFlight.Release(1)
			if err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
