package stream

import "sync/atomic"

// Stats counts the work done by a Driver. It is safe to read while a run is in progress.
type Stats struct {
	chunks   atomic.Int64
	bytesIn  atomic.Int64
	bytesOut atomic.Int64
}

type Snapshot struct {
	Chunks   int64
	BytesIn  int64
	BytesOut int64
}

func (s *Stats) chunkRead(n int) {
	s.chunks.Add(1)
	s.bytesIn.Add(int64(n))
}

func (s *Stats) written(n int) {
	s.bytesOut.Add(int64(n))
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Chunks:   s.chunks.Load(),
		BytesIn:  s.bytesIn.Load(),
		BytesOut: s.bytesOut.Load(),
	}
}
