package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"flag"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lomik/zapwriter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZaninAndrea/sixlet/internal/config"
	"github.com/ZaninAndrea/sixlet/internal/stream"
	"github.com/ZaninAndrea/sixlet/pkg/base64"
)

func main() {
	size := flag.Int64("size", 1<<30, "bytes to generate")
	chunkSize := flag.Int("chunk", stream.DefaultChunkSize, "chunk size in bytes")
	inFlight := flag.Int("inflight", stream.DefaultInFlight, "max chunks in flight per driver")
	workers := flag.Int("workers", runtime.NumCPU(), "transform workers per driver")
	flag.Parse()

	loggerConfig := config.DefaultLoggerConfig
	loggerConfig.Level = "info"
	if err := zapwriter.ApplyConfig([]zapwriter.Config{loggerConfig}); err != nil {
		log.Fatal("Failed to initialize logger")
	}
	logger := zapwriter.Logger("bench")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	newDriver := func(mode stream.Mode) *stream.Driver {
		d, err := stream.NewDriver(base64.Std, stream.Options{
			Mode:       mode,
			ChunkSize:  *chunkSize,
			Overlapped: true,
			InFlight:   *inFlight,
			Workers:    *workers,
		}, zapwriter.Logger("stream"))
		if err != nil {
			logger.Fatal("invalid driver options", zap.Stringer("mode", mode), zap.Error(err))
		}
		return d
	}
	encoder := newDriver(stream.Encode)
	decoder := newDriver(stream.Decode)

	srcHash := sha256.New()
	dstHash := sha256.New()
	src := io.TeeReader(io.LimitReader(rand.New(rand.NewSource(time.Now().UnixNano())), *size), srcHash)

	ticker := time.NewTicker(time.Second)
	quit := make(chan struct{})
	go func() {
		var last int64
		for {
			select {
			case <-ticker.C:
				current := encoder.Stats().BytesIn
				logger.Info("throughput",
					zap.Int64("bytes_per_sec", current-last),
					zap.Int64("total", current),
				)
				last = current
			case <-quit:
				ticker.Stop()
				return
			}
		}
	}()

	start := time.Now()
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := encoder.Run(gctx, src, pw)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		err := decoder.Run(gctx, pr, dstHash)
		pr.CloseWithError(err)
		return err
	})
	err := g.Wait()
	close(quit)

	if err != nil {
		logger.Fatal("bench failed", zap.Error(err))
	}

	elapsed := time.Since(start)
	stats := encoder.Stats()
	logger.Info("bench finished",
		zap.Int64("bytes", stats.BytesIn),
		zap.Int64("encoded_bytes", stats.BytesOut),
		zap.Duration("elapsed", elapsed),
		zap.Float64("mib_per_sec", float64(stats.BytesIn)/(1<<20)/elapsed.Seconds()),
		zap.Bool("round_trip_ok", bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil))),
	)
}
