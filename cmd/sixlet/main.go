package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lomik/zapwriter"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZaninAndrea/sixlet/internal/config"
	"github.com/ZaninAndrea/sixlet/internal/frame"
	"github.com/ZaninAndrea/sixlet/internal/storage"
	"github.com/ZaninAndrea/sixlet/internal/stream"
	"github.com/ZaninAndrea/sixlet/pkg/base64"
)

type cliOptions struct {
	configFile string
	input      string
	output     string
	mode       stream.Mode

	// Only the flags present on the command line override the config file.
	overrides func(cfg *config.Config)
}

func parseFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("sixlet", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: sixlet [flags] [path|-]\n")
		fs.PrintDefaults()
	}

	decode := fs.Bool("d", false, "decode instead of encode")
	configFile := fs.String("c", "", "config file (yaml)")
	output := fs.String("o", "-", "output path, - for stdout, s3://bucket/key for S3")
	lz4 := fs.Bool("z", false, "lz4 compress before encoding, decompress after decoding")
	overlapped := fs.Bool("overlap", false, "overlap reading, transforming and writing")
	chunkSize := fs.Int("chunk", stream.DefaultChunkSize, "chunk size in bytes")
	inFlight := fs.Int("inflight", stream.DefaultInFlight, "max chunks in flight when overlapped")
	workers := fs.Int("workers", 1, "transform workers when overlapped")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 1 {
		return cliOptions{}, errors.Errorf("expected at most one input path, got %d", fs.NArg())
	}

	opts := cliOptions{
		configFile: *configFile,
		input:      fs.Arg(0),
		output:     *output,
		mode:       stream.Encode,
	}
	if *decode {
		opts.mode = stream.Decode
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	opts.overrides = func(cfg *config.Config) {
		if set["z"] {
			cfg.LZ4 = *lz4
		}
		if set["overlap"] {
			cfg.Overlapped = *overlapped
		}
		if set["chunk"] {
			cfg.ChunkSize = *chunkSize
		}
		if set["inflight"] {
			cfg.InFlight = *inFlight
		}
		if set["workers"] {
			cfg.Workers = *workers
		}
	}

	return opts, nil
}

func loadConfig(opts cliOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		cfg, err = config.Load(opts.configFile)
		if err != nil {
			return cfg, err
		}
	}

	opts.overrides(&cfg)
	return cfg, cfg.Validate()
}

func run(ctx context.Context, opts cliOptions, cfg config.Config) error {
	logger := zapwriter.Logger("main")

	src, err := storage.Open(ctx, opts.input, cfg.S3)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := storage.Create(ctx, opts.output, cfg.S3)
	if err != nil {
		return err
	}

	var in io.Reader = src
	var out io.Writer = sink
	var unframe io.WriteCloser
	if cfg.LZ4 {
		if opts.mode == stream.Encode {
			compressed := frame.CompressReader(src)
			defer compressed.Close()
			in = compressed
		} else {
			unframe = frame.DecompressWriter(sink)
			out = unframe
		}
	}

	driver, err := stream.NewDriver(base64.Std, cfg.StreamOptions(opts.mode), zapwriter.Logger("stream"))
	if err != nil {
		storage.Abort(sink, err)
		return err
	}

	err = driver.Run(ctx, in, out)
	if unframe != nil {
		if closeErr := unframe.Close(); err == nil && !stream.IsClosedSink(closeErr) {
			err = closeErr
		}
	}
	if err != nil {
		storage.Abort(sink, err)
		return err
	}

	if err := sink.Close(); err != nil && !stream.IsClosedSink(err) {
		return err
	}

	stats := driver.Stats()
	logger.Info("done",
		zap.Stringer("mode", opts.mode),
		zap.Int64("chunks", stats.Chunks),
		zap.Int64("bytes_in", stats.BytesIn),
		zap.Int64("bytes_out", stats.BytesOut),
	)
	return nil
}

func main() {
	err := zapwriter.ApplyConfig([]zapwriter.Config{config.DefaultLoggerConfig})
	if err != nil {
		log.Fatal("Failed to initialize logger with default configuration")
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	if err := zapwriter.ApplyConfig(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to apply logger config: %s\n", err)
		os.Exit(1)
	}
	logger := zapwriter.Logger("main")
	logger.Debug("loaded config",
		zap.String("config_file", opts.configFile),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Bool("overlapped", cfg.Overlapped),
		zap.Int("in_flight", cfg.InFlight),
		zap.Int("workers", cfg.Workers),
		zap.Bool("lz4", cfg.LZ4),
	)

	// Writes to a closed stdout must fail with EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, cfg); err != nil {
		logger.Error("failed", zap.Stringer("mode", opts.mode), zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		cancel()
		os.Exit(1)
	}
}
