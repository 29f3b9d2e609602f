package config

import (
	"os"

	"github.com/lomik/zapwriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/ZaninAndrea/sixlet/internal/stream"
)

// DefaultLoggerConfig writes to stderr; stdout carries the data.
var DefaultLoggerConfig = zapwriter.Config{
	Logger:           "",
	File:             "stderr",
	Level:            "warn",
	Encoding:         "console",
	EncodingTime:     "iso8601",
	EncodingDuration: "seconds",
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type Config struct {
	ChunkSize  int                `yaml:"chunk_size"`
	Overlapped bool               `yaml:"overlapped"`
	InFlight   int                `yaml:"in_flight"`
	Workers    int                `yaml:"workers"`
	LZ4        bool               `yaml:"lz4"`
	Logger     []zapwriter.Config `yaml:"logger"`
	S3         S3Config           `yaml:"s3"`
}

func Default() Config {
	return Config{
		ChunkSize: stream.DefaultChunkSize,
		InFlight:  stream.DefaultInFlight,
		Workers:   1,
		Logger:    []zapwriter.Config{DefaultLoggerConfig},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "unable to load config file")
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "error parsing config file")
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that do not depend on the stream mode.
// Chunk alignment is checked by stream.NewDriver once the mode is known.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.InFlight <= 0 {
		return errors.Errorf("in_flight must be positive, got %d", c.InFlight)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if len(c.Logger) == 0 {
		return errors.New("at least one logger is required")
	}
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return errors.New("s3 access_key_id and secret_access_key must be set together")
	}
	return nil
}

// StreamOptions converts the config into driver options for mode.
func (c *Config) StreamOptions(mode stream.Mode) stream.Options {
	return stream.Options{
		Mode:       mode,
		ChunkSize:  c.ChunkSize,
		Overlapped: c.Overlapped,
		InFlight:   c.InFlight,
		Workers:    c.Workers,
	}
}
