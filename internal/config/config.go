// Package config loads pipeline configuration from environment variables
// with an optional YAML file overlay.
//
// Environment variables use the PREFETCH_ prefix. A YAML file given to
// MergeFile overrides whatever the environment supplied, field by field.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/mlpipe/prefetch/internal/loader"
)

// Config holds all application configuration.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Dataset DatasetConfig `yaml:"dataset"`
	Logging LogConfig     `yaml:"logging"`
}

// LoaderConfig holds pipeline construction parameters.
type LoaderConfig struct {
	NumLoaders         int           `envconfig:"PREFETCH_NUM_LOADERS" default:"4" yaml:"num_loaders"`
	MinibatchQueueSize int           `envconfig:"PREFETCH_MINIBATCH_QUEUE_SIZE" default:"64" yaml:"minibatch_queue_size"`
	BlobsQueueCapacity int           `envconfig:"PREFETCH_BLOBS_QUEUE_CAPACITY" default:"8" yaml:"blobs_queue_capacity"`
	NumDevices         int           `envconfig:"PREFETCH_NUM_DEVICES" default:"1" yaml:"num_devices"`
	BatchSize          int           `envconfig:"PREFETCH_BATCH_SIZE" default:"2" yaml:"batch_size"`
	Seed               int64         `envconfig:"PREFETCH_SEED" default:"3" yaml:"seed"`
	PrefillTimeout     time.Duration `envconfig:"PREFETCH_PREFILL_TIMEOUT" default:"30s" yaml:"prefill_timeout"`
	JoinTimeout        time.Duration `envconfig:"PREFETCH_JOIN_TIMEOUT" default:"5s" yaml:"join_timeout"`
}

// DatasetConfig describes the synthetic dataset the benchmark runs over.
type DatasetConfig struct {
	Size       int `envconfig:"PREFETCH_DATASET_SIZE" default:"1000" yaml:"size"`
	ImageSize  int `envconfig:"PREFETCH_IMAGE_SIZE" default:"224" yaml:"image_size"`
	NumClasses int `envconfig:"PREFETCH_NUM_CLASSES" default:"81" yaml:"num_classes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"PREFETCH_LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"PREFETCH_LOG_DEV" default:"false" yaml:"development"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// MergeFile overlays a YAML configuration file onto cfg.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoaderConfig converts the loader section into the pipeline's
// construction parameters.
func (c *Config) LoaderConfig() loader.Config {
	return loader.Config{
		NumLoaders:         c.Loader.NumLoaders,
		MinibatchQueueSize: c.Loader.MinibatchQueueSize,
		BlobsQueueCapacity: c.Loader.BlobsQueueCapacity,
		NumDevices:         c.Loader.NumDevices,
		BatchSize:          c.Loader.BatchSize,
		Seed:               c.Loader.Seed,
		PrefillTimeout:     c.Loader.PrefillTimeout,
		JoinTimeout:        c.Loader.JoinTimeout,
	}
}

// Validate checks the configuration the same way the loader will at
// construction, so the CLI can fail before allocating anything.
func (c *Config) Validate() error {
	if c.Dataset.Size <= 0 {
		return fmt.Errorf("%w: dataset size must be positive, got %d", loader.ErrInvalidConfig, c.Dataset.Size)
	}
	return c.LoaderConfig().Validate()
}
