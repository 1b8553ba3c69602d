// Package config holds the colstore configuration.
//
// The configuration is organized into sections:
//   - Storage: data root, shard size cap, shard loading mode
//   - Analysis: reporting policy and optional statistics
//   - Logging: zap logger settings
//   - Observability: metrics endpoint and tracing
//   - Snapshot: archive compression
//
// Example usage:
//
//	cfg, err := config.Load("colstore.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Storage.MaxShardSize = 1 << 20
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"github.com/catalystcommunity/db-storage-poc/pkg/analyze"
	"github.com/catalystcommunity/db-storage-poc/pkg/compression"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
)

// DefaultMaxShardSize is the shard cap applied when none is configured.
const DefaultMaxShardSize int64 = 64 << 20

// Config is the complete colstore configuration.
type Config struct {
	Storage       StorageConfig       `yaml:"storage" json:"storage" mapstructure:"storage"`
	Analysis      AnalysisConfig      `yaml:"analysis" json:"analysis" mapstructure:"analysis"`
	Logging       logger.Config       `yaml:"logging" json:"logging" mapstructure:"logging"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
	Snapshot      SnapshotConfig      `yaml:"snapshot" json:"snapshot" mapstructure:"snapshot"`
}

// StorageConfig locates the data root and controls shard layout.
type StorageConfig struct {
	// DataRoot is the directory holding one subdirectory per table
	DataRoot string `yaml:"data_root" json:"data_root" mapstructure:"data_root"`
	// MaxShardSize caps each shard file in bytes
	MaxShardSize int64 `yaml:"max_shard_size" json:"max_shard_size" mapstructure:"max_shard_size"`
	// UseMmap maps shards instead of reading them into the heap
	UseMmap bool `yaml:"use_mmap" json:"use_mmap" mapstructure:"use_mmap"`
}

// AnalysisConfig controls the statistics produced by analyze.
type AnalysisConfig struct {
	// GraceDays keeps the previous month as reporting month for this many
	// days into a new month
	GraceDays int `yaml:"grace_days" json:"grace_days" mapstructure:"grace_days"`
	// NarrowQuantity sums per-order quantities modulo 256
	NarrowQuantity bool `yaml:"narrow_quantity" json:"narrow_quantity" mapstructure:"narrow_quantity"`
	// TopN ranks the top products when positive
	TopN int `yaml:"top_n" json:"top_n" mapstructure:"top_n"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// MetricsAddr serves /metrics when non-empty (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" mapstructure:"metrics_addr"`
	// Tracing exports spans to stderr
	Tracing bool `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
	// SamplingRate controls trace sampling (0.0-1.0)
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate" mapstructure:"sampling_rate"`
}

// SnapshotConfig selects snapshot archive compression.
type SnapshotConfig struct {
	Algorithm string `yaml:"algorithm" json:"algorithm" mapstructure:"algorithm"`
	// Level is 1 (fastest) through 9 (best); 0 selects the default
	Level int `yaml:"level" json:"level" mapstructure:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataRoot:     "./data",
			MaxShardSize: DefaultMaxShardSize,
			UseMmap:      false,
		},
		Analysis: AnalysisConfig{
			GraceDays:      analyze.DefaultGraceDays,
			NarrowQuantity: false,
			TopN:           0,
		},
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
		Observability: ObservabilityConfig{
			SamplingRate: 1.0,
		},
		Snapshot: SnapshotConfig{
			Algorithm: string(compression.Zstd),
			Level:     int(compression.Default),
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Storage.DataRoot == "" {
		return errors.New(errors.ErrorTypeConfig, "storage.data_root is required")
	}
	if c.Storage.MaxShardSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "storage.max_shard_size must be positive, got %d", c.Storage.MaxShardSize)
	}
	if c.Analysis.GraceDays < 0 || c.Analysis.GraceDays > 27 {
		return errors.Newf(errors.ErrorTypeConfig, "analysis.grace_days must be between 0 and 27, got %d", c.Analysis.GraceDays)
	}
	if c.Analysis.TopN < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "analysis.top_n cannot be negative, got %d", c.Analysis.TopN)
	}
	if c.Observability.SamplingRate < 0 || c.Observability.SamplingRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "observability.sampling_rate must be within [0, 1], got %g", c.Observability.SamplingRate)
	}
	if _, err := compression.ParseAlgorithm(c.Snapshot.Algorithm); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "snapshot.algorithm")
	}
	if c.Snapshot.Level < 0 || c.Snapshot.Level > 9 {
		return errors.Newf(errors.ErrorTypeConfig, "snapshot.level must be between 0 and 9, got %d", c.Snapshot.Level)
	}
	return nil
}

// Policy returns the reporting policy configured for analysis.
func (a AnalysisConfig) Policy() analyze.ReportingPolicy {
	return analyze.ReportingPolicy{GraceDays: a.GraceDays}
}

// Compression returns the compressor configuration for snapshots.
func (s SnapshotConfig) Compression() (*compression.Config, error) {
	algorithm, err := compression.ParseAlgorithm(s.Algorithm)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "snapshot.algorithm")
	}
	return &compression.Config{Algorithm: algorithm, Level: compression.Level(s.Level)}, nil
}
