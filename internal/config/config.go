// Package config loads rotacore settings from a YAML file and ROTACORE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"rotacore/internal/blob"
	"rotacore/internal/core"
	"rotacore/pkg/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ROTACORE_"

// Config is the complete runtime configuration.
type Config struct {
	Schedule ScheduleConfig     `yaml:"schedule"`
	Sampling SamplingConfig     `yaml:"sampling"`
	Storage  core.StorageConfig `yaml:"storage"`
	Blob     blob.Config        `yaml:"blob"`
	Logging  LoggingConfig      `yaml:"logging"`
	Metrics  MetricsConfig      `yaml:"metrics"`
}

// ScheduleConfig holds the horizon and objective weights.
type ScheduleConfig struct {
	HorizonWeeks   int   `yaml:"horizon_weeks"`
	FreqWeight     int64 `yaml:"freq_weight"`
	SpaceWeight    int64 `yaml:"space_weight"`
	LeadWeight     int64 `yaml:"lead_weight"`
	OptionalWeight int64 `yaml:"optional_weight"`
}

// SamplingConfig controls the solver runs per generation.
type SamplingConfig struct {
	Samples          int           `yaml:"samples"`
	Concurrency      int           `yaml:"concurrency"`
	TimeLimit        time.Duration `yaml:"time_limit"`
	ImprovementLimit int64         `yaml:"improvement_limit"`
	AcceptFeasible   bool          `yaml:"accept_feasible"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// MetricsConfig selects the metrics exporter.
type MetricsConfig struct {
	Driver   string `yaml:"driver"`   // expvar, prometheus or none
	Textfile string `yaml:"textfile"` // prometheus text exposition written after each command
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	w := core.DefaultWeights()
	s := core.DefaultSampleOptions()
	return &Config{
		Schedule: ScheduleConfig{
			HorizonWeeks:   domain.HorizonWeeks,
			FreqWeight:     w.Frequency,
			SpaceWeight:    w.Spacing,
			LeadWeight:     w.LeadSpacing,
			OptionalWeight: w.Optional,
		},
		Sampling: SamplingConfig{Samples: s.Count, TimeLimit: s.TimeLimit},
		Storage:  core.StorageConfig{Driver: core.StorageSQLite},
		Blob:     blob.Config{Driver: blob.DriverFilesystem, FSRoot: "./generations"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Metrics:  MetricsConfig{Driver: "none"},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file, or an empty path, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Weights converts the schedule section into objective weights.
func (c *Config) Weights() core.Weights {
	return core.Weights{
		Frequency:   c.Schedule.FreqWeight,
		Spacing:     c.Schedule.SpaceWeight,
		LeadSpacing: c.Schedule.LeadWeight,
		Optional:    c.Schedule.OptionalWeight,
	}
}

// SampleOptions converts the sampling section.
func (c *Config) SampleOptions() core.SampleOptions {
	return core.SampleOptions{
		Count:            c.Sampling.Samples,
		Concurrency:      c.Sampling.Concurrency,
		TimeLimit:        c.Sampling.TimeLimit,
		ImprovementLimit: c.Sampling.ImprovementLimit,
		AcceptFeasible:   c.Sampling.AcceptFeasible,
	}
}

// Validate checks ranges and driver names.
func (c *Config) Validate() error {
	var errs []error
	if h := c.Schedule.HorizonWeeks; h < 1 || h > domain.HorizonWeeks {
		errs = append(errs, domain.ConfigurationError{Field: "horizon_weeks", Value: h, Reason: fmt.Sprintf("must be between 1 and %d", domain.HorizonWeeks)})
	}
	if err := c.Weights().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Sampling.Samples < 0 {
		errs = append(errs, domain.ConfigurationError{Field: "samples", Value: c.Sampling.Samples, Reason: "must not be negative"})
	}
	if c.Sampling.Concurrency < 0 {
		errs = append(errs, domain.ConfigurationError{Field: "concurrency", Value: c.Sampling.Concurrency, Reason: "must not be negative"})
	}
	switch c.Storage.Driver {
	case "", core.StorageMemory, core.StorageSQLite, core.StoragePostgres:
	default:
		errs = append(errs, domain.ConfigurationError{Field: "storage.driver", Value: c.Storage.Driver, Reason: "expected memory, sqlite or postgres"})
	}
	switch c.Blob.Driver {
	case "", blob.DriverFilesystem, blob.DriverMemory, blob.DriverS3:
	default:
		errs = append(errs, domain.ConfigurationError{Field: "blob.driver", Value: c.Blob.Driver, Reason: "expected fs, memory or s3"})
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, domain.ConfigurationError{Field: "logging.format", Value: c.Logging.Format, Reason: "expected json or console"})
	}
	switch c.Metrics.Driver {
	case "", "none", "expvar", "prometheus":
	default:
		errs = append(errs, domain.ConfigurationError{Field: "metrics.driver", Value: c.Metrics.Driver, Reason: "expected none, expvar or prometheus"})
	}
	return errors.Join(errs...)
}

// applyEnvOverrides applies ROTACORE_* environment variables. Malformed
// numbers and booleans are reported rather than ignored.
func (c *Config) applyEnvOverrides() error {
	var errs []error
	setInt := func(key string, dst *int) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	setInt64 := func(key string, dst *int64) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	setInt("HORIZON_WEEKS", &c.Schedule.HorizonWeeks)
	setInt64("FREQ_WEIGHT", &c.Schedule.FreqWeight)
	setInt64("SPACE_WEIGHT", &c.Schedule.SpaceWeight)
	setInt64("LEAD_WEIGHT", &c.Schedule.LeadWeight)
	setInt64("OPTIONAL_WEIGHT", &c.Schedule.OptionalWeight)

	setInt("SAMPLES", &c.Sampling.Samples)
	setInt("CONCURRENCY", &c.Sampling.Concurrency)
	setInt64("IMPROVEMENT_LIMIT", &c.Sampling.ImprovementLimit)
	setBool("ACCEPT_FEASIBLE", &c.Sampling.AcceptFeasible)
	if v := os.Getenv(EnvPrefix + "TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIME_LIMIT: %w", EnvPrefix, err))
		} else {
			c.Sampling.TimeLimit = d
		}
	}

	if v := os.Getenv(EnvPrefix + "STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = core.StorageDriver(v)
	}
	setString("SQLITE_PATH", &c.Storage.SQLitePath)
	setString("POSTGRES_DSN", &c.Storage.PostgresDSN)

	if v := os.Getenv(EnvPrefix + "BLOB_DRIVER"); v != "" {
		c.Blob.Driver = blob.Driver(v)
	}
	setString("BLOB_FS_ROOT", &c.Blob.FSRoot)
	setString("S3_BUCKET", &c.Blob.S3.Bucket)
	setString("S3_REGION", &c.Blob.S3.Region)
	setString("S3_ENDPOINT", &c.Blob.S3.Endpoint)
	setBool("S3_PATH_STYLE", &c.Blob.S3.PathStyle)
	setString("S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	setString("S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FORMAT", &c.Logging.Format)
	setString("METRICS_DRIVER", &c.Metrics.Driver)
	setString("METRICS_TEXTFILE", &c.Metrics.Textfile)
	return errors.Join(errs...)
}
