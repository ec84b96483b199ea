// Package config loads settings for the track tools.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/phroun/tracks"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Identify IdentifyConfig `mapstructure:"identify"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds track library limits.
type EngineConfig struct {
	MaxViewDepth int `mapstructure:"max_view_depth"`
	// SampleBudget is a human-readable byte size ("64MiB", "0" for unlimited).
	SampleBudget string `mapstructure:"sample_budget"`
}

// IdentifyConfig holds ad search settings.
type IdentifyConfig struct {
	ThresholdRatio float64 `mapstructure:"threshold_ratio"`
}

// Defaults.
const (
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultMaxViewDepth   = tracks.DefaultMaxViewDepth
	DefaultSampleBudget   = "0"
	DefaultThresholdRatio = tracks.DefaultThresholdRatio
)

// bytesPerSample converts the byte budget into samples.
const bytesPerSample = 2

// Sentinel errors for configuration validation.
var (
	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("log.format must be text or json")
	// ErrInvalidSampleBudget indicates the budget is not a byte size.
	ErrInvalidSampleBudget = errors.New("engine.sample_budget must be a byte size")
	// ErrInvalidThresholdRatio indicates the ratio is out of range.
	ErrInvalidThresholdRatio = errors.New("identify.threshold_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	if _, err := c.SampleBudgetSamples(); err != nil {
		return err
	}

	if c.Identify.ThresholdRatio < 0 || c.Identify.ThresholdRatio > 1 {
		return ErrInvalidThresholdRatio
	}

	return nil
}

// SampleBudgetSamples returns the sample budget as a sample count (0 = unlimited).
func (c *Config) SampleBudgetSamples() (int64, error) {
	if c.Engine.SampleBudget == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Engine.SampleBudget)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSampleBudget, c.Engine.SampleBudget)
	}
	return int64(size / bytesPerSample), nil
}

// LibraryOptions builds track library options from the configuration.
func (c *Config) LibraryOptions(logger *slog.Logger) (tracks.LibraryOptions, error) {
	budget, err := c.SampleBudgetSamples()
	if err != nil {
		return tracks.LibraryOptions{}, err
	}

	return tracks.LibraryOptions{
		Logger:       logger,
		MaxViewDepth: c.Engine.MaxViewDepth,
		SampleBudget: budget,
	}, nil
}

// IdentifyOptions builds ad search options from the configuration.
func (c *Config) IdentifyOptions() tracks.IdentifyOptions {
	return tracks.IdentifyOptions{ThresholdRatio: c.Identify.ThresholdRatio}
}
