package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meridian-data/lanewatch/internal/units"
	"github.com/meridian-data/lanewatch/internal/vision"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches the /api/lane/params endpoint so the same JSON can be
// used for both startup configuration and runtime updates.
type TuningConfig struct {
	// Pipeline params
	PixelWidth      *int   `json:"pixel_width,omitempty"`
	ImageWidth      *int   `json:"image_width,omitempty"`
	ImageHeight     *int   `json:"image_height,omitempty"`
	EdgeThreshold   *int64 `json:"edge_threshold,omitempty"`
	GapThreshold    *int   `json:"gap_threshold,omitempty"`
	LegacySmoothing *bool  `json:"legacy_smoothing,omitempty"`

	// Geometry params
	MetersPerPixel *float64 `json:"meters_per_pixel,omitempty"`
	Units          *string  `json:"units,omitempty"`

	// Store params
	FlushInterval  *string `json:"flush_interval,omitempty"` // duration string like "5s"
	FlushBatchSize *int    `json:"flush_batch_size,omitempty"`

	// Capture params
	StatsInterval *string `json:"stats_interval,omitempty"` // duration string like "60s"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the JSON file retain their default values, so partial configs are
// safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into an empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if err := c.VisionParams().Validate(); err != nil {
		return err
	}

	if c.MetersPerPixel != nil && *c.MetersPerPixel <= 0 {
		return fmt.Errorf("meters_per_pixel must be positive, got %f", *c.MetersPerPixel)
	}

	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("invalid units %q, must be one of: %s", *c.Units, units.GetValidUnitsString())
	}

	if c.FlushInterval != nil && *c.FlushInterval != "" {
		if _, err := time.ParseDuration(*c.FlushInterval); err != nil {
			return fmt.Errorf("invalid flush_interval '%s': %w", *c.FlushInterval, err)
		}
	}

	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
	}

	if c.FlushBatchSize != nil && *c.FlushBatchSize < 1 {
		return fmt.Errorf("flush_batch_size must be at least 1, got %d", *c.FlushBatchSize)
	}

	return nil
}

// VisionParams assembles the pipeline parameters from the configured values,
// falling back to the built-in defaults for unset fields.
func (c *TuningConfig) VisionParams() vision.Params {
	p := vision.DefaultParams()
	if c.PixelWidth != nil {
		p.PixelWidth = *c.PixelWidth
	}
	if c.ImageWidth != nil {
		p.ImageWidth = *c.ImageWidth
	}
	if c.ImageHeight != nil {
		p.ImageHeight = *c.ImageHeight
	}
	if c.EdgeThreshold != nil {
		p.EdgeThreshold = *c.EdgeThreshold
	}
	if c.GapThreshold != nil {
		p.GapThreshold = *c.GapThreshold
	}
	if c.LegacySmoothing != nil {
		p.LegacySmoothing = *c.LegacySmoothing
	}
	return p
}

// GetMetersPerPixel returns the meters_per_pixel value or the default.
func (c *TuningConfig) GetMetersPerPixel() float64 {
	if c.MetersPerPixel == nil {
		return 0.025
	}
	return *c.MetersPerPixel
}

// GetUnits returns the units value or the default.
func (c *TuningConfig) GetUnits() string {
	if c.Units == nil || !units.IsValid(*c.Units) {
		return units.Pixels
	}
	return *c.Units
}

// GetFlushInterval parses and returns the FlushInterval as a time.Duration.
func (c *TuningConfig) GetFlushInterval() time.Duration {
	if c.FlushInterval == nil || *c.FlushInterval == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.FlushInterval)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetFlushBatchSize returns the flush_batch_size value or the default.
func (c *TuningConfig) GetFlushBatchSize() int {
	if c.FlushBatchSize == nil {
		return 64
	}
	return *c.FlushBatchSize
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *TuningConfig) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return 60 * time.Second // default
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}
