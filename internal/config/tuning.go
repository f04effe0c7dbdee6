// Package config loads the analysis tuning file: every analytics threshold
// the engine consults, overridable per circuit without code changes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/f1nsight/telemetry/internal/telemetry"
)

// AnalysisTuning is the root tuning configuration. Fields are pointers so a
// partial JSON file overrides only what it names; the Get* methods provide
// the defaults for everything else.
type AnalysisTuning struct {
	// Resampler params
	ResampleStepM      *float64 `json:"resample_step_m,omitempty"`
	IrregularSpacingCV *float64 `json:"irregular_spacing_cv,omitempty"`

	// Channel activity params
	DRSOpenThreshold     *int     `json:"drs_open_threshold,omitempty"`
	AggressiveBrakingKmh *float64 `json:"aggressive_braking_kmh,omitempty"`

	// Zone detection params
	HighSpeedFraction *float64 `json:"high_speed_fraction,omitempty"`
	LowSpeedFraction  *float64 `json:"low_speed_fraction,omitempty"`
	ZoneMergeGapM     *float64 `json:"zone_merge_gap_m,omitempty"`
	MinZoneLengthM    *float64 `json:"min_zone_length_m,omitempty"`

	// Dominance params
	DominanceSegments   *int     `json:"dominance_segments,omitempty"`
	DominanceFullScaleS *float64 `json:"dominance_full_scale_s,omitempty"`

	// Session cache params
	CacheTTL *string `json:"cache_ttl,omitempty"` // duration string like "10m"
}

// EmptyAnalysisTuning returns an AnalysisTuning with all fields unset.
func EmptyAnalysisTuning() *AnalysisTuning {
	return &AnalysisTuning{}
}

// LoadAnalysisTuning loads an AnalysisTuning from a JSON file. The file is
// validated to have a .json extension and stay under the max file size.
// Fields omitted from the JSON keep their defaults, so partial configs are
// safe.
func LoadAnalysisTuning(path string) (*AnalysisTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	cfg := EmptyAnalysisTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *AnalysisTuning) Validate() error {
	if c.ResampleStepM != nil && *c.ResampleStepM <= 0 {
		return fmt.Errorf("resample_step_m must be positive, got %f", *c.ResampleStepM)
	}
	if c.HighSpeedFraction != nil {
		if *c.HighSpeedFraction <= 0 || *c.HighSpeedFraction > 1 {
			return fmt.Errorf("high_speed_fraction must be in (0,1], got %f", *c.HighSpeedFraction)
		}
	}
	if c.LowSpeedFraction != nil {
		if *c.LowSpeedFraction <= 0 || *c.LowSpeedFraction > 1 {
			return fmt.Errorf("low_speed_fraction must be in (0,1], got %f", *c.LowSpeedFraction)
		}
	}
	if c.ZoneMergeGapM != nil && *c.ZoneMergeGapM < 0 {
		return fmt.Errorf("zone_merge_gap_m must be non-negative, got %f", *c.ZoneMergeGapM)
	}
	if c.MinZoneLengthM != nil && *c.MinZoneLengthM < 0 {
		return fmt.Errorf("min_zone_length_m must be non-negative, got %f", *c.MinZoneLengthM)
	}
	if c.DominanceSegments != nil && *c.DominanceSegments < 1 {
		return fmt.Errorf("dominance_segments must be at least 1, got %d", *c.DominanceSegments)
	}
	if c.DominanceFullScaleS != nil && *c.DominanceFullScaleS <= 0 {
		return fmt.Errorf("dominance_full_scale_s must be positive, got %f", *c.DominanceFullScaleS)
	}
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}
	return nil
}

// GetCacheTTL parses and returns the session cache TTL.
func (c *AnalysisTuning) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return 10 * time.Minute // default
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return 10 * time.Minute // default on parse error
	}
	return d
}

// Analysis resolves the tuning into the plain config consumed by the
// analytics core, filling defaults for unset fields.
func (c *AnalysisTuning) Analysis() telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if c.ResampleStepM != nil {
		cfg.ResampleStepM = *c.ResampleStepM
	}
	if c.IrregularSpacingCV != nil {
		cfg.IrregularSpacingCV = *c.IrregularSpacingCV
	}
	if c.DRSOpenThreshold != nil {
		cfg.DRSOpenThreshold = *c.DRSOpenThreshold
	}
	if c.AggressiveBrakingKmh != nil {
		cfg.AggressiveBrakingKmh = *c.AggressiveBrakingKmh
	}
	if c.HighSpeedFraction != nil {
		cfg.HighSpeedFraction = *c.HighSpeedFraction
	}
	if c.LowSpeedFraction != nil {
		cfg.LowSpeedFraction = *c.LowSpeedFraction
	}
	if c.ZoneMergeGapM != nil {
		cfg.ZoneMergeGapM = *c.ZoneMergeGapM
	}
	if c.MinZoneLengthM != nil {
		cfg.MinZoneLengthM = *c.MinZoneLengthM
	}
	if c.DominanceSegments != nil {
		cfg.DominanceSegments = *c.DominanceSegments
	}
	if c.DominanceFullScaleS != nil {
		cfg.DominanceFullScaleS = *c.DominanceFullScaleS
	}
	return cfg
}
