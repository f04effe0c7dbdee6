package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTuningFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAnalysisTuning(t *testing.T) {
	t.Parallel()

	t.Run("partial file overrides only named fields", func(t *testing.T) {
		t.Parallel()
		path := writeTuningFile(t, "tuning.json", `{
			"resample_step_m": 2.5,
			"dominance_segments": 6,
			"cache_ttl": "30m"
		}`)
		cfg, err := LoadAnalysisTuning(path)
		require.NoError(t, err)

		analysis := cfg.Analysis()
		assert.Equal(t, 2.5, analysis.ResampleStepM)
		assert.Equal(t, 6, analysis.DominanceSegments)
		// Untouched fields keep their defaults.
		assert.Equal(t, 0.85, analysis.HighSpeedFraction)
		assert.Equal(t, 20.0, analysis.ZoneMergeGapM)
		assert.Equal(t, 30*time.Minute, cfg.GetCacheTTL())
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		t.Parallel()
		path := writeTuningFile(t, "tuning.yaml", `{}`)
		_, err := LoadAnalysisTuning(path)
		assert.ErrorContains(t, err, ".json extension")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadAnalysisTuning(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		path := writeTuningFile(t, "tuning.json", `{"resample_step_m": `)
		_, err := LoadAnalysisTuning(path)
		assert.ErrorContains(t, err, "parse")
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()
		for name, content := range map[string]string{
			"zero step":         `{"resample_step_m": 0}`,
			"fraction over one": `{"high_speed_fraction": 1.5}`,
			"negative gap":      `{"zone_merge_gap_m": -1}`,
			"zero segments":     `{"dominance_segments": 0}`,
			"bad ttl":           `{"cache_ttl": "soon"}`,
		} {
			t.Run(name, func(t *testing.T) {
				path := writeTuningFile(t, "tuning.json", content)
				_, err := LoadAnalysisTuning(path)
				assert.ErrorContains(t, err, "invalid tuning")
			})
		}
	})
}

func TestGetCacheTTL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10*time.Minute, EmptyAnalysisTuning().GetCacheTTL())

	ttl := "1h"
	cfg := &AnalysisTuning{CacheTTL: &ttl}
	assert.Equal(t, time.Hour, cfg.GetCacheTTL())

	empty := ""
	cfg = &AnalysisTuning{CacheTTL: &empty}
	assert.Equal(t, 10*time.Minute, cfg.GetCacheTTL())
}

func TestAnalysisDefaults(t *testing.T) {
	t.Parallel()
	cfg := EmptyAnalysisTuning().Analysis()
	assert.Equal(t, 5.0, cfg.ResampleStepM)
	assert.Equal(t, 1, cfg.DRSOpenThreshold)
	assert.Equal(t, 3, cfg.DominanceSegments)
	assert.Equal(t, 0.5, cfg.DominanceFullScaleS)
	assert.Equal(t, 250.0, cfg.AggressiveBrakingKmh)
}
