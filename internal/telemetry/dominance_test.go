package telemetry_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/testutil"
)

// flatLap runs at one constant speed so segment times are easy to reason
// about.
func flatLap(driver string, speedKmh float64, withPos bool) telemetry.Lap {
	const length = 3000.0
	const n = 301
	samples := make([]telemetry.Sample, n)
	for i := range samples {
		frac := float64(i) / float64(n-1)
		samples[i] = telemetry.Sample{
			Time:     frac * length / (speedKmh / 3.6),
			Distance: frac * length,
			Speed:    speedKmh,
		}
		if withPos {
			samples[i].X = frac * 1000
			samples[i].Y = frac * 500
			samples[i].HasPosition = true
		}
	}
	return telemetry.Lap{Driver: driver, LapNumber: 1, Samples: samples}
}

func TestSegmentTrack(t *testing.T) {
	t.Parallel()
	cfg := telemetry.DefaultConfig()

	t.Run("partition covers the comparable range without gaps", func(t *testing.T) {
		t.Parallel()
		lap1 := testutil.SyntheticLap("VER", 1, 92.5, testutil.LapOpts{WithPosition: true})
		lap2 := testutil.SyntheticLap("HAM", 1, 92.9, testutil.LapOpts{WithPosition: true})

		res, err := telemetry.SegmentTrack(lap1, lap2, 5, cfg)
		require.NoError(t, err)
		require.Len(t, res.Sections, 5)

		assert.Equal(t, res.StartDistance, res.Sections[0].StartDistance)
		assert.Equal(t, res.EndDistance, res.Sections[len(res.Sections)-1].EndDistance)
		for i := 1; i < len(res.Sections); i++ {
			assert.Equal(t, res.Sections[i-1].EndDistance, res.Sections[i].StartDistance)
		}
	})

	t.Run("segment count below one falls back to the default", func(t *testing.T) {
		t.Parallel()
		res, err := telemetry.SegmentTrack(flatLap("VER", 300, false), flatLap("HAM", 290, false), 0, cfg)
		require.NoError(t, err)
		assert.Len(t, res.Sections, cfg.DominanceSegments)
	})

	t.Run("identical laps have zero advantage everywhere", func(t *testing.T) {
		t.Parallel()
		lap := flatLap("VER", 300, false)
		lap2 := flatLap("HAM", 300, false)
		res, err := telemetry.SegmentTrack(lap, lap2, 3, cfg)
		require.NoError(t, err)
		for _, s := range res.Sections {
			assert.InDelta(t, 0, s.AdvantageSeconds, 1e-9)
			assert.InDelta(t, 0, s.Advantage, 1e-9)
		}
	})

	t.Run("faster driver1 wins every segment", func(t *testing.T) {
		t.Parallel()
		res, err := telemetry.SegmentTrack(flatLap("VER", 300, false), flatLap("HAM", 100, false), 4, cfg)
		require.NoError(t, err)
		for _, s := range res.Sections {
			assert.Positive(t, s.AdvantageSeconds)
			// A 200 km/h deficit saturates the normalized scale.
			assert.Equal(t, 1.0, s.Advantage)
		}
	})

	t.Run("advantage stays clipped to unit range", func(t *testing.T) {
		t.Parallel()
		res, err := telemetry.SegmentTrack(flatLap("VER", 100, false), flatLap("HAM", 320, false), 6, cfg)
		require.NoError(t, err)
		for _, s := range res.Sections {
			assert.GreaterOrEqual(t, s.Advantage, -1.0)
			assert.LessOrEqual(t, s.Advantage, 1.0)
			assert.Negative(t, s.AdvantageSeconds)
		}
	})

	t.Run("geometry rendered only with position data", func(t *testing.T) {
		t.Parallel()
		withPos, err := telemetry.SegmentTrack(flatLap("VER", 300, true), flatLap("HAM", 290, true), 3, cfg)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(withPos.CircuitLayout, "M "))
		for _, s := range withPos.Sections {
			assert.True(t, strings.HasPrefix(s.Path, "M "), s.ID)
			assert.Contains(t, s.Path, " L ")
		}

		noPos, err := telemetry.SegmentTrack(flatLap("VER", 300, false), flatLap("HAM", 290, false), 3, cfg)
		require.NoError(t, err)
		assert.Empty(t, noPos.CircuitLayout)
		for _, s := range noPos.Sections {
			assert.Empty(t, s.Path)
		}
	})

	t.Run("section naming is stable", func(t *testing.T) {
		t.Parallel()
		res, err := telemetry.SegmentTrack(flatLap("VER", 300, false), flatLap("HAM", 290, false), 2, cfg)
		require.NoError(t, err)
		require.Len(t, res.Sections, 2)
		assert.Equal(t, "segment_1", res.Sections[0].ID)
		assert.Equal(t, "Segment 1", res.Sections[0].Name)
		assert.Equal(t, "sector", res.Sections[0].Type)
		assert.Equal(t, "VER", res.Driver1)
		assert.Equal(t, "HAM", res.Driver2)
	})
}
