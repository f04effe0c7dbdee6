package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/testutil"
)

// evenLap builds a lap with evenly spaced samples from explicit channel
// values. Distance steps 10m, time steps 1s.
func evenLap(speeds []float64, gears []int, brakes []float64, drs []int) telemetry.Lap {
	samples := make([]telemetry.Sample, len(speeds))
	for i := range speeds {
		samples[i] = telemetry.Sample{
			Time:     float64(i),
			Distance: float64(i) * 10,
			Speed:    speeds[i],
		}
		if gears != nil {
			samples[i].Gear = gears[i]
		}
		if brakes != nil {
			samples[i].Brake = brakes[i]
		}
		if drs != nil {
			samples[i].DRS = drs[i]
		}
	}
	return telemetry.Lap{Driver: "VER", LapNumber: 1, Samples: samples}
}

func TestAssembleLaps(t *testing.T) {
	t.Parallel()

	samples := []telemetry.Sample{
		{Time: 0, Distance: 0}, {Time: 1, Distance: 100},
		{Time: 2, Distance: 0}, {Time: 3, Distance: 100},
	}
	lapNumbers := []int{1, 1, 2, 2}

	t.Run("slices samples by lap marker", func(t *testing.T) {
		t.Parallel()
		meta := []telemetry.LapMeta{
			{LapNumber: 1, LapTime: testutil.FloatPtr(90), IsAccurate: true, Compound: "SOFT", TireAge: 2},
			{LapNumber: 2, LapTime: testutil.FloatPtr(91), IsAccurate: false},
		}
		laps, err := telemetry.AssembleLaps("VER", samples, lapNumbers, meta)
		require.NoError(t, err)
		require.Len(t, laps, 2)

		assert.Equal(t, "VER", laps[0].Driver)
		assert.Equal(t, 1, laps[0].LapNumber)
		assert.Equal(t, 90.0, *laps[0].LapTime)
		assert.True(t, laps[0].IsAccurate)
		assert.Equal(t, "SOFT", laps[0].TireCompound)
		assert.Equal(t, 2, laps[0].TireAge)
		assert.Len(t, laps[0].Samples, 2)

		assert.False(t, laps[1].IsAccurate)
		assert.Len(t, laps[1].Samples, 2)
	})

	t.Run("lap with no samples fails", func(t *testing.T) {
		t.Parallel()
		meta := []telemetry.LapMeta{{LapNumber: 1}, {LapNumber: 5}}
		_, err := telemetry.AssembleLaps("VER", samples, lapNumbers, meta)
		var empty *telemetry.EmptyLapError
		require.ErrorAs(t, err, &empty)
		assert.Equal(t, 5, empty.LapNumber)
		assert.Equal(t, telemetry.CodeEmptyLap, empty.Code())
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	cfg := telemetry.DefaultConfig()

	t.Run("scalar statistics", func(t *testing.T) {
		t.Parallel()
		lap := evenLap(
			[]float64{100, 200, 300, 200},
			[]int{2, 3, 3, 4},
			[]float64{1, 0, 0, 0},
			[]int{0, 0, 1, 1},
		)
		sum, err := telemetry.Summarize(lap, cfg)
		require.NoError(t, err)

		assert.Equal(t, 300.0, sum.MaxSpeed)
		assert.Equal(t, 200.0, sum.AvgSpeed)
		assert.Equal(t, 2, sum.GearChanges)
		assert.Equal(t, 25.0, sum.BrakePct)
		assert.Equal(t, 50.0, sum.DRSPct)
	})

	t.Run("gear shifts through neutral do not count", func(t *testing.T) {
		t.Parallel()
		lap := evenLap([]float64{100, 100, 100}, []int{3, 0, 4}, nil, nil)
		sum, err := telemetry.Summarize(lap, cfg)
		require.NoError(t, err)
		assert.Equal(t, 0, sum.GearChanges)
	})

	t.Run("empty lap fails", func(t *testing.T) {
		t.Parallel()
		_, err := telemetry.Summarize(telemetry.Lap{Driver: "VER", LapNumber: 3}, cfg)
		var empty *telemetry.EmptyLapError
		assert.ErrorAs(t, err, &empty)
	})

	t.Run("single active sample is full usage", func(t *testing.T) {
		t.Parallel()
		lap := telemetry.Lap{Driver: "VER", Samples: []telemetry.Sample{{Speed: 100, Brake: 1}}}
		sum, err := telemetry.Summarize(lap, cfg)
		require.NoError(t, err)
		assert.Equal(t, 100.0, sum.BrakePct)
		assert.Equal(t, 0.0, sum.DRSPct)
	})

	t.Run("irregular spacing switches to time weighting", func(t *testing.T) {
		t.Parallel()
		// Gaps of 1s, 1s and 8s: the brake is held over the long gap, so
		// plain sample counting would report 25% instead of 80%.
		lap := telemetry.Lap{Driver: "VER", Samples: []telemetry.Sample{
			{Time: 0, Distance: 0, Speed: 100},
			{Time: 1, Distance: 10, Speed: 100},
			{Time: 2, Distance: 20, Speed: 100, Brake: 1},
			{Time: 10, Distance: 30, Speed: 100},
		}}
		sum, err := telemetry.Summarize(lap, cfg)
		require.NoError(t, err)
		assert.InDelta(t, 80.0, sum.BrakePct, 1e-9)
	})

	t.Run("usage is always within bounds", func(t *testing.T) {
		t.Parallel()
		lap := testutil.SyntheticLap("VER", 1, 92.5, testutil.LapOpts{})
		sum, err := telemetry.Summarize(lap, cfg)
		require.NoError(t, err)
		for name, v := range map[string]float64{
			"brake": sum.BrakePct, "drs": sum.DRSPct,
		} {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 100.0, name)
		}
	})
}

func TestLapDistance(t *testing.T) {
	t.Parallel()
	lap := evenLap([]float64{100, 100, 100}, nil, nil, nil)
	assert.Equal(t, 20.0, telemetry.LapDistance(lap))
	assert.Equal(t, 0.0, telemetry.LapDistance(telemetry.Lap{}))
}
