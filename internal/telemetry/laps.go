package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/f1nsight/telemetry/internal/monitoring"
)

// LapMeta is the upstream per-lap metadata used when slicing a raw stream
// into laps.
type LapMeta struct {
	LapNumber  int
	LapTime    *float64
	IsAccurate bool
	Compound   string
	TireAge    int
}

// AssembleLaps slices one driver's ordered sample stream into laps using the
// per-sample lap markers and attaches the upstream metadata. lapNumbers must
// be parallel to samples. A lap listed in meta that receives zero samples is
// a data-quality fault and fails with EmptyLapError.
func AssembleLaps(driver string, samples []Sample, lapNumbers []int, meta []LapMeta) ([]Lap, error) {
	byLap := make(map[int][]Sample)
	for i, s := range samples {
		n := lapNumbers[i]
		byLap[n] = append(byLap[n], s)
	}

	laps := make([]Lap, 0, len(meta))
	for _, m := range meta {
		ss := byLap[m.LapNumber]
		if len(ss) == 0 {
			return nil, &EmptyLapError{Driver: driver, LapNumber: m.LapNumber}
		}
		checkMonotoneDistance(driver, m.LapNumber, ss)
		laps = append(laps, Lap{
			Driver:       driver,
			LapNumber:    m.LapNumber,
			LapTime:      m.LapTime,
			IsAccurate:   m.IsAccurate,
			TireCompound: m.Compound,
			TireAge:      m.TireAge,
			Samples:      ss,
		})
	}
	return laps, nil
}

// checkMonotoneDistance logs regressions in the distance channel. The lap is
// still usable; interpolation tolerates local glitches and dropping data
// here would fabricate a cleaner stream than upstream supplied.
func checkMonotoneDistance(driver string, lapNumber int, samples []Sample) {
	regressions := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Distance < samples[i-1].Distance {
			regressions++
		}
	}
	if regressions > 0 {
		monitoring.Logf("lap %d for %s: %d non-monotone distance samples", lapNumber, driver, regressions)
	}
}

// Summarize computes the per-lap scalar statistics for one lap. It fails
// with EmptyLapError when the lap carries no samples.
func Summarize(lap Lap, cfg Config) (Summary, error) {
	if len(lap.Samples) == 0 {
		return Summary{}, &EmptyLapError{Driver: lap.Driver, LapNumber: lap.LapNumber}
	}

	var s Summary
	var speedSum, rpmSum, throttleSum float64
	for i, p := range lap.Samples {
		if p.Speed > s.MaxSpeed {
			s.MaxSpeed = p.Speed
		}
		if p.RPM > s.MaxRPM {
			s.MaxRPM = p.RPM
		}
		speedSum += p.Speed
		rpmSum += float64(p.RPM)
		throttleSum += p.Throttle

		// Gear changes between forward gears only; transitions through
		// neutral or reverse are shift artifacts, not driver inputs.
		if i > 0 {
			prev := lap.Samples[i-1].Gear
			if p.Gear != prev && p.Gear > 0 && prev > 0 {
				s.GearChanges++
			}
		}
	}

	n := float64(len(lap.Samples))
	s.AvgSpeed = speedSum / n
	s.AvgRPM = rpmSum / n
	s.ThrottlePct = throttleSum / n

	s.BrakePct = usagePercent(lap.Samples, cfg, func(p Sample) bool { return p.Brake > 0 })
	s.DRSPct = usagePercent(lap.Samples, cfg, func(p Sample) bool { return p.DRS >= cfg.DRSOpenThreshold })

	return s, nil
}

// usagePercent returns the share of the lap, in percent, with the channel
// active. Evenly sampled laps use a plain sample count; when inter-sample
// gaps vary enough to bias that ratio the calculation switches to
// time-weighted integration.
func usagePercent(samples []Sample, cfg Config, active func(Sample) bool) float64 {
	if len(samples) < 2 {
		if len(samples) == 1 && active(samples[0]) {
			return 100
		}
		return 0
	}

	if irregularSpacing(samples, cfg.IrregularSpacingCV) {
		var total, on float64
		for i := 0; i < len(samples)-1; i++ {
			dt := samples[i+1].Time - samples[i].Time
			if dt <= 0 {
				continue
			}
			total += dt
			if active(samples[i]) {
				on += dt
			}
		}
		if total == 0 {
			return 0
		}
		return on / total * 100
	}

	count := 0
	for _, p := range samples {
		if active(p) {
			count++
		}
	}
	return float64(count) / float64(len(samples)) * 100
}

// irregularSpacing reports whether the coefficient of variation of the
// inter-sample time gaps exceeds the tuning threshold.
func irregularSpacing(samples []Sample, cvThreshold float64) bool {
	gaps := make([]float64, 0, len(samples)-1)
	for i := 0; i < len(samples)-1; i++ {
		if dt := samples[i+1].Time - samples[i].Time; dt > 0 {
			gaps = append(gaps, dt)
		}
	}
	if len(gaps) < 2 {
		return false
	}
	mean, std := stat.MeanStdDev(gaps, nil)
	if mean <= 0 {
		return false
	}
	return std/mean > cvThreshold
}

// LapDistance returns the distance covered by the lap's samples in meters.
func LapDistance(lap Lap) float64 {
	if len(lap.Samples) == 0 {
		return 0
	}
	return lap.Samples[len(lap.Samples)-1].Distance - lap.Samples[0].Distance
}
