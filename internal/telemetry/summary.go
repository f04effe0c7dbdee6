package telemetry

// DriverSummary is the whole-session rollup for one driver.
type DriverSummary struct {
	Driver      string `json:"driver"`
	SessionType string `json:"session_type"`
	TotalLaps   int    `json:"total_laps"`

	FastestLap        *Lap     `json:"-"`
	FastestLapSummary *Summary `json:"-"`

	SessionMaxSpeed float64 `json:"session_max_speed"`
	SessionAvgSpeed float64 `json:"session_avg_speed"`
	SessionMaxRPM   int     `json:"session_max_rpm"`
	TotalDistance   float64 `json:"total_distance"`

	AvgThrottleUsage    float64 `json:"avg_throttle_usage"`
	AvgBrakeUsage       float64 `json:"avg_brake_usage"`
	DRSUsagePct         float64 `json:"drs_usage_percentage"`
	GearChangesPerLap   float64 `json:"gear_change_frequency"`
	AggressiveBrakeApps int     `json:"aggressive_braking_count"`
}

// SummarizeDriver aggregates a driver's whole session: per-lap summaries
// averaged across laps, totals, and the fastest lap when one exists. An
// empty lap anywhere in the stream is a data-quality fault and propagates.
func SummarizeDriver(stream *DriverStream, sessionType string, cfg Config) (*DriverSummary, error) {
	ds := &DriverSummary{
		Driver:      stream.Driver,
		SessionType: sessionType,
		TotalLaps:   len(stream.Laps),
	}

	var speedSum, throttleSum, brakeSum, drsSum float64
	var gearChanges int
	for _, lap := range stream.Laps {
		sum, err := Summarize(lap, cfg)
		if err != nil {
			return nil, err
		}
		if sum.MaxSpeed > ds.SessionMaxSpeed {
			ds.SessionMaxSpeed = sum.MaxSpeed
		}
		if sum.MaxRPM > ds.SessionMaxRPM {
			ds.SessionMaxRPM = sum.MaxRPM
		}
		speedSum += sum.AvgSpeed
		throttleSum += sum.ThrottlePct
		brakeSum += sum.BrakePct
		drsSum += sum.DRSPct
		gearChanges += sum.GearChanges

		ds.TotalDistance += LapDistance(lap)
		ds.AggressiveBrakeApps += aggressiveBrakeApplications(lap.Samples, cfg.AggressiveBrakingKmh)
	}

	if n := float64(len(stream.Laps)); n > 0 {
		ds.SessionAvgSpeed = speedSum / n
		ds.AvgThrottleUsage = throttleSum / n
		ds.AvgBrakeUsage = brakeSum / n
		ds.DRSUsagePct = drsSum / n
		ds.GearChangesPerLap = float64(gearChanges) / n
	}

	if fastest, err := FastestLap(stream); err == nil {
		sum, err := Summarize(fastest, cfg)
		if err != nil {
			return nil, err
		}
		ds.FastestLap = &fastest
		ds.FastestLapSummary = &sum
	}
	return ds, nil
}

// aggressiveBrakeApplications counts brake onsets at high speed: samples
// where the brake channel goes active while the car is still above the
// aggressive-braking cutoff.
func aggressiveBrakeApplications(samples []Sample, minSpeedKmh float64) int {
	count := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Brake > 0 && samples[i-1].Brake == 0 && samples[i].Speed >= minSpeedKmh {
			count++
		}
	}
	return count
}
