package telemetry

import "gonum.org/v1/gonum/stat"

// GroupStints partitions a driver's ordered laps into tire stints. A new
// stint opens at the first lap, on a compound change, or when tire age
// resets below the previous lap's age (the pit stop signal). Stint lap
// ranges are contiguous and non-overlapping by construction.
func GroupStints(stream *DriverStream, cfg Config) []Stint {
	if len(stream.Laps) == 0 {
		return nil
	}

	var stints []Stint
	var cur []Lap
	flush := func() {
		if len(cur) == 0 {
			return
		}
		stints = append(stints, finishStint(stream.Driver, len(stints)+1, cur, cfg))
		cur = nil
	}

	for i, lap := range stream.Laps {
		if i > 0 {
			prev := stream.Laps[i-1]
			if lap.TireCompound != prev.TireCompound || lap.TireAge < prev.TireAge {
				flush()
			}
		}
		cur = append(cur, lap)
	}
	flush()
	return stints
}

func finishStint(driver string, number int, laps []Lap, cfg Config) Stint {
	st := Stint{
		Driver:      driver,
		StintNumber: number,
		StartLap:    laps[0].LapNumber,
		EndLap:      laps[len(laps)-1].LapNumber,
		Compound:    laps[0].TireCompound,
		TireAge:     laps[0].TireAge,
		Laps:        laps,
	}

	var timeSum float64
	var timed int
	var speedSum, throttleSum, brakeSum float64
	var summarized int
	for _, lap := range laps {
		if lap.LapTime != nil {
			timeSum += *lap.LapTime
			timed++
			if st.FastestLapTime == nil || *lap.LapTime < *st.FastestLapTime {
				t := *lap.LapTime
				st.FastestLapTime = &t
			}
		}
		if sum, err := Summarize(lap, cfg); err == nil {
			speedSum += sum.AvgSpeed
			throttleSum += sum.ThrottlePct
			brakeSum += sum.BrakePct
			summarized++
		}
	}
	if timed > 0 {
		avg := timeSum / float64(timed)
		st.AvgLapTime = &avg
	}
	if summarized > 0 {
		st.AvgSpeed = speedSum / float64(summarized)
		st.AvgThrottle = throttleSum / float64(summarized)
		st.AvgBrake = brakeSum / float64(summarized)
	}

	st.Degradation = stintDegradation(laps)
	return st
}

// stintDegradation fits lap time against tire age over the stint's accurate
// timed laps. Fewer than two such laps leave the slope undefined: the fit
// would be meaningless, and zero would read as "no degradation".
func stintDegradation(laps []Lap) *float64 {
	var ages, times []float64
	for _, lap := range laps {
		if !lap.IsAccurate || lap.LapTime == nil {
			continue
		}
		ages = append(ages, float64(lap.TireAge))
		times = append(times, *lap.LapTime)
	}
	if len(ages) < 2 {
		return nil
	}
	_, slope := stat.LinearRegression(ages, times, nil, false)
	return &slope
}
