package telemetry

// span is a raw contiguous active run along the distance axis, before
// hysteresis is applied.
type span struct {
	start, end float64
}

// detectSpans walks the lap's samples and collects contiguous runs where the
// predicate holds, then applies the shared hysteresis policy: neighboring
// runs separated by less than the merge gap collapse into one, and runs
// shorter than the minimum zone length are dropped.
func detectSpans(samples []Sample, cfg Config, active func(Sample) bool) []span {
	var raw []span
	open := false
	var cur span
	for _, s := range samples {
		switch {
		case active(s) && !open:
			cur = span{start: s.Distance, end: s.Distance}
			open = true
		case active(s) && open:
			cur.end = s.Distance
		case !active(s) && open:
			raw = append(raw, cur)
			open = false
		}
	}
	if open {
		raw = append(raw, cur)
	}

	// Merge small gaps left by sensor noise at the active boundary.
	var merged []span
	for _, r := range raw {
		if n := len(merged); n > 0 && r.start-merged[n-1].end < cfg.ZoneMergeGapM {
			merged[n-1].end = r.end
			continue
		}
		merged = append(merged, r)
	}

	kept := merged[:0]
	for _, m := range merged {
		if m.end-m.start >= cfg.MinZoneLengthM {
			kept = append(kept, m)
		}
	}
	return kept
}

// zoneSpeeds fills in the avg/max speed of the samples inside the zone span.
func zoneSpeeds(samples []Sample, z *Zone) {
	var sum float64
	var count int
	for _, s := range samples {
		if s.Distance < z.StartDistance || s.Distance > z.EndDistance {
			continue
		}
		if s.Speed > z.MaxSpeed {
			z.MaxSpeed = s.Speed
		}
		sum += s.Speed
		count++
	}
	if count > 0 {
		z.AvgSpeed = sum / float64(count)
	}
}

// DetectSpeedZones finds the high-speed stretches of a representative lap:
// contiguous runs where speed stays above the high-speed fraction of the
// session maximum. Intensity is the zone's average speed.
func DetectSpeedZones(lap Lap, sessionMaxSpeed float64, cfg Config) []Zone {
	threshold := cfg.HighSpeedFraction * sessionMaxSpeed
	return buildZones(lap.Samples, ZoneSpeed, cfg, func(s Sample) bool { return s.Speed >= threshold },
		func(z *Zone) { z.Intensity = z.AvgSpeed })
}

// DetectLowSpeedZones finds the corner stretches, below the low-speed
// fraction of the session maximum. Used for the track-analysis corner count.
func DetectLowSpeedZones(lap Lap, sessionMaxSpeed float64, cfg Config) []Zone {
	threshold := cfg.LowSpeedFraction * sessionMaxSpeed
	return buildZones(lap.Samples, ZoneLowSpeed, cfg, func(s Sample) bool { return s.Speed <= threshold },
		func(z *Zone) { z.Intensity = z.AvgSpeed })
}

// DetectBrakingZones finds the braking stretches of a representative lap.
// Intensity is the speed shed across the zone in km/h.
func DetectBrakingZones(lap Lap, cfg Config) []Zone {
	zones := buildZones(lap.Samples, ZoneBraking, cfg, func(s Sample) bool { return s.Brake > 0 }, nil)
	for i := range zones {
		z := &zones[i]
		entry, exit := speedAtBoundaries(lap.Samples, z.StartDistance, z.EndDistance)
		z.Intensity = entry - exit
	}
	return zones
}

// DetectDRSZones finds stretches where the reference lap ran with DRS open.
// Each zone's intensity is the deployment fraction: the share of the
// contributing laps that opened DRS anywhere inside the zone.
func DetectDRSZones(reference Lap, contributing []Lap, cfg Config) []Zone {
	zones := buildZones(reference.Samples, ZoneDRS, cfg,
		func(s Sample) bool { return s.DRS >= cfg.DRSOpenThreshold }, nil)
	if len(contributing) == 0 {
		return zones
	}
	for i := range zones {
		z := &zones[i]
		deployed := 0
		for _, lap := range contributing {
			if lapDeploysDRS(lap, z.StartDistance, z.EndDistance, cfg.DRSOpenThreshold) {
				deployed++
			}
		}
		z.Intensity = float64(deployed) / float64(len(contributing))
	}
	return zones
}

func buildZones(samples []Sample, typ ZoneType, cfg Config, active func(Sample) bool, finish func(*Zone)) []Zone {
	spans := detectSpans(samples, cfg, active)
	zones := make([]Zone, 0, len(spans))
	for i, sp := range spans {
		z := Zone{
			Type:          typ,
			Number:        i + 1, // spans arrive in ascending start order
			StartDistance: sp.start,
			EndDistance:   sp.end,
		}
		zoneSpeeds(samples, &z)
		if finish != nil {
			finish(&z)
		}
		zones = append(zones, z)
	}
	return zones
}

func lapDeploysDRS(lap Lap, start, end float64, openThreshold int) bool {
	for _, s := range lap.Samples {
		if s.Distance >= start && s.Distance <= end && s.DRS >= openThreshold {
			return true
		}
	}
	return false
}

// speedAtBoundaries returns the speeds at the first and last samples inside
// the span.
func speedAtBoundaries(samples []Sample, start, end float64) (entry, exit float64) {
	first := true
	for _, s := range samples {
		if s.Distance < start || s.Distance > end {
			continue
		}
		if first {
			entry = s.Speed
			first = false
		}
		exit = s.Speed
	}
	return entry, exit
}

// SessionMaxSpeed returns the maximum speed seen across all drivers' laps.
func SessionMaxSpeed(data *SessionData) float64 {
	var max float64
	for _, d := range data.Drivers {
		for _, lap := range d.Laps {
			for _, s := range lap.Samples {
				if s.Speed > max {
					max = s.Speed
				}
			}
		}
	}
	return max
}
