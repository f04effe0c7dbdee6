package telemetry

import "fmt"

// LapSelector names a lap selection policy. Every endpoint that needs "the"
// lap of a driver resolves it through SelectLap so tie-breaking cannot
// diverge between fastest-lap, compare and summary.
type LapSelector string

const (
	SelectFastest  LapSelector = "fastest"
	SelectFirst    LapSelector = "first"
	SelectLast     LapSelector = "last"
	SelectSpecific LapSelector = "specific"
)

// ValidSelector reports whether s names a known selection policy.
func ValidSelector(s LapSelector) bool {
	switch s {
	case SelectFastest, SelectFirst, SelectLast, SelectSpecific:
		return true
	}
	return false
}

// SelectLap resolves one lap from a driver's ordered laps. Fastest picks the
// accurate lap with the minimum recorded time, first ties broken by lap
// order. First and last consider accurate timed laps only. Specific picks by
// lap number regardless of accuracy, so degraded laps remain inspectable.
func SelectLap(stream *DriverStream, selector LapSelector, lapNumber int) (Lap, error) {
	switch selector {
	case SelectFastest:
		return FastestLap(stream)
	case SelectFirst:
		for _, lap := range stream.Laps {
			if lap.IsAccurate && lap.LapTime != nil {
				return lap, nil
			}
		}
		return Lap{}, &LapNotFoundError{Driver: stream.Driver, Reason: "no accurate timed laps"}
	case SelectLast:
		for i := len(stream.Laps) - 1; i >= 0; i-- {
			if lap := stream.Laps[i]; lap.IsAccurate && lap.LapTime != nil {
				return lap, nil
			}
		}
		return Lap{}, &LapNotFoundError{Driver: stream.Driver, Reason: "no accurate timed laps"}
	case SelectSpecific:
		for _, lap := range stream.Laps {
			if lap.LapNumber == lapNumber {
				return lap, nil
			}
		}
		return Lap{}, &LapNotFoundError{Driver: stream.Driver, Reason: fmt.Sprintf("lap %d not recorded", lapNumber)}
	default:
		return Lap{}, &LapNotFoundError{Driver: stream.Driver, Reason: fmt.Sprintf("unknown selector %q", selector)}
	}
}

// FastestLap returns the driver's accurate lap with the minimum recorded
// lap time. Laps without a time, or flagged inaccurate upstream, never win.
func FastestLap(stream *DriverStream) (Lap, error) {
	var best *Lap
	for i := range stream.Laps {
		lap := &stream.Laps[i]
		if !lap.IsAccurate || lap.LapTime == nil {
			continue
		}
		if best == nil || *lap.LapTime < *best.LapTime {
			best = lap
		}
	}
	if best == nil {
		return Lap{}, &LapNotFoundError{Driver: stream.Driver, Reason: "no accurate timed laps"}
	}
	return *best, nil
}
