package telemetry

// Compare produces the lap-vs-lap comparison between two drivers. The time
// delta comes from the laps' own recorded times, not the resampled axis;
// resampling serves point-wise deltas, not aggregates. Every delta is
// driver2 minus driver1, so Compare(a, b) and Compare(b, a) on the same laps
// yield exactly negated results.
func Compare(lap1, lap2 Lap, cfg Config) (*ComparisonResult, error) {
	// A one-sided comparison would fabricate a zero delta; fail instead.
	if lap1.LapTime == nil {
		return nil, &LapNotFoundError{Driver: lap1.Driver, Reason: "lap has no recorded time"}
	}
	if lap2.LapTime == nil {
		return nil, &LapNotFoundError{Driver: lap2.Driver, Reason: "lap has no recorded time"}
	}

	sum1, err := Summarize(lap1, cfg)
	if err != nil {
		return nil, err
	}
	sum2, err := Summarize(lap2, cfg)
	if err != nil {
		return nil, err
	}

	res := &ComparisonResult{
		Driver1:  lap1.Driver,
		Driver2:  lap2.Driver,
		Lap1:     lap1,
		Lap2:     lap2,
		Summary1: sum1,
		Summary2: sum2,

		MaxSpeedDelta: sum2.MaxSpeed - sum1.MaxSpeed,
		AvgSpeedDelta: sum2.AvgSpeed - sum1.AvgSpeed,
		ThrottleDelta: sum2.ThrottlePct - sum1.ThrottlePct,
		BrakeDelta:    sum2.BrakePct - sum1.BrakePct,
		DRSDelta:      sum2.DRSPct - sum1.DRSPct,

		TimeDelta: *lap2.LapTime - *lap1.LapTime,
	}
	return res, nil
}
