package telemetry

// Config holds the tunable thresholds for the analytics core. Defaults suit
// a modern grand prix circuit; per-circuit overrides come from the tuning
// file (internal/config) rather than code changes.
type Config struct {
	// ResampleStepM is the distance axis step for lap alignment, meters.
	ResampleStepM float64

	// IrregularSpacingCV is the coefficient-of-variation threshold on
	// inter-sample time gaps above which usage percentages switch from
	// sample counting to time-weighted integration.
	IrregularSpacingCV float64

	// DRSOpenThreshold is the minimum DRS channel value treated as open.
	// Loaders that pass the raw FastF1 encoding through should raise this
	// to 10 (10/12/14 are the open states).
	DRSOpenThreshold int

	// HighSpeedFraction and LowSpeedFraction are applied to the session
	// maximum speed to derive the speed-zone and corner cutoffs.
	HighSpeedFraction float64
	LowSpeedFraction  float64

	// ZoneMergeGapM merges active runs separated by less than this many
	// meters into one zone. MinZoneLengthM drops zones shorter than this
	// after merging.
	ZoneMergeGapM  float64
	MinZoneLengthM float64

	// DominanceSegments is the default sector count for track dominance.
	DominanceSegments int

	// DominanceFullScaleS is the per-segment time gain (seconds) that maps
	// to an advantage of +/-1; larger gains are clipped.
	DominanceFullScaleS float64

	// AggressiveBrakingKmh is the minimum speed at brake application for
	// the application to count as aggressive in driver summaries.
	AggressiveBrakingKmh float64
}

// DefaultConfig returns the tuning defaults documented above.
func DefaultConfig() Config {
	return Config{
		ResampleStepM:        5.0,
		IrregularSpacingCV:   0.35,
		DRSOpenThreshold:     1,
		HighSpeedFraction:    0.85,
		LowSpeedFraction:     0.6,
		ZoneMergeGapM:        20.0,
		MinZoneLengthM:       25.0,
		DominanceSegments:    3,
		DominanceFullScaleS:  0.5,
		AggressiveBrakingKmh: 250.0,
	}
}
