// Package telemetry implements the analytics core: pure computations over
// per-driver telemetry sample streams for a single session. Lap aggregation,
// cross-driver comparison, zone detection, dominance segmentation and tire
// stint grouping all live here. Nothing in this package performs I/O; raw
// streams are supplied by the session loader.
package telemetry

import "time"

// Sample is one raw telemetry reading. Samples are ordered by time within a
// lap and distance is monotonically non-decreasing within a lap.
type Sample struct {
	// Time is the session-relative timestamp in seconds.
	Time float64 `json:"time"`

	// Distance is meters from the start of the lap.
	Distance float64 `json:"distance"`

	// World position in meters. Valid only when HasPosition is set; some
	// sessions ship without position data.
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Z           float64 `json:"z,omitempty"`
	HasPosition bool    `json:"-"`

	Speed    float64 `json:"speed"`    // km/h
	RPM      int     `json:"rpm"`      // engine RPM
	Gear     int     `json:"n_gear"`   // 0 = neutral, -1 = reverse
	Throttle float64 `json:"throttle"` // 0-100 %
	Brake    float64 `json:"brake"`    // 0 = released; >0 = applied
	DRS      int     `json:"drs"`      // 0 = closed; >=1 (or bitmask) = open
	Steering float64 `json:"steering"` // degrees
}

// Lap is one circuit of the track by one driver, with its sample stream.
// Laps are assembled by the upstream loader and immutable afterwards.
type Lap struct {
	Driver    string `json:"driver"`
	LapNumber int    `json:"lap_number"`

	// LapTime is the recorded lap time in seconds; nil when the lap never
	// completed or the timing data is missing.
	LapTime *float64 `json:"lap_time"`

	// IsAccurate reports whether the lap is suitable for comparison: not a
	// pit in/out lap and not deleted for track limits.
	IsAccurate bool `json:"is_accurate"`

	// TireCompound and TireAge come from the upstream lap metadata, never
	// inferred from telemetry. TireAge is laps on the current set at the
	// start of this lap.
	TireCompound string `json:"tire_compound,omitempty"`
	TireAge      int    `json:"tire_age"`

	Samples []Sample `json:"-"`
}

// Summary holds derived per-lap scalar statistics.
type Summary struct {
	MaxSpeed float64 `json:"max_speed"`
	AvgSpeed float64 `json:"avg_speed"`
	MaxRPM   int     `json:"max_rpm"`
	AvgRPM   float64 `json:"avg_rpm"`

	// ThrottlePct is the mean throttle position over the lap; BrakePct and
	// DRSPct are the share of the lap with the channel active, in percent.
	ThrottlePct float64 `json:"throttle_percentage"`
	BrakePct    float64 `json:"brake_percentage"`
	DRSPct      float64 `json:"drs_percentage"`

	GearChanges int `json:"gear_changes"`
}

// DriverStream is one driver's ordered laps for a session.
type DriverStream struct {
	Driver string `json:"driver"`
	Laps   []Lap  `json:"laps"`
}

// SessionInfo is session-level metadata from the upstream loader.
type SessionInfo struct {
	Year      int       `json:"year"`
	EventName string    `json:"event_name"`
	Session   string    `json:"session"`
	TrackName string    `json:"track_name"`
	TotalLaps int       `json:"total_laps"`
	Date      time.Time `json:"date"`
}

// SessionData is a fully materialized session: metadata plus every driver's
// sample stream. Instances are treated as read-only snapshots; the analytics
// functions never mutate them.
type SessionData struct {
	Info    SessionInfo
	Drivers []DriverStream
}

// Driver returns the stream for the given driver abbreviation, or an error
// when the driver did not take part in the session.
func (s *SessionData) Driver(abbrev string) (*DriverStream, error) {
	for i := range s.Drivers {
		if s.Drivers[i].Driver == abbrev {
			return &s.Drivers[i], nil
		}
	}
	return nil, &DriverNotInSessionError{Driver: abbrev}
}

// DriverCodes lists the driver abbreviations present in the session, in
// upstream order.
func (s *SessionData) DriverCodes() []string {
	codes := make([]string, len(s.Drivers))
	for i, d := range s.Drivers {
		codes[i] = d.Driver
	}
	return codes
}

// Stint is a contiguous run of laps on one tire set.
type Stint struct {
	Driver      string `json:"driver"`
	StintNumber int    `json:"stint_number"` // 1-based, chronological
	StartLap    int    `json:"start_lap"`
	EndLap      int    `json:"end_lap"`
	Compound    string `json:"tire_compound,omitempty"`
	TireAge     int    `json:"tire_age"` // age at stint start

	Laps []Lap `json:"-"`

	AvgLapTime     *float64 `json:"avg_lap_time"`
	FastestLapTime *float64 `json:"fastest_lap_time"`

	// Degradation is the least-squares slope of lap time against tire age
	// over the stint's accurate laps, in seconds per lap. Nil when the
	// stint has fewer than two accurate timed laps.
	Degradation *float64 `json:"tire_degradation"`

	AvgSpeed    float64 `json:"avg_speed"`
	AvgThrottle float64 `json:"avg_throttle"`
	AvgBrake    float64 `json:"avg_brake_usage"`
}

// ZoneType identifies the qualitative character of a track zone.
type ZoneType string

const (
	ZoneSpeed    ZoneType = "speed"
	ZoneLowSpeed ZoneType = "low_speed"
	ZoneBraking  ZoneType = "braking"
	ZoneDRS      ZoneType = "drs"
)

// Zone is a contiguous track stretch sharing one driving-state
// characteristic. Zones of one type never overlap and are numbered 1-based
// by ascending start distance.
type Zone struct {
	Type          ZoneType `json:"zone_type"`
	Number        int      `json:"zone_number"`
	StartDistance float64  `json:"start_distance"`
	EndDistance   float64  `json:"end_distance"`

	// Intensity is the type-specific aggregate: speed shed in km/h for
	// braking zones, DRS deployment fraction in [0,1] for DRS zones, and
	// average speed for speed zones.
	Intensity float64 `json:"intensity"`

	AvgSpeed float64 `json:"avg_speed"`
	MaxSpeed float64 `json:"max_speed"`
}

// Length returns the zone length in meters.
func (z Zone) Length() float64 { return z.EndDistance - z.StartDistance }

// Segment is one stretch of a dominance partition between two drivers.
type Segment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "sector" or "custom"

	StartDistance float64 `json:"start_distance"`
	EndDistance   float64 `json:"end_distance"`

	// Advantage is the normalized time gain in [-1,1]; positive means
	// driver1 was faster through the segment. AdvantageSeconds is the raw
	// signed time gain before normalization.
	Advantage        float64 `json:"driver1_advantage"`
	AdvantageSeconds float64 `json:"advantage_seconds"`

	// Path is SVG path data for the segment polyline in the normalized
	// viewport; empty when position data is unavailable.
	Path string `json:"path,omitempty"`
}

// ComparisonResult is the outcome of a lap-vs-lap comparison. All deltas are
// driver2 minus driver1, so swapping the drivers negates every delta.
type ComparisonResult struct {
	Driver1 string `json:"driver_1"`
	Driver2 string `json:"driver_2"`

	Lap1 Lap `json:"-"`
	Lap2 Lap `json:"-"`

	Summary1 Summary `json:"-"`
	Summary2 Summary `json:"-"`

	TimeDelta     float64 `json:"time_difference"`
	MaxSpeedDelta float64 `json:"max_speed_diff"`
	AvgSpeedDelta float64 `json:"avg_speed_diff"`
	ThrottleDelta float64 `json:"throttle_diff"`
	BrakeDelta    float64 `json:"brake_diff"`
	DRSDelta      float64 `json:"drs_diff"`
}
