package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/f1nsight/telemetry/internal/httputil"
	"github.com/f1nsight/telemetry/internal/session"
	"github.com/f1nsight/telemetry/internal/telemetry"
)

const (
	defaultDriver1Color = "#FF0000"
	defaultDriver2Color = "#0000FF"

	// maxDominanceSegments caps the custom resolution so one request
	// cannot ask for a per-meter partition.
	maxDominanceSegments = 60
)

type trackAnalysisResponse struct {
	TrackName       string `json:"track_name"`
	SessionAnalyzed string `json:"session_analyzed"`

	TrackLength float64 `json:"track_length"`
	CornerCount int     `json:"corner_count"`

	SpeedZones   []telemetry.Zone `json:"speed_zones"`
	BrakingZones []telemetry.Zone `json:"braking_zones"`
	DRSZones     []telemetry.Zone `json:"drs_zones"`

	Dominance *dominancePayload `json:"track_dominance,omitempty"`
}

type dominancePayload struct {
	*telemetry.DominanceResult
	Driver1Color string `json:"driver1_color"`
	Driver2Color string `json:"driver2_color"`
}

// trackAnalysis derives the track's geometric characterization from the
// session's fastest lap: speed, braking and DRS zones, track length and
// corner count. When driver1 and driver2 are given the response also
// carries the dominance partition between their fastest laps.
func (s *Server) trackAnalysis(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		httputil.BadRequest(w, "invalid 'year' path parameter")
		return
	}
	q := r.URL.Query()
	sessionType := q.Get("session")
	if sessionType == "" {
		sessionType = "Q" // qualifying laps give the cleanest zone signal
	}
	key := session.Key{Year: year, Event: r.PathValue("event"), Session: sessionType}

	data := s.loadSession(w, r, key)
	if data == nil {
		return
	}

	reference, err := sessionFastestLap(data)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}

	maxSpeed := telemetry.SessionMaxSpeed(data)
	var allLaps []telemetry.Lap
	for _, d := range data.Drivers {
		allLaps = append(allLaps, d.Laps...)
	}

	resp := trackAnalysisResponse{
		TrackName:       data.Info.TrackName,
		SessionAnalyzed: sessionType,
		TrackLength:     telemetry.LapDistance(reference),
		CornerCount:     len(telemetry.DetectLowSpeedZones(reference, maxSpeed, s.cfg)),
		SpeedZones:      s.convertZones(telemetry.DetectSpeedZones(reference, maxSpeed, s.cfg)),
		BrakingZones:    s.convertZones(telemetry.DetectBrakingZones(reference, s.cfg)),
		DRSZones:        s.convertZones(telemetry.DetectDRSZones(reference, allLaps, s.cfg)),
	}

	if q.Get("driver1") != "" || q.Get("driver2") != "" {
		dom, ok := s.dominanceSection(w, data, q)
		if !ok {
			return
		}
		resp.Dominance = dom
	}

	httputil.WriteJSONOK(w, resp)
}

// dominanceSection resolves both drivers' fastest laps and partitions the
// track between them. Returns ok=false after writing the error response.
func (s *Server) dominanceSection(w http.ResponseWriter, data *telemetry.SessionData, q map[string][]string) (*dominancePayload, bool) {
	get := func(name, fallback string) string {
		if v, ok := q[name]; ok && len(v) > 0 && v[0] != "" {
			return v[0]
		}
		return fallback
	}

	driver1 := strings.ToUpper(get("driver1", ""))
	driver2 := strings.ToUpper(get("driver2", ""))
	if driver1 == "" || driver2 == "" {
		httputil.BadRequest(w, "track dominance needs both 'driver1' and 'driver2'")
		return nil, false
	}

	segments := 0
	if v := get("segments", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxDominanceSegments {
			httputil.BadRequest(w, "invalid 'segments' parameter")
			return nil, false
		}
		segments = n
	}

	stream1, err := data.Driver(driver1)
	if err != nil {
		writeAnalyticsError(w, err)
		return nil, false
	}
	stream2, err := data.Driver(driver2)
	if err != nil {
		writeAnalyticsError(w, err)
		return nil, false
	}
	lap1, err := telemetry.FastestLap(stream1)
	if err != nil {
		writeAnalyticsError(w, err)
		return nil, false
	}
	lap2, err := telemetry.FastestLap(stream2)
	if err != nil {
		writeAnalyticsError(w, err)
		return nil, false
	}

	result, err := telemetry.SegmentTrack(lap1, lap2, segments, s.cfg)
	if err != nil {
		writeAnalyticsError(w, err)
		return nil, false
	}
	return &dominancePayload{
		DominanceResult: result,
		Driver1Color:    get("driver1_color", defaultDriver1Color),
		Driver2Color:    get("driver2_color", defaultDriver2Color),
	}, true
}

// sessionFastestLap picks the overall fastest accurate lap in the session
// as the representative lap for zone detection.
func sessionFastestLap(data *telemetry.SessionData) (telemetry.Lap, error) {
	var best telemetry.Lap
	found := false
	for i := range data.Drivers {
		lap, err := telemetry.FastestLap(&data.Drivers[i])
		if err != nil {
			continue
		}
		if !found || *lap.LapTime < *best.LapTime {
			best = lap
			found = true
		}
	}
	if !found {
		return telemetry.Lap{}, &telemetry.LapNotFoundError{
			Driver: "session",
			Reason: "no accurate timed laps to analyze",
		}
	}
	return best, nil
}
