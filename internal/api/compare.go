package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/f1nsight/telemetry/internal/httputil"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/units"
)

type comparisonResponse struct {
	Driver1 string     `json:"driver_1"`
	Driver2 string     `json:"driver_2"`
	Lap1    lapPayload `json:"lap_1"`
	Lap2    lapPayload `json:"lap_2"`

	ComparisonStats comparisonStats `json:"comparison_stats"`
}

type comparisonStats struct {
	TimeDelta     float64 `json:"time_difference"`
	MaxSpeedDelta float64 `json:"max_speed_diff"`
	AvgSpeedDelta float64 `json:"avg_speed_diff"`
	ThrottleDelta float64 `json:"throttle_diff"`
	BrakeDelta    float64 `json:"brake_diff"`
	DRSDelta      float64 `json:"drs_diff"`
}

// compareDrivers compares one lap of each of two drivers. Each driver's lap
// resolves independently via lap_type: fastest, first, last, or specific
// with lap1/lap2 numbers. If either side cannot be resolved the whole
// comparison fails; one-sided results are never returned.
func (s *Server) compareDrivers(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	q := r.URL.Query()
	driver1 := strings.ToUpper(q.Get("driver1"))
	driver2 := strings.ToUpper(q.Get("driver2"))
	if driver1 == "" || driver2 == "" {
		httputil.BadRequest(w, "'driver1' and 'driver2' parameters are required")
		return
	}

	lapType := telemetry.LapSelector(q.Get("lap_type"))
	if lapType == "" {
		lapType = telemetry.SelectFastest
	}
	if !telemetry.ValidSelector(lapType) {
		httputil.BadRequest(w, "invalid 'lap_type': want fastest, first, last or specific")
		return
	}

	var lapNum1, lapNum2 int
	if lapType == telemetry.SelectSpecific {
		lapNum1, err = strconv.Atoi(q.Get("lap1"))
		if err != nil {
			httputil.BadRequest(w, "'lap1' is required for lap_type=specific")
			return
		}
		lapNum2, err = strconv.Atoi(q.Get("lap2"))
		if err != nil {
			httputil.BadRequest(w, "'lap2' is required for lap_type=specific")
			return
		}
	}

	data := s.loadSession(w, r, key)
	if data == nil {
		return
	}

	stream1, err := data.Driver(driver1)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}
	stream2, err := data.Driver(driver2)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}

	lap1, err := telemetry.SelectLap(stream1, lapType, lapNum1)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}
	lap2, err := telemetry.SelectLap(stream2, lapType, lapNum2)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}

	result, err := telemetry.Compare(lap1, lap2, s.cfg)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}

	httputil.WriteJSONOK(w, comparisonResponse{
		Driver1: result.Driver1,
		Driver2: result.Driver2,
		Lap1:    s.lapToPayload(result.Lap1, result.Summary1, true),
		Lap2:    s.lapToPayload(result.Lap2, result.Summary2, true),
		ComparisonStats: comparisonStats{
			TimeDelta:     result.TimeDelta,
			MaxSpeedDelta: units.ConvertSpeed(result.MaxSpeedDelta, s.units),
			AvgSpeedDelta: units.ConvertSpeed(result.AvgSpeedDelta, s.units),
			ThrottleDelta: result.ThrottleDelta,
			BrakeDelta:    result.BrakeDelta,
			DRSDelta:      result.DRSDelta,
		},
	})
}
