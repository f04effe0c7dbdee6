package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/f1nsight/telemetry/internal/httputil"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/units"
)

type sessionTelemetryResponse struct {
	SessionInfo telemetry.SessionInfo `json:"session_info"`
	Drivers     []string              `json:"drivers"`
	Laps        []lapPayload          `json:"laps"`
}

// sessionTelemetry returns lap summaries (with samples) for the session,
// optionally filtered by driver set, lap numbers, and a per-driver cap.
func (s *Server) sessionTelemetry(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	data := s.loadSession(w, r, key)
	if data == nil {
		return
	}

	q := r.URL.Query()
	driverFilter := splitList(q.Get("drivers"))
	lapFilter, err := parseLapNumbers(q.Get("laps"))
	if err != nil {
		httputil.BadRequest(w, "invalid 'laps' parameter")
		return
	}
	maxPerDriver := 0
	if v := q.Get("max_laps_per_driver"); v != "" {
		maxPerDriver, err = strconv.Atoi(v)
		if err != nil || maxPerDriver < 1 {
			httputil.BadRequest(w, "invalid 'max_laps_per_driver' parameter")
			return
		}
	}

	resp := sessionTelemetryResponse{
		SessionInfo: data.Info,
		Drivers:     data.DriverCodes(),
	}
	for _, stream := range data.Drivers {
		if len(driverFilter) > 0 && !contains(driverFilter, stream.Driver) {
			continue
		}
		emitted := 0
		for _, lap := range stream.Laps {
			if len(lapFilter) > 0 && !containsInt(lapFilter, lap.LapNumber) {
				continue
			}
			if maxPerDriver > 0 && emitted >= maxPerDriver {
				break
			}
			sum, err := telemetry.Summarize(lap, s.cfg)
			if err != nil {
				writeAnalyticsError(w, err)
				return
			}
			resp.Laps = append(resp.Laps, s.lapToPayload(lap, sum, true))
			emitted++
		}
	}
	httputil.WriteJSONOK(w, resp)
}

// lapTelemetry returns one specific lap with its full sample stream.
func (s *Server) lapTelemetry(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	lapNumber, err := strconv.Atoi(r.PathValue("lap"))
	if err != nil {
		httputil.BadRequest(w, "invalid 'lap' path parameter")
		return
	}
	data := s.loadSession(w, r, key)
	if data == nil {
		return
	}

	stream, err := data.Driver(strings.ToUpper(r.PathValue("driver")))
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}
	lap, err := telemetry.SelectLap(stream, telemetry.SelectSpecific, lapNumber)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}
	sum, err := telemetry.Summarize(lap, s.cfg)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.lapToPayload(lap, sum, true))
}

type fastestLapEntry struct {
	Position int      `json:"position"`
	Driver   string   `json:"driver"`
	LapNum   int      `json:"lap_number"`
	LapTime  float64  `json:"lap_time"`
	MaxSpeed float64  `json:"max_speed"`
	Gap      *float64 `json:"gap"` // to the session's fastest; nil for P1
}

// fastestLaps ranks every driver's fastest lap, quickest first. Drivers
// without an accurate timed lap are left out rather than ranked on bogus
// times.
func (s *Server) fastestLaps(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
	}
	data := s.loadSession(w, r, key)
	if data == nil {
		return
	}

	var entries []fastestLapEntry
	for i := range data.Drivers {
		stream := &data.Drivers[i]
		lap, err := telemetry.FastestLap(stream)
		if err != nil {
			continue
		}
		sum, err := telemetry.Summarize(lap, s.cfg)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		entries = append(entries, fastestLapEntry{
			Driver:   stream.Driver,
			LapNum:   lap.LapNumber,
			LapTime:  *lap.LapTime,
			MaxSpeed: units.ConvertSpeed(sum.MaxSpeed, s.units),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].LapTime < entries[j].LapTime })
	for i := range entries {
		entries[i].Position = i + 1
		if i > 0 {
			gap := entries[i].LapTime - entries[0].LapTime
			entries[i].Gap = &gap
		}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	httputil.WriteJSONOK(w, entries)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLapNumbers(v string) ([]int, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
