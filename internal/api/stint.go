package api

import (
	"net/http"
	"strings"

	"github.com/f1nsight/telemetry/internal/httputil"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/units"
)

type driverSummaryResponse struct {
	*telemetry.DriverSummary
	FastestLap *lapPayload `json:"fastest_lap"`
}

// driverSummary returns the whole-session rollup for one driver, including
// the fastest lap with its sample stream when one exists.
func (s *Server) driverSummary(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
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

	summary, err := telemetry.SummarizeDriver(stream, key.Session, s.cfg)
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}
	summary.SessionMaxSpeed = units.ConvertSpeed(summary.SessionMaxSpeed, s.units)
	summary.SessionAvgSpeed = units.ConvertSpeed(summary.SessionAvgSpeed, s.units)

	resp := driverSummaryResponse{DriverSummary: summary}
	if summary.FastestLap != nil {
		p := s.lapToPayload(*summary.FastestLap, *summary.FastestLapSummary, true)
		resp.FastestLap = &p
	}
	httputil.WriteJSONOK(w, resp)
}

type stintPayload struct {
	telemetry.Stint
	Laps []lapPayload `json:"stint_laps"`
}

type stintsResponse struct {
	Driver string         `json:"driver"`
	Stints []stintPayload `json:"stints"`
}

// driverStints returns the driver's tire stints with per-stint lap
// summaries and the degradation fit.
func (s *Server) driverStints(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
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

	resp := stintsResponse{Driver: stream.Driver}
	for _, st := range telemetry.GroupStints(stream, s.cfg) {
		st.AvgSpeed = units.ConvertSpeed(st.AvgSpeed, s.units)
		p := stintPayload{Stint: st}
		for _, lap := range st.Laps {
			sum, err := telemetry.Summarize(lap, s.cfg)
			if err != nil {
				writeAnalyticsError(w, err)
				return
			}
			p.Laps = append(p.Laps, s.lapToPayload(lap, sum, false))
		}
		resp.Stints = append(resp.Stints, p)
	}
	httputil.WriteJSONOK(w, resp)
}
