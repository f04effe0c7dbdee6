package api

import (
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/units"
)

// lapPayload is the wire shape of one lap: identity, recorded time and the
// derived summary inline, optionally with the full sample stream.
type lapPayload struct {
	Driver     string   `json:"driver"`
	LapNumber  int      `json:"lap_number"`
	LapTime    *float64 `json:"lap_time"`
	IsAccurate bool     `json:"is_accurate"`

	telemetry.Summary

	TelemetryPoints []telemetry.Sample `json:"telemetry_points,omitempty"`
}

// lapToPayload shapes a lap for the wire, converting speeds to the server's
// units. withPoints controls whether the raw samples ride along.
func (s *Server) lapToPayload(lap telemetry.Lap, sum telemetry.Summary, withPoints bool) lapPayload {
	p := lapPayload{
		Driver:     lap.Driver,
		LapNumber:  lap.LapNumber,
		LapTime:    lap.LapTime,
		IsAccurate: lap.IsAccurate,
		Summary:    s.convertSummary(sum),
	}
	if withPoints {
		p.TelemetryPoints = s.convertSamples(lap.Samples)
	}
	return p
}

func (s *Server) convertSummary(sum telemetry.Summary) telemetry.Summary {
	sum.MaxSpeed = units.ConvertSpeed(sum.MaxSpeed, s.units)
	sum.AvgSpeed = units.ConvertSpeed(sum.AvgSpeed, s.units)
	return sum
}

func (s *Server) convertSamples(samples []telemetry.Sample) []telemetry.Sample {
	if s.units == units.KMH {
		return samples
	}
	out := make([]telemetry.Sample, len(samples))
	copy(out, samples)
	for i := range out {
		out[i].Speed = units.ConvertSpeed(out[i].Speed, s.units)
	}
	return out
}

func (s *Server) convertZones(zones []telemetry.Zone) []telemetry.Zone {
	if s.units == units.KMH {
		return zones
	}
	out := make([]telemetry.Zone, len(zones))
	copy(out, zones)
	for i := range out {
		out[i].AvgSpeed = units.ConvertSpeed(out[i].AvgSpeed, s.units)
		out[i].MaxSpeed = units.ConvertSpeed(out[i].MaxSpeed, s.units)
		if out[i].Type == telemetry.ZoneSpeed || out[i].Type == telemetry.ZoneBraking {
			out[i].Intensity = units.ConvertSpeed(out[i].Intensity, s.units)
		}
	}
	return out
}
