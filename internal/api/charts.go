package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/f1nsight/telemetry/internal/httputil"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/units"
)

// viridis ramp shared by the debug charts.
var chartColorRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// chartLap resolves the driver's lap for a debug chart request. Query params
// lap_type (default fastest) and lap (for lap_type=specific) mirror the JSON
// endpoints. Returns ok=false after writing the error response.
func (s *Server) chartLap(w http.ResponseWriter, r *http.Request) (telemetry.Lap, bool) {
	key, err := sessionKey(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return telemetry.Lap{}, false
	}
	data := s.loadSession(w, r, key)
	if data == nil {
		return telemetry.Lap{}, false
	}
	stream, err := data.Driver(strings.ToUpper(r.PathValue("driver")))
	if err != nil {
		writeAnalyticsError(w, err)
		return telemetry.Lap{}, false
	}

	selector := telemetry.LapSelector(r.URL.Query().Get("lap_type"))
	if selector == "" {
		selector = telemetry.SelectFastest
	}
	if !telemetry.ValidSelector(selector) {
		httputil.BadRequest(w, "invalid 'lap_type' parameter")
		return telemetry.Lap{}, false
	}
	lapNumber := 0
	if v := r.URL.Query().Get("lap"); v != "" {
		lapNumber, err = strconv.Atoi(v)
		if err != nil {
			httputil.BadRequest(w, "invalid 'lap' parameter")
			return telemetry.Lap{}, false
		}
	}
	lap, err := telemetry.SelectLap(stream, selector, lapNumber)
	if err != nil {
		writeAnalyticsError(w, err)
		return telemetry.Lap{}, false
	}
	return lap, true
}

func chartLapSubtitle(lap telemetry.Lap) string {
	if lap.LapTime != nil {
		return fmt.Sprintf("%s lap %d (%.3fs)", lap.Driver, lap.LapNumber, *lap.LapTime)
	}
	return fmt.Sprintf("%s lap %d (no time)", lap.Driver, lap.LapNumber)
}

// speedTraceChart renders a quick line plot (HTML) of speed over lap distance
// using go-echarts. Debugging-only endpoint to eyeball a lap without a client.
func (s *Server) speedTraceChart(w http.ResponseWriter, r *http.Request) {
	lap, ok := s.chartLap(w, r)
	if !ok {
		return
	}

	x := make([]string, 0, len(lap.Samples))
	y := make([]opts.LineData, 0, len(lap.Samples))
	for _, sm := range lap.Samples {
		x = append(x, fmt.Sprintf("%.0f", sm.Distance))
		y = append(y, opts.LineData{Value: units.ConvertSpeed(sm.Speed, s.units)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed Trace", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Speed Trace", Subtitle: chartLapSubtitle(lap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (" + s.units + ")", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(x).AddSeries("speed", y, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// trackMapChart renders the lap's positional trace as an XY scatter colored
// by speed. Laps without position data get a 404.
func (s *Server) trackMapChart(w http.ResponseWriter, r *http.Request) {
	lap, ok := s.chartLap(w, r)
	if !ok {
		return
	}

	pts := make([]opts.ScatterData, 0, len(lap.Samples))
	maxAbs := 0.0
	maxSpeed := 0.0
	for _, sm := range lap.Samples {
		if !sm.HasPosition {
			continue
		}
		if math.Abs(sm.X) > maxAbs {
			maxAbs = math.Abs(sm.X)
		}
		if math.Abs(sm.Y) > maxAbs {
			maxAbs = math.Abs(sm.Y)
		}
		speed := units.ConvertSpeed(sm.Speed, s.units)
		if speed > maxSpeed {
			maxSpeed = speed
		}
		pts = append(pts, opts.ScatterData{Value: []interface{}{sm.X, sm.Y, speed}})
	}
	if len(pts) == 0 {
		httputil.NotFound(w, "lap has no position data")
		return
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxSpeed == 0 {
		maxSpeed = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Track Map", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Track Map", Subtitle: chartLapSubtitle(lap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSpeed),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: chartColorRamp},
		}),
	)
	scatter.AddSeries("position", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
