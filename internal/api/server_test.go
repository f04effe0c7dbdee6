package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1nsight/telemetry/internal/api"
	"github.com/f1nsight/telemetry/internal/session"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/testutil"
	"github.com/f1nsight/telemetry/internal/timeutil"
	"github.com/f1nsight/telemetry/internal/units"
)

var monacoQ = session.Key{Year: 2024, Event: "Monaco", Session: "Q"}

// fixtureSession builds the canonical test session: VER's lap 10 at 92.5s,
// HAM's lap 11 at 92.9s, plus warm-up laps.
func fixtureSession() *telemetry.SessionData {
	return &telemetry.SessionData{
		Info: telemetry.SessionInfo{
			Year: 2024, EventName: "Monaco", Session: "Q",
			TrackName: "Circuit de Monaco", TotalLaps: 78,
			Date: time.Date(2024, 5, 25, 14, 0, 0, 0, time.UTC),
		},
		Drivers: []telemetry.DriverStream{
			{Driver: "VER", Laps: []telemetry.Lap{
				testutil.SyntheticLap("VER", 9, 94.0, testutil.LapOpts{TopSpeed: 320, Compound: "SOFT", TireAge: 0, WithPosition: true}),
				testutil.SyntheticLap("VER", 10, 92.5, testutil.LapOpts{TopSpeed: 330, Compound: "SOFT", TireAge: 1, WithPosition: true}),
			}},
			{Driver: "HAM", Laps: []telemetry.Lap{
				testutil.SyntheticLap("HAM", 11, 92.9, testutil.LapOpts{TopSpeed: 325, Compound: "SOFT", TireAge: 2, WithPosition: true}),
			}},
		},
	}
}

// brokenSession carries a lap with no samples to exercise the 422 path.
func brokenSession() *telemetry.SessionData {
	data := fixtureSession()
	data.Drivers[0].Laps = append(data.Drivers[0].Laps, telemetry.Lap{Driver: "VER", LapNumber: 12})
	return data
}

func fixtureLoader() session.Loader {
	return session.LoaderFunc(func(_ context.Context, key session.Key) (*telemetry.SessionData, error) {
		switch key {
		case monacoQ:
			return fixtureSession(), nil
		case session.Key{Year: 2024, Event: "Monaco", Session: "R"}:
			return brokenSession(), nil
		}
		return nil, &telemetry.SessionUnavailableError{Year: key.Year, Event: key.Event, Session: key.Session}
	})
}

func newTestServer(speedUnits string) http.Handler {
	return api.NewServer(fixtureLoader(), nil, telemetry.DefaultConfig(), speedUnits).ServeMux()
}

// doJSON issues the request and decodes the JSON body into a generic map.
func doJSON(t *testing.T, h http.Handler, method, path string) (int, map[string]interface{}) {
	t.Helper()
	rec := testutil.NewTestRecorder()
	h.ServeHTTP(rec, testutil.NewTestRequest(method, path))
	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec.Code, body
}

func TestHealthAndRoot(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	code, body := doJSON(t, mux, http.MethodGet, "/health")
	testutil.AssertStatusCode(t, code, http.StatusOK)
	assert.Equal(t, "healthy", body["status"])

	code, body = doJSON(t, mux, http.MethodGet, "/")
	testutil.AssertStatusCode(t, code, http.StatusOK)
	assert.NotEmpty(t, body["version"])
}

func TestSessionTelemetry(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	t.Run("full session", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/session/2024/Monaco/Q")
		testutil.AssertStatusCode(t, code, http.StatusOK)

		drivers := body["drivers"].([]interface{})
		assert.ElementsMatch(t, []interface{}{"VER", "HAM"}, drivers)
		assert.Len(t, body["laps"].([]interface{}), 3)
	})

	t.Run("driver and lap filters", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/session/2024/Monaco/Q?drivers=ver&laps=10")
		testutil.AssertStatusCode(t, code, http.StatusOK)

		laps := body["laps"].([]interface{})
		require.Len(t, laps, 1)
		lap := laps[0].(map[string]interface{})
		assert.Equal(t, "VER", lap["driver"])
		assert.Equal(t, float64(10), lap["lap_number"])
		assert.NotEmpty(t, lap["telemetry_points"])
	})

	t.Run("max laps per driver", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/session/2024/Monaco/Q?max_laps_per_driver=1")
		testutil.AssertStatusCode(t, code, http.StatusOK)
		assert.Len(t, body["laps"].([]interface{}), 2)
	})

	t.Run("unknown session is 404 with stable code", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/session/2031/Nowhere/Q")
		testutil.AssertStatusCode(t, code, http.StatusNotFound)
		assert.Equal(t, telemetry.CodeSessionUnavailable, body["code"])
	})

	t.Run("bad year is 400", func(t *testing.T) {
		t.Parallel()
		code, _ := doJSON(t, mux, http.MethodGet, "/telemetry/session/first/Monaco/Q")
		testutil.AssertStatusCode(t, code, http.StatusBadRequest)
	})

	t.Run("empty lap upstream is 422", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/session/2024/Monaco/R")
		testutil.AssertStatusCode(t, code, http.StatusUnprocessableEntity)
		assert.Equal(t, telemetry.CodeEmptyLap, body["code"])
	})
}

func TestLapTelemetry(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	t.Run("specific lap", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/lap/2024/Monaco/Q/VER/10")
		testutil.AssertStatusCode(t, code, http.StatusOK)
		assert.Equal(t, "VER", body["driver"])
		assert.Equal(t, 92.5, body["lap_time"])
		assert.NotEmpty(t, body["telemetry_points"])
	})

	t.Run("driver lookup is case insensitive", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/lap/2024/Monaco/Q/ver/10")
		testutil.AssertStatusCode(t, code, http.StatusOK)
		assert.Equal(t, "VER", body["driver"])
	})

	t.Run("missing driver", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/lap/2024/Monaco/Q/BOT/10")
		testutil.AssertStatusCode(t, code, http.StatusNotFound)
		assert.Equal(t, telemetry.CodeDriverNotInSession, body["code"])
	})

	t.Run("missing lap", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/lap/2024/Monaco/Q/VER/99")
		testutil.AssertStatusCode(t, code, http.StatusNotFound)
		assert.Equal(t, telemetry.CodeLapNotFound, body["code"])
	})
}

func TestCompareDrivers(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	t.Run("specific laps", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet,
			"/telemetry/compare/2024/Monaco/Q?driver1=VER&driver2=HAM&lap_type=specific&lap1=10&lap2=11")
		testutil.AssertStatusCode(t, code, http.StatusOK)

		assert.Equal(t, "VER", body["driver_1"])
		assert.Equal(t, "HAM", body["driver_2"])
		stats := body["comparison_stats"].(map[string]interface{})
		assert.InDelta(t, 92.9-92.5, stats["time_difference"].(float64), 1e-9)
		// HAM tops out 5 km/h below VER.
		assert.InDelta(t, -5.0, stats["max_speed_diff"].(float64), 0.1)
	})

	t.Run("defaults to fastest laps", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/compare/2024/Monaco/Q?driver1=VER&driver2=HAM")
		testutil.AssertStatusCode(t, code, http.StatusOK)
		lap1 := body["lap_1"].(map[string]interface{})
		assert.Equal(t, float64(10), lap1["lap_number"])
	})

	t.Run("both drivers required", func(t *testing.T) {
		t.Parallel()
		code, _ := doJSON(t, mux, http.MethodGet, "/telemetry/compare/2024/Monaco/Q?driver1=VER")
		testutil.AssertStatusCode(t, code, http.StatusBadRequest)
	})

	t.Run("specific needs lap numbers", func(t *testing.T) {
		t.Parallel()
		code, _ := doJSON(t, mux, http.MethodGet,
			"/telemetry/compare/2024/Monaco/Q?driver1=VER&driver2=HAM&lap_type=specific")
		testutil.AssertStatusCode(t, code, http.StatusBadRequest)
	})

	t.Run("unknown lap type", func(t *testing.T) {
		t.Parallel()
		code, _ := doJSON(t, mux, http.MethodGet,
			"/telemetry/compare/2024/Monaco/Q?driver1=VER&driver2=HAM&lap_type=median")
		testutil.AssertStatusCode(t, code, http.StatusBadRequest)
	})
}

func TestFastestLaps(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/telemetry/fastest-lap/2024/Monaco/Q"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, float64(1), entries[0]["position"])
	assert.Equal(t, "VER", entries[0]["driver"])
	assert.Nil(t, entries[0]["gap"])
	assert.Equal(t, "HAM", entries[1]["driver"])
	assert.InDelta(t, 0.4, entries[1]["gap"].(float64), 1e-9)

	rec = testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/telemetry/fastest-lap/2024/Monaco/Q?limit=1"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestDriverSummary(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	code, body := doJSON(t, mux, http.MethodGet, "/telemetry/summary/2024/Monaco/Q/VER")
	testutil.AssertStatusCode(t, code, http.StatusOK)
	assert.Equal(t, "VER", body["driver"])
	assert.Equal(t, float64(2), body["total_laps"])
	assert.InDelta(t, 330.0, body["session_max_speed"].(float64), 0.5)

	fastest := body["fastest_lap"].(map[string]interface{})
	assert.Equal(t, float64(10), fastest["lap_number"])
}

func TestDriverStints(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	code, body := doJSON(t, mux, http.MethodGet, "/telemetry/stint/2024/Monaco/Q/VER")
	testutil.AssertStatusCode(t, code, http.StatusOK)

	stints := body["stints"].([]interface{})
	require.Len(t, stints, 1)
	st := stints[0].(map[string]interface{})
	assert.Equal(t, "SOFT", st["tire_compound"])
	assert.Equal(t, float64(9), st["start_lap"])
	assert.Equal(t, float64(10), st["end_lap"])
	assert.Len(t, st["stint_laps"].([]interface{}), 2)
}

func TestTrackAnalysis(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	t.Run("zones from the session fastest lap", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet, "/telemetry/track-analysis/2024/Monaco?session=Q")
		testutil.AssertStatusCode(t, code, http.StatusOK)

		assert.Equal(t, "Circuit de Monaco", body["track_name"])
		assert.Equal(t, "Q", body["session_analyzed"])
		assert.InDelta(t, 5000.0, body["track_length"].(float64), 1e-6)
		assert.NotEmpty(t, body["speed_zones"])
		assert.NotEmpty(t, body["braking_zones"])
		assert.NotEmpty(t, body["drs_zones"])
		assert.Nil(t, body["track_dominance"])
	})

	t.Run("dominance section", func(t *testing.T) {
		t.Parallel()
		code, body := doJSON(t, mux, http.MethodGet,
			"/telemetry/track-analysis/2024/Monaco?session=Q&driver1=VER&driver2=HAM&segments=4")
		testutil.AssertStatusCode(t, code, http.StatusOK)

		dom := body["track_dominance"].(map[string]interface{})
		assert.Equal(t, "VER", dom["driver1_code"])
		assert.Equal(t, "#FF0000", dom["driver1_color"])
		assert.Equal(t, "#0000FF", dom["driver2_color"])
		assert.Len(t, dom["sections"].([]interface{}), 4)
		assert.NotEmpty(t, dom["circuit_layout"])
	})

	t.Run("dominance needs both drivers", func(t *testing.T) {
		t.Parallel()
		code, _ := doJSON(t, mux, http.MethodGet, "/telemetry/track-analysis/2024/Monaco?driver1=VER")
		testutil.AssertStatusCode(t, code, http.StatusBadRequest)
	})
}

func TestUnitsConversion(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.MPH)

	code, body := doJSON(t, mux, http.MethodGet, "/telemetry/lap/2024/Monaco/Q/VER/10")
	testutil.AssertStatusCode(t, code, http.StatusOK)
	// 330 km/h is just over 205 mph.
	assert.InDelta(t, 330*0.62137119223733, body["max_speed"].(float64), 0.5)

	// Every zone list on the track analysis converts, DRS zones included.
	kmhMux := newTestServer(units.KMH)
	code, mphBody := doJSON(t, mux, http.MethodGet, "/telemetry/track-analysis/2024/Monaco?session=Q")
	testutil.AssertStatusCode(t, code, http.StatusOK)
	code, kmhBody := doJSON(t, kmhMux, http.MethodGet, "/telemetry/track-analysis/2024/Monaco?session=Q")
	testutil.AssertStatusCode(t, code, http.StatusOK)
	for _, list := range []string{"speed_zones", "drs_zones"} {
		mphZones := mphBody[list].([]interface{})
		kmhZones := kmhBody[list].([]interface{})
		require.NotEmpty(t, mphZones, list)
		mphMax := mphZones[0].(map[string]interface{})["max_speed"].(float64)
		kmhMax := kmhZones[0].(map[string]interface{})["max_speed"].(float64)
		assert.InDelta(t, 0.62137119223733, mphMax/kmhMax, 1e-9, list)
	}
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	t.Run("conflict without a cache", func(t *testing.T) {
		t.Parallel()
		mux := newTestServer(units.KMH)
		code, _ := doJSON(t, mux, http.MethodPost, "/api/cache/invalidate")
		testutil.AssertStatusCode(t, code, http.StatusConflict)
	})

	t.Run("drops all or one entry", func(t *testing.T) {
		t.Parallel()
		cache := session.NewCache(fixtureLoader(), time.Hour, timeutil.NewMockClock(time.Unix(1700000000, 0)))
		mux := api.NewServer(cache, cache, telemetry.DefaultConfig(), units.KMH).ServeMux()

		_, err := cache.Load(context.Background(), monacoQ)
		require.NoError(t, err)
		require.Equal(t, 1, cache.Len())

		code, _ := doJSON(t, mux, http.MethodPost, "/api/cache/invalidate?year=2024&event=Monaco&session=Q")
		testutil.AssertStatusCode(t, code, http.StatusOK)
		assert.Zero(t, cache.Len())

		_, err = cache.Load(context.Background(), monacoQ)
		require.NoError(t, err)
		code, _ = doJSON(t, mux, http.MethodPost, "/api/cache/invalidate")
		testutil.AssertStatusCode(t, code, http.StatusOK)
		assert.Zero(t, cache.Len())
	})

	t.Run("partial key is 400", func(t *testing.T) {
		t.Parallel()
		cache := session.NewCache(fixtureLoader(), time.Hour, nil)
		mux := api.NewServer(cache, cache, telemetry.DefaultConfig(), units.KMH).ServeMux()
		code, _ := doJSON(t, mux, http.MethodPost, "/api/cache/invalidate?year=2024")
		testutil.AssertStatusCode(t, code, http.StatusBadRequest)
	})
}

func TestDebugCharts(t *testing.T) {
	t.Parallel()
	mux := newTestServer(units.KMH)

	for _, path := range []string{
		"/debug/charts/speed-trace/2024/Monaco/Q/VER",
		"/debug/charts/track-map/2024/Monaco/Q/VER",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, path))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, rec.Body.String(), "echarts", path)
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()
	h := api.CORSMiddleware(newTestServer(units.KMH))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/health"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, testutil.NewTestRequest(http.MethodOptions, "/telemetry/session/2024/Monaco/Q"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNoContent)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
