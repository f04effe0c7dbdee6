// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers and the synthetic telemetry
// fixtures used across the analytics and API test files.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/f1nsight/telemetry/internal/telemetry"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// FloatPtr returns a pointer to v, for optional lap-time fields.
func FloatPtr(v float64) *float64 { return &v }

// LapOpts tweaks the synthetic lap generator.
type LapOpts struct {
	TrackLength  float64 // meters; default 5000
	Samples      int     // default 200
	TopSpeed     float64 // km/h; default 320
	WithPosition bool
	Compound     string
	TireAge      int
	Inaccurate   bool
}

// SyntheticLap builds a plausible telemetry lap: a sinusoidal speed profile
// between roughly half and full top speed, braking in the slow phases, DRS
// on the fastest stretch, and gear following speed. Samples are evenly
// spaced in distance with time integrated from speed.
func SyntheticLap(driver string, lapNumber int, lapTime float64, opts LapOpts) telemetry.Lap {
	if opts.TrackLength == 0 {
		opts.TrackLength = 5000
	}
	if opts.Samples == 0 {
		opts.Samples = 200
	}
	if opts.TopSpeed == 0 {
		opts.TopSpeed = 320
	}

	samples := make([]telemetry.Sample, opts.Samples)
	tm := 0.0
	for i := range samples {
		frac := float64(i) / float64(opts.Samples-1)
		dist := frac * opts.TrackLength

		// Three "corners" per lap.
		phase := math.Sin(2 * math.Pi * 3 * frac)
		speed := opts.TopSpeed * (0.75 + 0.25*phase)

		s := telemetry.Sample{
			Time:     tm,
			Distance: dist,
			Speed:    speed,
			RPM:      int(5000 + speed*20),
			Gear:     2 + int(speed/50),
			Throttle: 50 + 50*phase,
		}
		if phase < -0.5 {
			s.Brake = 1
			s.Throttle = 0
		}
		if phase > 0.8 {
			s.DRS = 1
		}
		if opts.WithPosition {
			angle := 2 * math.Pi * frac
			s.X = 1000 * math.Cos(angle)
			s.Y = 600 * math.Sin(angle)
			s.HasPosition = true
		}
		samples[i] = s

		if i < opts.Samples-1 {
			step := opts.TrackLength / float64(opts.Samples-1)
			tm += step / (speed / 3.6)
		}
	}

	lap := telemetry.Lap{
		Driver:       driver,
		LapNumber:    lapNumber,
		IsAccurate:   !opts.Inaccurate,
		TireCompound: opts.Compound,
		TireAge:      opts.TireAge,
		Samples:      samples,
	}
	if lapTime > 0 {
		lap.LapTime = FloatPtr(lapTime)
	}
	return lap
}
