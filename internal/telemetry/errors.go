package telemetry

import "fmt"

// Error codes shared with the HTTP layer. Each analytics failure carries one
// of these so API clients get a stable machine-readable kind alongside the
// human-readable message.
const (
	CodeSessionUnavailable = "session_unavailable"
	CodeDriverNotInSession = "driver_not_in_session"
	CodeLapNotFound        = "lap_not_found"
	CodeEmptyLap           = "empty_lap"
	CodeIncomparableLaps   = "incomparable_laps"
)

// SessionUnavailableError reports that the upstream loader cannot supply a
// sample stream for the requested (year, event, session) triple.
type SessionUnavailableError struct {
	Year    int
	Event   string
	Session string
}

func (e *SessionUnavailableError) Error() string {
	return fmt.Sprintf("session %d/%s/%s unavailable", e.Year, e.Event, e.Session)
}

// Code returns the stable error code for this failure kind.
func (e *SessionUnavailableError) Code() string { return CodeSessionUnavailable }

// DriverNotInSessionError reports a driver abbreviation absent from the
// session's driver set.
type DriverNotInSessionError struct {
	Driver string
}

func (e *DriverNotInSessionError) Error() string {
	return fmt.Sprintf("driver %s not in session", e.Driver)
}

func (e *DriverNotInSessionError) Code() string { return CodeDriverNotInSession }

// LapNotFoundError reports a lap selection that could not be resolved:
// a lap number missing for the driver, or "fastest" requested on a driver
// with no accurate timed laps.
type LapNotFoundError struct {
	Driver string
	Reason string
}

func (e *LapNotFoundError) Error() string {
	return fmt.Sprintf("lap not found for %s: %s", e.Driver, e.Reason)
}

func (e *LapNotFoundError) Code() string { return CodeLapNotFound }

// EmptyLapError reports a lap boundary that yielded zero samples. This is a
// data-quality fault from upstream; it is surfaced rather than skipped.
type EmptyLapError struct {
	Driver    string
	LapNumber int
}

func (e *EmptyLapError) Error() string {
	return fmt.Sprintf("lap %d for %s has no samples", e.LapNumber, e.Driver)
}

func (e *EmptyLapError) Code() string { return CodeEmptyLap }

// IncomparableLapsError reports two laps whose distance ranges do not
// overlap, e.g. a lap that never left the pit.
type IncomparableLapsError struct {
	Driver1, Driver2 string
}

func (e *IncomparableLapsError) Error() string {
	return fmt.Sprintf("laps for %s and %s cover disjoint distance ranges", e.Driver1, e.Driver2)
}

func (e *IncomparableLapsError) Code() string { return CodeIncomparableLaps }

// Coder is implemented by every analytics error carrying a stable code.
type Coder interface {
	error
	Code() string
}
