// Package session provides the boundary to the upstream telemetry source:
// the loader contract the analytics core consumes sessions through, a TTL
// cache keyed by (year, event, session), and a SQLite-backed archive of
// recorded sessions.
package session

import (
	"context"
	"fmt"

	"github.com/f1nsight/telemetry/internal/telemetry"
)

// Key identifies one session selection.
type Key struct {
	Year    int
	Event   string
	Session string
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Year, k.Event, k.Session)
}

// Loader supplies fully materialized sessions. Implementations return
// *telemetry.SessionUnavailableError when the triple cannot be served; any
// other error is an infrastructure fault. Returned sessions are read-only
// snapshots and must not be mutated by callers.
type Loader interface {
	Load(ctx context.Context, key Key) (*telemetry.SessionData, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, key Key) (*telemetry.SessionData, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, key Key) (*telemetry.SessionData, error) {
	return f(ctx, key)
}
