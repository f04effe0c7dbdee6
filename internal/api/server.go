// Package api exposes the telemetry analytics over HTTP. Handlers are thin:
// they resolve the session through the loader, call into the analytics core
// and shape the JSON payloads.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/f1nsight/telemetry/internal/httputil"
	"github.com/f1nsight/telemetry/internal/session"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/units"
	"github.com/f1nsight/telemetry/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server wires the session loader and analytics configuration to the HTTP
// surface. Requests are pure computations over loader snapshots; the server
// holds no mutable state of its own beyond the cache it may front.
type Server struct {
	loader session.Loader
	cache  *session.Cache // nil unless caching is enabled; used for invalidation
	cfg    telemetry.Config
	units  string
}

// NewServer creates a Server. cache may be nil when the loader is used
// directly; units must be one of units.ValidUnits.
func NewServer(loader session.Loader, cache *session.Cache, cfg telemetry.Config, speedUnits string) *Server {
	if !units.IsValid(speedUnits) {
		speedUnits = units.KMH
	}
	return &Server{
		loader: loader,
		cache:  cache,
		cfg:    cfg,
		units:  speedUnits,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// CORSMiddleware allows browser frontends on other origins to call the API.
// The surface is read-only analytics, so a permissive policy is fine.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /telemetry/session/{year}/{event}/{session}", s.sessionTelemetry)
	mux.HandleFunc("GET /telemetry/lap/{year}/{event}/{session}/{driver}/{lap}", s.lapTelemetry)
	mux.HandleFunc("GET /telemetry/compare/{year}/{event}/{session}", s.compareDrivers)
	mux.HandleFunc("GET /telemetry/summary/{year}/{event}/{session}/{driver}", s.driverSummary)
	mux.HandleFunc("GET /telemetry/fastest-lap/{year}/{event}/{session}", s.fastestLaps)
	mux.HandleFunc("GET /telemetry/stint/{year}/{event}/{session}/{driver}", s.driverStints)
	mux.HandleFunc("GET /telemetry/track-analysis/{year}/{event}", s.trackAnalysis)

	mux.HandleFunc("GET /debug/charts/speed-trace/{year}/{event}/{session}/{driver}", s.speedTraceChart)
	mux.HandleFunc("GET /debug/charts/track-map/{year}/{event}/{session}/{driver}", s.trackMapChart)

	mux.HandleFunc("POST /api/cache/invalidate", s.invalidateCache)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /{$}", s.root)

	return mux
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"message": "F1nsight telemetry API",
		"version": version.Version,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "healthy",
		"version": version.Version,
	})
}

// invalidateCache drops cached sessions: all of them, or one (year, event,
// session) triple when the query names it.
func (s *Server) invalidateCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		httputil.WriteJSONError(w, http.StatusConflict, "session cache not enabled")
		return
	}
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("event") == "" && q.Get("session") == "" {
		s.cache.InvalidateAll()
		httputil.WriteJSONOK(w, map[string]string{"status": "invalidated all"})
		return
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || q.Get("event") == "" || q.Get("session") == "" {
		httputil.BadRequest(w, "invalidate needs year, event and session, or none of them")
		return
	}
	key := session.Key{Year: year, Event: q.Get("event"), Session: q.Get("session")}
	s.cache.Invalidate(key)
	httputil.WriteJSONOK(w, map[string]string{"status": "invalidated " + key.String()})
}

// sessionKey parses the common path parameters.
func sessionKey(r *http.Request) (session.Key, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return session.Key{}, errors.New("invalid 'year' path parameter")
	}
	return session.Key{
		Year:    year,
		Event:   r.PathValue("event"),
		Session: r.PathValue("session"),
	}, nil
}

// loadSession fetches the session snapshot and maps failures onto HTTP
// responses. Returns nil after writing the response when loading failed.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request, key session.Key) *telemetry.SessionData {
	data, err := s.loader.Load(r.Context(), key)
	if err != nil {
		writeAnalyticsError(w, err)
		return nil
	}
	return data
}

// writeAnalyticsError maps the core error taxonomy onto status codes. Every
// analytics failure is a 4xx with a stable code; anything without a code is
// an infrastructure fault.
func writeAnalyticsError(w http.ResponseWriter, err error) {
	var coder telemetry.Coder
	if !errors.As(err, &coder) {
		httputil.InternalServerError(w, err.Error())
		return
	}
	status := http.StatusNotFound
	switch coder.Code() {
	case telemetry.CodeEmptyLap, telemetry.CodeIncomparableLaps:
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSONErrorCode(w, status, coder.Code(), coder.Error())
}
