package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/f1nsight/telemetry/internal/api"
	"github.com/f1nsight/telemetry/internal/config"
	"github.com/f1nsight/telemetry/internal/monitoring"
	"github.com/f1nsight/telemetry/internal/session"
	"github.com/f1nsight/telemetry/internal/timeutil"
	"github.com/f1nsight/telemetry/internal/units"
	"github.com/f1nsight/telemetry/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbPath        = flag.String("db", "telemetry.db", "Path to the session archive database")
	tuningPath    = flag.String("tuning", "", "Path to an analysis tuning JSON file (optional)")
	speedUnits    = flag.String("units", units.KMH, "Speed units for responses: "+units.GetValidUnitsString())
	cacheTTL      = flag.Duration("cache-ttl", 0, "Session cache TTL; overrides the tuning file when set")
	migrationsDir = flag.String("migrations", "", "Apply file-based migrations from this directory before serving")
	verbose       = flag.Bool("verbose", false, "Enable debug logging")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.Printf("telemetryd %s", version.Version)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *speedUnits, units.GetValidUnitsString())
	}
	monitoring.SetVerbose(*verbose)

	tuning := config.EmptyAnalysisTuning()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadAnalysisTuning(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		log.Printf("loaded analysis tuning from %s", *tuningPath)
	}

	store, err := session.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session archive: %v", err)
	}
	defer store.Close()

	if *migrationsDir != "" {
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	ttl := tuning.GetCacheTTL()
	if *cacheTTL != 0 {
		ttl = *cacheTTL
	}
	cache := session.NewCache(store, ttl, timeutil.RealClock{})

	server := api.NewServer(cache, cache, tuning.Analysis(), *speedUnits)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(api.CORSMiddleware(server.ServeMux())),
	}

	go func() {
		log.Printf("telemetryd %s listening on %s (db=%s units=%s ttl=%s)",
			version.Version, *listen, *dbPath, *speedUnits, ttl)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
