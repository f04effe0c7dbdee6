// Command import-session loads a recorded session fixture (JSON) into the
// archive database so telemetryd can serve it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/f1nsight/telemetry/internal/session"
	"github.com/f1nsight/telemetry/internal/telemetry"
)

type sampleFixture struct {
	telemetry.Sample
	HasPosition bool `json:"has_position"`
}

type lapFixture struct {
	telemetry.Lap
	Samples []sampleFixture `json:"samples"`
}

type driverFixture struct {
	Driver string       `json:"driver"`
	Laps   []lapFixture `json:"laps"`
}

type sessionFixture struct {
	Info    telemetry.SessionInfo `json:"session_info"`
	Drivers []driverFixture       `json:"drivers"`
}

func main() {
	dbPath := flag.String("db", "telemetry.db", "path to the session archive database")
	input := flag.String("in", "", "path to the session fixture JSON")
	flag.Parse()

	if *input == "" {
		log.Fatal("-in is required")
	}

	raw, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("failed to read fixture: %v", err)
	}
	var fx sessionFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		log.Fatalf("failed to parse fixture: %v", err)
	}
	if fx.Info.Year == 0 || fx.Info.EventName == "" || fx.Info.Session == "" {
		log.Fatal("fixture session_info must carry year, event_name and session")
	}

	data := &telemetry.SessionData{Info: fx.Info}
	laps, samples := 0, 0
	for _, d := range fx.Drivers {
		stream := telemetry.DriverStream{Driver: d.Driver}
		for _, lf := range d.Laps {
			lap := lf.Lap
			lap.Driver = d.Driver
			lap.Samples = make([]telemetry.Sample, len(lf.Samples))
			for i, sf := range lf.Samples {
				lap.Samples[i] = sf.Sample
				lap.Samples[i].HasPosition = sf.HasPosition
			}
			stream.Laps = append(stream.Laps, lap)
			laps++
			samples += len(lap.Samples)
		}
		data.Drivers = append(data.Drivers, stream)
	}

	store, err := session.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session archive: %v", err)
	}
	defer store.Close()

	key := session.Key{Year: fx.Info.Year, Event: fx.Info.EventName, Session: fx.Info.Session}
	if err := store.SaveSession(context.Background(), key, data); err != nil {
		log.Fatalf("failed to save session: %v", err)
	}
	log.Printf("imported %s: %d drivers, %d laps, %d samples",
		key.String(), len(data.Drivers), laps, samples)
}
