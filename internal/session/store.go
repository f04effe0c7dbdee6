package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/f1nsight/telemetry/internal/telemetry"
)

// Store is a SQLite-backed archive of recorded sessions. It implements
// Loader for replay and SaveSession for ingest. The schema is created on
// open; golang-migrate (migrate.go) manages later revisions.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the archive at path. Use ":memory:" for
// an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			year              INTEGER NOT NULL,
			event             TEXT NOT NULL,
			session           TEXT NOT NULL,
			track_name        TEXT,
			total_laps        INTEGER,
			session_date      TIMESTAMP,
			recorded_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(year, event, session)
		);
		CREATE TABLE IF NOT EXISTS laps (
			lap_id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id        TEXT NOT NULL,
			driver            TEXT NOT NULL,
			lap_number        INTEGER NOT NULL,
			lap_time          DOUBLE,
			is_accurate       BOOLEAN NOT NULL DEFAULT 0,
			tire_compound     TEXT,
			tire_age          INTEGER,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS samples (
			lap_id            INTEGER NOT NULL,
			seq               INTEGER NOT NULL,
			time              DOUBLE,
			distance          DOUBLE,
			x                 DOUBLE,
			y                 DOUBLE,
			z                 DOUBLE,
			has_position      BOOLEAN,
			speed             DOUBLE,
			rpm               INTEGER,
			gear              INTEGER,
			throttle          DOUBLE,
			brake             DOUBLE,
			drs               INTEGER,
			steering          DOUBLE,
			PRIMARY KEY(lap_id, seq),
			FOREIGN KEY(lap_id) REFERENCES laps(lap_id)
		);
		CREATE INDEX IF NOT EXISTS idx_laps_session ON laps(session_id, driver, lap_number);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &Store{db}, nil
}

// SaveSession records a materialized session under key. Recording the same
// key twice replaces the earlier copy.
func (s *Store) SaveSession(ctx context.Context, key Key, data *telemetry.SessionData) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSession(ctx, tx, key); err != nil {
		return err
	}

	sessionID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, year, event, session, track_name, total_laps, session_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, key.Year, key.Event, key.Session,
		data.Info.TrackName, data.Info.TotalLaps, data.Info.Date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	lapStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO laps (session_id, driver, lap_number, lap_time, is_accurate, tire_compound, tire_age)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer lapStmt.Close()

	sampleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (lap_id, seq, time, distance, x, y, z, has_position,
			speed, rpm, gear, throttle, brake, drs, steering)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer sampleStmt.Close()

	for _, d := range data.Drivers {
		for _, lap := range d.Laps {
			res, err := lapStmt.ExecContext(ctx, sessionID, d.Driver, lap.LapNumber,
				lap.LapTime, lap.IsAccurate, lap.TireCompound, lap.TireAge)
			if err != nil {
				return fmt.Errorf("failed to insert lap %d for %s: %w", lap.LapNumber, d.Driver, err)
			}
			lapID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for seq, p := range lap.Samples {
				_, err := sampleStmt.ExecContext(ctx, lapID, seq, p.Time, p.Distance,
					p.X, p.Y, p.Z, p.HasPosition,
					p.Speed, p.RPM, p.Gear, p.Throttle, p.Brake, p.DRS, p.Steering)
				if err != nil {
					return fmt.Errorf("failed to insert sample %d of lap %d for %s: %w", seq, lap.LapNumber, d.Driver, err)
				}
			}
		}
	}

	return tx.Commit()
}

func deleteSession(ctx context.Context, tx *sql.Tx, key Key) error {
	var sessionID string
	err := tx.QueryRowContext(ctx,
		`SELECT session_id FROM sessions WHERE year = ? AND event = ? AND session = ?`,
		key.Year, key.Event, key.Session).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM samples WHERE lap_id IN (SELECT lap_id FROM laps WHERE session_id = ?)`,
		`DELETE FROM laps WHERE session_id = ?`,
		`DELETE FROM sessions WHERE session_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// Load materializes a recorded session, implementing Loader. A key absent
// from the archive surfaces as SessionUnavailableError.
func (s *Store) Load(ctx context.Context, key Key) (*telemetry.SessionData, error) {
	var sessionID, trackName, dateStr string
	var totalLaps int
	err := s.QueryRowContext(ctx,
		`SELECT session_id, track_name, total_laps, session_date
		 FROM sessions WHERE year = ? AND event = ? AND session = ?`,
		key.Year, key.Event, key.Session).Scan(&sessionID, &trackName, &totalLaps, &dateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &telemetry.SessionUnavailableError{Year: key.Year, Event: key.Event, Session: key.Session}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", key, err)
	}

	date, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session date for %s: %w", key, err)
	}
	data := &telemetry.SessionData{
		Info: telemetry.SessionInfo{
			Year:      key.Year,
			EventName: key.Event,
			Session:   key.Session,
			TrackName: trackName,
			TotalLaps: totalLaps,
			Date:      date,
		},
	}

	rows, err := s.QueryContext(ctx, `
		SELECT lap_id, driver, lap_number, lap_time, is_accurate, tire_compound, tire_age
		FROM laps WHERE session_id = ? ORDER BY lap_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query laps for %s: %w", key, err)
	}
	defer rows.Close()

	streams := make(map[string]int) // driver -> index in data.Drivers
	var lapIDs []int64
	var lapAt [][2]int // (driver index, lap index) per lapID; appends may move slices
	for rows.Next() {
		var lapID int64
		var lap telemetry.Lap
		var compound sql.NullString
		if err := rows.Scan(&lapID, &lap.Driver, &lap.LapNumber, &lap.LapTime,
			&lap.IsAccurate, &compound, &lap.TireAge); err != nil {
			return nil, err
		}
		lap.TireCompound = compound.String

		idx, ok := streams[lap.Driver]
		if !ok {
			idx = len(data.Drivers)
			streams[lap.Driver] = idx
			data.Drivers = append(data.Drivers, telemetry.DriverStream{Driver: lap.Driver})
		}
		data.Drivers[idx].Laps = append(data.Drivers[idx].Laps, lap)
		lapIDs = append(lapIDs, lapID)
		lapAt = append(lapAt, [2]int{idx, len(data.Drivers[idx].Laps) - 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, lapID := range lapIDs {
		samples, err := s.loadSamples(ctx, lapID)
		if err != nil {
			return nil, err
		}
		at := lapAt[i]
		data.Drivers[at[0]].Laps[at[1]].Samples = samples
	}
	return data, nil
}

func (s *Store) loadSamples(ctx context.Context, lapID int64) ([]telemetry.Sample, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT time, distance, x, y, z, has_position, speed, rpm, gear, throttle, brake, drs, steering
		FROM samples WHERE lap_id = ? ORDER BY seq`, lapID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples for lap %d: %w", lapID, err)
	}
	defer rows.Close()

	var samples []telemetry.Sample
	for rows.Next() {
		var p telemetry.Sample
		if err := rows.Scan(&p.Time, &p.Distance, &p.X, &p.Y, &p.Z, &p.HasPosition,
			&p.Speed, &p.RPM, &p.Gear, &p.Throttle, &p.Brake, &p.DRS, &p.Steering); err != nil {
			return nil, err
		}
		samples = append(samples, p)
	}
	return samples, rows.Err()
}

// Sessions lists the recorded session keys, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Key, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT year, event, session FROM sessions ORDER BY recorded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Year, &k.Event, &k.Session); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
