// Package journal stores client telemetry in Postgres and serves it back
// over HTTP.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/chainreaction/client/internal/analytics"
	"github.com/chainreaction/client/internal/logger"
)

// Store represents the database connection
type Store struct {
	db *sql.DB
}

// Stats summarizes the journal.
type Stats struct {
	Events      int            `json:"events"`
	Sessions    int            `json:"sessions"`
	Failed      int            `json:"failed"`
	ByType      map[string]int `json:"byType"`
	LastEventAt *time.Time     `json:"lastEventAt,omitempty"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS client_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	event_time TIMESTAMPTZ NOT NULL,
	session_id TEXT NOT NULL,
	player_id TEXT,
	game_id TEXT,
	data JSONB
);

CREATE INDEX IF NOT EXISTS idx_client_events_session ON client_events(session_id, event_time DESC);

CREATE TABLE IF NOT EXISTS failed_events (
	id SERIAL PRIMARY KEY,
	topic TEXT NOT NULL,
	partition INT NOT NULL,
	"offset" BIGINT NOT NULL,
	message TEXT,
	error TEXT,
	timestamp TIMESTAMPTZ DEFAULT NOW()
);
`

// Open creates a new database connection with connection pooling
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("[DB] Connected to journal database")
	return &Store{db: db}, nil
}

// Migrate ensures the tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEvent inserts one event. Redelivered events are ignored.
func (s *Store) SaveEvent(ctx context.Context, ev analytics.ClientEvent) error {
	var data []byte
	if ev.Data != nil {
		var err error
		if data, err = json.Marshal(ev.Data); err != nil {
			return fmt.Errorf("error marshaling event data: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_events (id, event_type, event_time, session_id, player_id, game_id, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.Type, ev.Timestamp, ev.SessionID, nullable(ev.PlayerID), nullable(ev.GameID), data,
	)
	if err != nil {
		return fmt.Errorf("error saving event: %w", err)
	}
	return nil
}

// SaveFailed stores a dead-lettered message.
func (s *Store) SaveFailed(ctx context.Context, f analytics.FailedEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_events (topic, partition, "offset", message, error)
		VALUES ($1, $2, $3, $4, $5)`,
		f.Topic, f.Partition, f.Offset, f.Message, f.Error,
	)
	if err != nil {
		return fmt.Errorf("error saving failed event: %w", err)
	}
	return nil
}

// RecentEvents lists the newest events, optionally for one session.
func (s *Store) RecentEvents(ctx context.Context, sessionID string, limit int) ([]analytics.ClientEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, event_time, session_id, COALESCE(player_id, ''), COALESCE(game_id, ''), data
		FROM client_events
		WHERE $1 = '' OR session_id = $1
		ORDER BY event_time DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	events := []analytics.ClientEvent{}
	for rows.Next() {
		var ev analytics.ClientEvent
		var data []byte
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Timestamp, &ev.SessionID, &ev.PlayerID, &ev.GameID, &data); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ev.Data); err != nil {
				return nil, fmt.Errorf("error decoding event data: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Stats aggregates the journal.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByType: map[string]int{}}

	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT session_id), MAX(event_time)
		FROM client_events`,
	).Scan(&st.Events, &st.Sessions, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("error counting events: %w", err)
	}
	if last.Valid {
		st.LastEventAt = &last.Time
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_events`).Scan(&st.Failed); err != nil {
		return Stats{}, fmt.Errorf("error counting failed events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM client_events GROUP BY event_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("error grouping events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return Stats{}, fmt.Errorf("error scanning stats row: %w", err)
		}
		st.ByType[kind] = n
	}
	return st, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
