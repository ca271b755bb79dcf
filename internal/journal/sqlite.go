package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteJournal implements Journal using an in-memory SQLite database.
type SQLiteJournal struct {
	db       *sql.DB
	launchID string
	mu       sync.RWMutex
}

// NewSQLiteJournal creates the journal for one launch. The database always
// lives at ":memory:"; the launch ID tags every recorded event.
func NewSQLiteJournal(launchID string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	j := &SQLiteJournal{db: db, launchID: launchID}
	if err := j.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS launch_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		launch_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_launch_id ON launch_events(launch_id);
	CREATE INDEX IF NOT EXISTS idx_event_type ON launch_events(event_type);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends a lifecycle event.
func (j *SQLiteJournal) Record(ctx context.Context, event string, detail map[string]string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var detailJSON []byte
	if detail != nil {
		var err error
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshal event detail: %w", err)
		}
	}

	timestamp := time.Now().UnixNano()
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO launch_events (launch_id, event_type, timestamp, detail) VALUES (?, ?, ?, ?)",
		j.launchID, event, timestamp, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// Entries returns all events for this launch in insertion order.
func (j *SQLiteJournal) Entries(ctx context.Context) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, launch_id, event_type, timestamp, detail FROM launch_events WHERE launch_id = ? ORDER BY id",
		j.launchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestampNano int64
		var detailJSON []byte

		err := rows.Scan(&e.ID, &e.LaunchID, &e.Event, &timestampNano, &detailJSON)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e.Timestamp = time.Unix(0, timestampNano)

		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal event detail: %w", err)
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
