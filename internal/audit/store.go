// Package audit records every administrative mutation issued through the
// console in a local SQLite database. Unlike the on-page activity feed,
// which is bounded and process-local, this trail is durable and
// queryable after restarts.
package audit

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS admin_actions (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	action TEXT NOT NULL,
	subscriber_id TEXT NOT NULL,
	detail TEXT,
	outcome TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_actions_action ON admin_actions(action);
CREATE INDEX IF NOT EXISTS idx_actions_subscriber ON admin_actions(subscriber_id);
CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON admin_actions(timestamp);
`

// Store manages the SQLite admin-action trail.
type Store struct {
	db     *sql.DB
	writes chan Entry
	done   chan struct{}
	logger *slog.Logger
}

// NewStore opens (or creates) the SQLite database at dbPath.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	// WAL keeps reads cheap while the write loop runs.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("setting WAL mode: %w (also: close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("creating schema: %w (also: close: %v)", err, cerr)
		}
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{
		db:     db,
		writes: make(chan Entry, 256),
		done:   make(chan struct{}),
		logger: logger,
	}

	go s.writeLoop()
	return s, nil
}

// Log enqueues an entry for async writing. Request handlers never block
// on the database.
func (s *Store) Log(entry Entry) {
	select {
	case s.writes <- entry:
	default:
		s.logger.Warn("audit write buffer full, dropping entry", "id", entry.ID)
	}
}

// Query returns entries matching the given filters, newest first.
func (s *Store) Query(opts QueryOpts) ([]Entry, error) {
	query := "SELECT id, timestamp, action, subscriber_id, detail, outcome FROM admin_actions WHERE 1=1"
	var args []any

	if opts.Action != "" {
		query += " AND action = ?"
		args = append(args, opts.Action)
	}
	if opts.SubscriberID != "" {
		query += " AND subscriber_id = ?"
		args = append(args, opts.SubscriberID)
	}
	if opts.Failed {
		query += " AND outcome != 'ok'"
	}
	if opts.Since != "" {
		query += " AND timestamp >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY timestamp DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	} else {
		query += " LIMIT 50"
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying admin actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.SubscriberID, &detail, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	close(s.writes)
	<-s.done
	return s.db.Close()
}

func (s *Store) writeLoop() {
	defer close(s.done)
	for entry := range s.writes {
		_, err := s.db.Exec(
			`INSERT INTO admin_actions (id, timestamp, action, subscriber_id, detail, outcome) VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.Timestamp, entry.Action, entry.SubscriberID, entry.Detail, entry.Outcome,
		)
		if err != nil {
			s.logger.Error("audit write failed", "id", entry.ID, "error", err)
		}
	}
}

// QueryOpts holds filters for admin-action queries.
type QueryOpts struct {
	Action       Action
	SubscriberID string
	Failed       bool
	Since        string
	Limit        int
}
