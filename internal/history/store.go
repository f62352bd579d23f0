// Package history records every completed check in a local SQLite database
// so 'watchdog history' can show what the daemon has been doing. Only the
// daemon writes here; the topics file stays the sole shared state.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"watchdog/internal/checker"
)

// Entry is one recorded check.
type Entry struct {
	ID         int64
	Topic      string
	Verdict    checker.Verdict
	Summary    string
	Confidence float64
	SourceURL  string
	Err        string
	Notified   bool
	Rounds     int
	Duration   time.Duration
	CheckedAt  time.Time
}

// Store manages check history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS check_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    topic TEXT NOT NULL,
    verdict TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0,
    source_url TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    notified INTEGER NOT NULL DEFAULT 0,
    rounds INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    checked_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_check_history_topic ON check_history (topic, checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_check_history_checked_at ON check_history (checked_at DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one check outcome.
func (s *Store) Record(ctx context.Context, result checker.Result, notified bool) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO check_history (
            topic, verdict, summary, confidence, source_url,
            error, notified, rounds, duration_ms, checked_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Topic,
		string(result.Verdict),
		result.Summary,
		result.Confidence,
		result.SourceURL,
		result.Err,
		boolToInt(notified),
		result.Rounds,
		result.Duration.Milliseconds(),
		result.CheckedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest entries, optionally filtered by topic.
func (s *Store) ListRecent(ctx context.Context, topic string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, topic, verdict, summary, confidence, source_url,
        error, notified, rounds, duration_ms, checked_at
        FROM check_history`
	var args []any
	if strings.TrimSpace(topic) != "" {
		query += " WHERE topic = ?"
		args = append(args, topic)
	}
	query += " ORDER BY checked_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM check_history WHERE checked_at < ?`,
		olderThan.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var entry Entry
	var verdict string
	var notified int
	var durationMillis int64
	var checkedAt string
	if err := rows.Scan(
		&entry.ID,
		&entry.Topic,
		&verdict,
		&entry.Summary,
		&entry.Confidence,
		&entry.SourceURL,
		&entry.Err,
		&notified,
		&entry.Rounds,
		&durationMillis,
		&checkedAt,
	); err != nil {
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	entry.Verdict = checker.Verdict(verdict)
	entry.Notified = notified != 0
	entry.Duration = time.Duration(durationMillis) * time.Millisecond
	parsed, err := time.Parse(time.RFC3339Nano, checkedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parse checked_at %q: %w", checkedAt, err)
	}
	entry.CheckedAt = parsed
	return entry, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
