// Package store provides a SQLite-backed question log. Every answered
// question is persisted with its answer and cited sources, keyed by the
// caller's session ID. The log is an audit trail only; logged entries are
// never fed back into the model context.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Entry is one answered question.
type Entry struct {
	// SessionID identifies the client session the question belongs to.
	SessionID string
	// Question is the user's question text.
	Question string
	// Answer is the reply that was returned.
	Answer string
	// Sources lists the source document titles cited in the answer.
	Sources []string
	// CreatedAt is when the entry was persisted.
	CreatedAt time.Time
}

// QuestionLog persists and retrieves answered questions. Implementations
// must be safe for concurrent use.
type QuestionLog interface {
	// Append persists one answered question.
	Append(ctx context.Context, e Entry) error
	// Recent returns the most recent n entries for the session, ordered
	// oldest-first. If fewer than n entries exist, all are returned.
	Recent(ctx context.Context, sessionID string, n int) ([]Entry, error)
	// Close releases any resources held by the log.
	Close() error
}

// SQLiteLog is a QuestionLog backed by a local SQLite database.
type SQLiteLog struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the question log database.
// It resolves to ~/.hrlawbot/questions.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".hrlawbot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "questions.db"), nil
}

// Open opens (or creates) a SQLiteLog at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteLog, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteLog{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteLog) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS questions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT    NOT NULL,
    question     TEXT    NOT NULL,
    answer       TEXT    NOT NULL,
    sources      TEXT    NOT NULL DEFAULT '[]',  -- JSON array of titles
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_questions_session_created
    ON questions (session_id, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists one answered question.
func (s *SQLiteLog) Append(ctx context.Context, e Entry) error {
	sources, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("store: encode sources: %w", err)
	}
	const q = `INSERT INTO questions (session_id, question, answer, sources, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, e.SessionID, e.Question, e.Answer, string(sources), time.Now().Unix()); err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n entries for the session, ordered
// oldest-first. Uses a subquery to select the tail then re-order.
func (s *SQLiteLog) Recent(ctx context.Context, sessionID string, n int) ([]Entry, error) {
	const q = `
SELECT session_id, question, answer, sources, created_at FROM (
    SELECT id, session_id, question, answer, sources, created_at
    FROM questions
    WHERE session_id = ?
    ORDER BY created_at DESC, id DESC
    LIMIT ?
) ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, q, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var sources string
		var ts int64
		if err := rows.Scan(&e.SessionID, &e.Question, &e.Answer, &sources, &ts); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
			return nil, fmt.Errorf("store: decode sources: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return entries, nil
}

// Ping reports whether the underlying database is reachable.
func (s *SQLiteLog) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteLog) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
