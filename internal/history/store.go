// Package history persists one row per task run to SQLite. Recording is
// best-effort by contract: the runner logs store failures and the release
// continues.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mflab/relkit/internal/task"
)

// Store implements task.Sink using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry is one recorded run.
type Entry struct {
	RunID    string
	Task     string
	State    string
	Stamp    string
	Started  time.Time
	Duration time.Duration
	Error    string
}

// Open creates or opens a history database. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		state TEXT NOT NULL,
		stamp TEXT,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements task.Sink.
func (s *Store) Record(ctx context.Context, rep *task.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errText string
	if rep.Err != nil {
		errText = rep.Err.Error()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, task, state, stamp, started, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rep.RunID, rep.Task, string(rep.State), rep.Stamp.String(),
		rep.Started.Unix(), rep.Duration.Milliseconds(), errText,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. An empty taskName lists
// every task; limit <= 0 defaults to 20.
func (s *Store) List(ctx context.Context, taskName string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	query := "SELECT id, task, state, stamp, started, duration_ms, error FROM runs"
	args := []any{}
	if taskName != "" {
		query += " WHERE task = ?"
		args = append(args, taskName)
	}
	query += " ORDER BY started DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started int64
		var durationMS int64
		if err := rows.Scan(&e.RunID, &e.Task, &e.State, &e.Stamp, &started, &durationMS, &e.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Started = time.Unix(started, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
