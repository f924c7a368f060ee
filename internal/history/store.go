// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a record of executed searches in SQLite so past
// queries can be listed without re-running them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Entry is one recorded search.
type Entry struct {
	ID          int64     `json:"id"`
	Query       string    `json:"query"`
	Intent      string    `json:"intent,omitempty"`
	ResultCount int       `json:"result_count"`
	Status      string    `json:"status"`
	Cached      bool      `json:"cached"`
	DurationMS  float64   `json:"duration_ms"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// Store manages the search-history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at the configured path and
// creates the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			intent TEXT,
			result_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			cached INTEGER NOT NULL DEFAULT 0,
			duration_ms REAL NOT NULL DEFAULT 0,
			executed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_executed_at ON searches(executed_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the outcome of one search.
func (s *Store) Record(ctx context.Context, resp *types.SearchResponse) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (query, intent, result_count, status, cached, duration_ms, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		resp.Query, resp.Intent, len(resp.Results), resp.Status, resp.Cached,
		resp.TimingsMS["total"], resp.CompletedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// Recent returns the most recent searches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, intent, result_count, status, cached, duration_ms, executed_at
		 FROM searches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var executedAt string
		if err := rows.Scan(&e.ID, &e.Query, &e.Intent, &e.ResultCount, &e.Status, &e.Cached, &e.DurationMS, &executedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, executedAt); err == nil {
			e.ExecutedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of recorded searches.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM searches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}
