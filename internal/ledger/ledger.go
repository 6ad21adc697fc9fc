// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps an SQLite archive of pipeline runs: which command
// ran, which papers a discovery run selected, and the tier each item
// resolved to in the download and convert stages.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var now = time.Now

// Ledger wraps the run ledger database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger at path and ensures the schema exists.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			detail TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS selections (
			run_id TEXT NOT NULL REFERENCES runs(id),
			rank INTEGER NOT NULL,
			paper_id TEXT NOT NULL,
			title TEXT,
			score REAL,
			sources TEXT,
			PRIMARY KEY (run_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_selections_paper_id ON selections(paper_id)`,
		`CREATE TABLE IF NOT EXISTS resolutions (
			run_id TEXT NOT NULL REFERENCES runs(id),
			stage TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			tier TEXT NOT NULL,
			output TEXT,
			skipped INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, stage, paper_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_paper_id ON resolutions(paper_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records the start of command and returns the new run ID.
func (l *Ledger) StartRun(ctx context.Context, command string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at, status) VALUES (?, ?, ?, ?)`,
		id, command, formatTime(now()), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run succeeded, or failed with runErr's message.
func (l *Ledger) FinishRun(ctx context.Context, id string, runErr error) error {
	status, detail := StatusSucceeded, ""
	if runErr != nil {
		status, detail = StatusFailed, runErr.Error()
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, detail = ? WHERE id = ?`,
		formatTime(now()), status, detail, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: no such run", id)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s.String)
	return t
}
