// Package store persists the run ledger: one row per pipeline run plus a
// per-chunk status trail. The ledger backs the /api/runs listing and tells
// an operator where a partial run stopped.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one pipeline execution over a single document.
type Run struct {
	ID          string    `json:"run_id"`
	Path        string    `json:"path"`
	OutputPath  string    `json:"output_path"`
	ContentHash string    `json:"content_hash"`
	Status      string    `json:"status"`
	TotalChunks int       `json:"total_chunks"`
	Annotated   int       `json:"annotated"`
	Degraded    int       `json:"degraded"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChunkRecord is the ledger entry for one chunk of a run.
type ChunkRecord struct {
	RunID     string `json:"run_id"`
	Index     int    `json:"index"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Status    string `json:"status"` // annotated | degraded | passthrough
}

// Ledger is a SQLite-backed run registry.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	output_path TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	status TEXT NOT NULL,
	total_chunks INTEGER DEFAULT 0,
	annotated INTEGER DEFAULT 0,
	degraded INTEGER DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_chunks (
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	status TEXT NOT NULL,
	PRIMARY KEY(run_id, idx),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(path);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// CreateRun inserts a new run in its initial state.
func (l *Ledger) CreateRun(ctx context.Context, r Run) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.ExecContext(ctx, `
INSERT INTO runs (id, path, output_path, content_hash, status, total_chunks, annotated, degraded, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		r.ID, r.Path, r.OutputPath, r.ContentHash, r.Status, r.TotalChunks, now, now)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// UpdateRun sets the run's status and counters.
func (l *Ledger) UpdateRun(ctx context.Context, id, status string, total, annotated, degraded int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.ExecContext(ctx, `
UPDATE runs SET status = ?, total_chunks = ?, annotated = ?, degraded = ?, updated_at = ? WHERE id = ?`,
		status, total, annotated, degraded, now, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecordChunk upserts the status of one chunk of a run.
func (l *Ledger) RecordChunk(ctx context.Context, c ChunkRecord) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO run_chunks (run_id, idx, start_line, end_line, status)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id, idx) DO UPDATE SET status = excluded.status`,
		c.RunID, c.Index, c.StartLine, c.EndLine, c.Status)
	if err != nil {
		return fmt.Errorf("record chunk: %w", err)
	}
	return nil
}

// GetRun fetches one run by ID.
func (l *Ledger) GetRun(ctx context.Context, id string) (Run, error) {
	row := l.db.QueryRowContext(ctx, `
SELECT id, path, output_path, content_hash, status, total_chunks, annotated, degraded, created_at, updated_at
FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
SELECT id, path, output_path, content_hash, status, total_chunks, annotated, degraded, created_at, updated_at
FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Chunks returns the chunk trail for a run in index order.
func (l *Ledger) Chunks(ctx context.Context, runID string) ([]ChunkRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT run_id, idx, start_line, end_line, status FROM run_chunks WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []ChunkRecord
	for rows.Next() {
		var c ChunkRecord
		if err := rows.Scan(&c.RunID, &c.Index, &c.StartLine, &c.EndLine, &c.Status); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var created, updated string
	err := row.Scan(&r.ID, &r.Path, &r.OutputPath, &r.ContentHash, &r.Status,
		&r.TotalChunks, &r.Annotated, &r.Degraded, &created, &updated)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return r, nil
}
