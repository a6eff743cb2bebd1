// Package audit persists per-run pipeline history to a local SQLite file.
//
// DESIGN: The engine itself keeps no state between runs; the Recorder is an
// opt-in sink the CLI writes results into after a run completes. One row per
// run: summary columns for queries, full step history as JSON.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scaledown-ai/scaledown-go/errdefs"
	"github.com/scaledown-ai/scaledown-go/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	steps         INTEGER NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	latency_ms    REAL NOT NULL,
	history       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at);
`

// Recorder appends pipeline results to a local SQLite database.
type Recorder struct {
	db *sql.DB
}

// Open creates or opens the audit database at path.
func Open(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Record appends one run.
func (r *Recorder) Record(ctx context.Context, res *pipeline.Result) error {
	history, err := json.Marshal(res.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, steps, input_tokens, output_tokens, latency_ms, history)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		time.Now().UTC().Format(time.RFC3339Nano),
		len(res.History),
		res.InputTokens(),
		res.OutputTokens(),
		res.TotalLatencyMS(),
		string(history),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", res.RunID, err)
	}
	return nil
}

// RunSummary is one recorded run.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	Steps        int       `json:"steps"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	LatencyMS    float64   `json:"latency_ms"`
}

// Recent returns the latest n runs, newest first.
func (r *Recorder) Recent(ctx context.Context, n int) ([]RunSummary, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, created_at, steps, input_tokens, output_tokens, latency_ms
		 FROM runs ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var created string
		if err := rows.Scan(&s.RunID, &created, &s.Steps, &s.InputTokens, &s.OutputTokens, &s.LatencyMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			s.CreatedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// History returns the stored step history of one run.
func (r *Recorder) History(ctx context.Context, runID string) ([]pipeline.StepMetadata, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT history FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, errdefs.NotFoundf("run %s not recorded", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	var history []pipeline.StepMetadata
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("decode history for run %s: %w", runID, err)
	}
	return history, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error { return r.db.Close() }
