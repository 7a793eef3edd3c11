// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists analysis runs in a local SQLite database.
// Persistence is a collaborator of the synthesis core, not part of it:
// the core never writes here itself. Implements: prd005-history (R1-R3);
//
//	docs/ARCHITECTURE § Analysis History.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const dbFile = "history.db"

// Store manages the analysis history SQLite database.
type Store struct {
	db         *sql.DB
	historyDir string
	maxResults int
}

// NewStore opens or creates the history database at
// historyDir/history.db, creating the schema if needed (R1.1, R1.2).
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.HistoryDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		historyDir: cfg.HistoryDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			molecule TEXT NOT NULL,
			disease TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			aggregate_confidence REAL NOT NULL,
			warnings TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			finding_id TEXT NOT NULL,
			source TEXT NOT NULL,
			dimension TEXT NOT NULL,
			kind TEXT NOT NULL,
			number REAL,
			label TEXT,
			body TEXT,
			confidence REAL NOT NULL,
			observed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id)`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			dimension TEXT NOT NULL,
			finding_a TEXT NOT NULL,
			finding_b TEXT NOT NULL,
			severity REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conflicts_run ON conflicts(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save persists one analysis run with its findings and conflicts (R1.3).
// Rows are inserted in result order so reads reproduce the canonical
// ordering.
func (s *Store) Save(ctx context.Context, res *types.SynthesisResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	warningsJSON, _ := json.Marshal(res.Warnings)

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (molecule, disease, recommendation, aggregate_confidence, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.Molecule, res.Disease, string(res.Recommendation),
		res.AggregateConfidence, string(warningsJSON),
		res.GeneratedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, finding_id, source, dimension, kind, number, label, body, confidence, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing finding insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range res.Findings {
		observedAt := ""
		if !f.Timestamp.IsZero() {
			observedAt = f.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		_, err := stmt.ExecContext(ctx,
			runID, f.ID, string(f.Source), f.Dimension, string(f.Value.Kind),
			f.Value.Number, f.Value.Label, f.Value.Text, f.Confidence, observedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting finding %s: %w", f.ID, err)
		}
	}

	for _, c := range res.Conflicts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO conflicts (run_id, dimension, finding_a, finding_b, severity)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, c.Dimension, c.FindingA, c.FindingB, c.Severity,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting conflict: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// RunSummary is one row of the run listing (R2.1).
type RunSummary struct {
	ID                  int64                `json:"id" yaml:"id"`
	Molecule            string               `json:"molecule" yaml:"molecule"`
	Disease             string               `json:"disease" yaml:"disease"`
	Recommendation      types.Recommendation `json:"recommendation" yaml:"recommendation"`
	AggregateConfidence float64              `json:"aggregate_confidence" yaml:"aggregate_confidence"`
	Conflicts           int                  `json:"conflicts" yaml:"conflicts"`
	CreatedAt           time.Time            `json:"created_at" yaml:"created_at"`
}

// List returns recent runs, newest first. Zero limit uses the store
// default (R2.2, R2.3).
func (s *Store) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.molecule, r.disease, r.recommendation, r.aggregate_confidence,
			(SELECT count(*) FROM conflicts c WHERE c.run_id = r.id),
			r.created_at
		 FROM runs r
		 ORDER BY r.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			sum       RunSummary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Molecule, &sum.Disease, &sum.Recommendation,
			&sum.AggregateConfidence, &sum.Conflicts, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("run %d: parsing created_at %q: %w", sum.ID, createdAt, err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Get reconstructs a full SynthesisResult for one run (R2.4).
func (s *Store) Get(ctx context.Context, runID int64) (*types.SynthesisResult, error) {
	var (
		res          types.SynthesisResult
		warningsJSON sql.NullString
		createdAt    string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT molecule, disease, recommendation, aggregate_confidence, warnings, created_at
		 FROM runs WHERE id = ?`, runID,
	).Scan(&res.Molecule, &res.Disease, &res.Recommendation,
		&res.AggregateConfidence, &warningsJSON, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %d not found", runID)
		}
		return nil, fmt.Errorf("looking up run: %w", err)
	}

	if warningsJSON.Valid && warningsJSON.String != "" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &res.Warnings); err != nil {
			return nil, fmt.Errorf("run %d: decoding warnings: %w", runID, err)
		}
	}
	res.GeneratedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %d: parsing created_at %q: %w", runID, createdAt, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT finding_id, source, dimension, kind, number, label, body, confidence, observed_at
		 FROM findings WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f          types.Finding
			kind       string
			observedAt sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Source, &f.Dimension, &kind,
			&f.Value.Number, &f.Value.Label, &f.Value.Text, &f.Confidence, &observedAt); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.Value.Kind = types.ValueKind(kind)
		if observedAt.Valid && observedAt.String != "" {
			f.Timestamp, err = time.Parse(time.RFC3339Nano, observedAt.String)
			if err != nil {
				return nil, fmt.Errorf("finding %s: parsing observed_at %q: %w", f.ID, observedAt.String, err)
			}
		}
		res.Findings = append(res.Findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	conflictRows, err := s.db.QueryContext(ctx,
		`SELECT dimension, finding_a, finding_b, severity
		 FROM conflicts WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer conflictRows.Close()

	for conflictRows.Next() {
		var c types.ConflictRecord
		if err := conflictRows.Scan(&c.Dimension, &c.FindingA, &c.FindingB, &c.Severity); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		res.Conflicts = append(res.Conflicts, c)
	}
	return &res, conflictRows.Err()
}
