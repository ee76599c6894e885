// Package store persists audit runs in SQLite so successive audits of the
// same site can be listed, compared and diffed.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/farolabs/faro/internal/audit"
	"github.com/farolabs/faro/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrNotFound = errors.New("store: run not found")

// Run is one persisted audit: the report plus the markup it was scored on.
type Run struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	CanonicalURL string        `json:"canonical_url"`
	SnapshotHash string        `json:"snapshot_hash"`
	GlobalScore  int           `json:"global_score"`
	Report       *audit.Report `json:"report,omitempty"`
	HTML         string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

// RunSummary is the listing projection: everything except the report body
// and the stored markup.
type RunSummary struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	CanonicalURL string    `json:"canonical_url"`
	SnapshotHash string    `json:"snapshot_hash"`
	GlobalScore  int       `json:"global_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store wraps the SQLite database holding audit history.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" style DSNs for tests.
func Open(path string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("store opened", logging.Field{Key: "path", Value: path})

	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "store"}),
	}, nil
}

// applySchema sets pragmas and creates missing tables.
func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Save persists a completed audit and returns its run ID.
func (s *Store) Save(ctx context.Context, run *Run) (string, error) {
	if run == nil || run.Report == nil {
		return "", errors.New("store: nil run or report")
	}

	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_runs (id, url, canonical_url, snapshot_hash, global_score, report_json, html, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, run.URL, run.CanonicalURL, run.SnapshotHash, run.GlobalScore, string(reportJSON), run.HTML, createdAt.Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	s.logger.Debug("run saved",
		logging.Field{Key: "run_id", Value: id},
		logging.Field{Key: "url", Value: run.URL},
		logging.Field{Key: "score", Value: run.GlobalScore})

	return id, nil
}

// Get returns a run, including its report and stored markup.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	var (
		run        Run
		reportJSON string
		createdAt  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, url, canonical_url, snapshot_hash, global_score, report_json, html, created_at
		FROM audit_runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.URL, &run.CanonicalURL, &run.SnapshotHash, &run.GlobalScore, &reportJSON, &run.HTML, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	run.CreatedAt = time.Unix(createdAt, 0)
	if err := json.Unmarshal([]byte(reportJSON), &run.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &run, nil
}

// List returns recent runs, newest first. When canonicalURL is non-empty only
// runs of that site are returned.
func (s *Store) List(ctx context.Context, canonicalURL string, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, url, canonical_url, snapshot_hash, global_score, created_at
		FROM audit_runs
	`
	args := []any{}
	if canonicalURL != "" {
		query += ` WHERE canonical_url = ?`
		args = append(args, canonicalURL)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var summaries []*RunSummary
	for rows.Next() {
		var (
			sum       RunSummary
			createdAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.URL, &sum.CanonicalURL, &sum.SnapshotHash, &sum.GlobalScore, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.CreatedAt = time.Unix(createdAt, 0)
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return summaries, nil
}

// Delete removes a run. Returns ErrNotFound when the ID does not exist.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
