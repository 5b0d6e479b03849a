// Package sqlite persists the run journal in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lintgate/lintgate/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// Ensure Store implements the journal contract.
var _ store.Store = (*Store)(nil)

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per invocation; outcome columns are filled by FinishRun
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		mode TEXT NOT NULL CHECK(mode IN ('review', 'check')),
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL DEFAULT 0,
		head_sha TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		verdict TEXT NOT NULL DEFAULT '',
		submitted INTEGER NOT NULL DEFAULT 0,
		tidy_findings INTEGER NOT NULL DEFAULT 0,
		format_findings INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		dismissed INTEGER NOT NULL DEFAULT 0,
		resolved INTEGER NOT NULL DEFAULT 0,
		minimized INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0
	);

	-- One row per remote mutation the publisher actually issued
	CREATE TABLE IF NOT EXISTS mutations (
		mutation_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_mutations_run ON mutations(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new run's identity row.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, timestamp, mode, repository, pull_number, head_sha, config_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Mode,
		run.Repository,
		run.PullNumber,
		run.HeadSHA,
		run.ConfigHash,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// FinishRun fills in the outcome columns for an existing run.
func (s *Store) FinishRun(ctx context.Context, runID string, outcome store.Outcome) error {
	query := `
		UPDATE runs
		SET verdict = ?, submitted = ?, tidy_findings = ?, format_findings = ?,
		    comments = ?, dismissed = ?, resolved = ?, minimized = ?, deleted = ?
		WHERE run_id = ?
	`

	submitted := 0
	if outcome.Submitted {
		submitted = 1
	}

	result, err := s.db.ExecContext(ctx, query,
		outcome.Verdict,
		submitted,
		outcome.TidyFindings,
		outcome.FormatFindings,
		outcome.Comments,
		outcome.Dismissed,
		outcome.Resolved,
		outcome.Minimized,
		outcome.Deleted,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	query := runSelectColumns + ` WHERE run_id = ?`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Run{}, fmt.Errorf("run not found: %s", runID)
		}
		return store.Run{}, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := runSelectColumns + ` ORDER BY timestamp DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// SaveMutations stores the mutation records for a run in one transaction.
func (s *Store) SaveMutations(ctx context.Context, runID string, mutations []store.MutationRecord) error {
	if len(mutations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mutations (run_id, kind, target, ok, error)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, mutation := range mutations {
		ok := 0
		if mutation.OK {
			ok = 1
		}

		if _, err := stmt.ExecContext(ctx,
			runID,
			mutation.Kind,
			mutation.Target,
			ok,
			mutation.Error,
		); err != nil {
			return fmt.Errorf("failed to insert mutation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListMutations retrieves the mutation records for a run in insertion order.
func (s *Store) ListMutations(ctx context.Context, runID string) ([]store.MutationRecord, error) {
	query := `
		SELECT kind, target, ok, error
		FROM mutations
		WHERE run_id = ?
		ORDER BY mutation_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}
	defer rows.Close()

	var mutations []store.MutationRecord
	for rows.Next() {
		var mutation store.MutationRecord
		var ok int

		if err := rows.Scan(
			&mutation.Kind,
			&mutation.Target,
			&ok,
			&mutation.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}

		mutation.OK = ok != 0
		mutations = append(mutations, mutation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutations: %w", err)
	}

	return mutations, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const runSelectColumns = `
	SELECT run_id, timestamp, mode, repository, pull_number, head_sha, config_hash,
	       verdict, submitted, tidy_findings, format_findings,
	       comments, dismissed, resolved, minimized, deleted
	FROM runs`

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRun reads one runs row in runSelectColumns order.
func scanRun(row rowScanner) (store.Run, error) {
	var run store.Run
	var timestamp int64
	var submitted int

	if err := row.Scan(
		&run.RunID,
		&timestamp,
		&run.Mode,
		&run.Repository,
		&run.PullNumber,
		&run.HeadSHA,
		&run.ConfigHash,
		&run.Outcome.Verdict,
		&submitted,
		&run.Outcome.TidyFindings,
		&run.Outcome.FormatFindings,
		&run.Outcome.Comments,
		&run.Outcome.Dismissed,
		&run.Outcome.Resolved,
		&run.Outcome.Minimized,
		&run.Outcome.Deleted,
	); err != nil {
		return store.Run{}, err
	}

	run.Timestamp = time.Unix(timestamp, 0)
	run.Outcome.Submitted = submitted != 0
	return run, nil
}
