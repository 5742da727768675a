// Package store persists benchmark results in SQLite so interrupted runs can
// resume.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/strrl/preludium/internal/benchmark"
)

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ benchmark.ResultSink = (*Store)(nil)

// Open creates the results table if needed. ":memory:" opens a shared
// in-memory database.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS benchmark_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		reference TEXT NOT NULL,
		popularity INTEGER NOT NULL,
		processor_type TEXT NOT NULL,
		processor_fields TEXT NOT NULL,
		dicterizer TEXT NOT NULL,
		classifier TEXT NOT NULL,
		shuffled INTEGER NOT NULL DEFAULT 0,
		metrics TEXT NOT NULL,
		folds INTEGER NOT NULL,
		test_acc_mean REAL NOT NULL,
		test_acc_std REAL NOT NULL,
		test_f1_mean REAL NOT NULL,
		test_f1_std REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON benchmark_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_reference ON benchmark_results(reference);

	CREATE TABLE IF NOT EXISTS completed_references (
		reference TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		results INTEGER NOT NULL,
		completed_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Reset drops every stored result and completion mark.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"benchmark_results", "completed_references"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// SaveResults inserts the results of one reference and marks it completed in
// a single transaction. The mark records the run ID of the first result.
func (s *Store) SaveResults(ctx context.Context, reference string, results []benchmark.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO benchmark_results (
			run_id, reference, popularity, processor_type, processor_fields,
			dicterizer, classifier, shuffled, metrics, folds,
			test_acc_mean, test_acc_std, test_f1_mean, test_f1_std, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, r := range results {
		fields, err := json.Marshal(r.Processor.Fields)
		if err != nil {
			return fmt.Errorf("encode processor fields: %w", err)
		}
		metrics, err := json.Marshal(r.Metrics)
		if err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}

		_, err = insert.ExecContext(ctx,
			r.RunID,
			r.Reference,
			r.Popularity,
			r.Processor.Type,
			string(fields),
			r.Dicterizer,
			r.Classifier,
			boolToInt(r.Shuffled),
			string(metrics),
			r.Summary.Folds,
			r.Summary.AccuracyMean,
			r.Summary.AccuracyStd,
			r.Summary.F1Mean,
			r.Summary.F1Std,
			r.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	var runID string
	if len(results) > 0 {
		runID = results[0].RunID
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO completed_references (reference, run_id, results, completed_at)
		VALUES (?, ?, ?, ?)
	`, reference, runID, len(results), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark reference completed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// CompletedReferences returns every reference marked by SaveResults, including
// those that stored no results.
func (s *Store) CompletedReferences(ctx context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT reference FROM completed_references")
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()

	completed := make(map[string]bool)
	for rows.Next() {
		var reference string
		if err := rows.Scan(&reference); err != nil {
			return nil, err
		}
		completed[reference] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return completed, nil
}

// Results returns the results of one run, or of all runs when runID is empty,
// in insertion order.
func (s *Store) Results(ctx context.Context, runID string) ([]benchmark.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT run_id, reference, popularity, processor_type, processor_fields,
			dicterizer, classifier, shuffled, metrics, folds,
			test_acc_mean, test_acc_std, test_f1_mean, test_f1_std, created_at
		FROM benchmark_results
	`
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []benchmark.Result
	for rows.Next() {
		var r benchmark.Result
		var fields, metrics string
		var shuffled int
		err := rows.Scan(
			&r.RunID,
			&r.Reference,
			&r.Popularity,
			&r.Processor.Type,
			&fields,
			&r.Dicterizer,
			&r.Classifier,
			&shuffled,
			&metrics,
			&r.Summary.Folds,
			&r.Summary.AccuracyMean,
			&r.Summary.AccuracyStd,
			&r.Summary.F1Mean,
			&r.Summary.F1Std,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		r.Shuffled = shuffled != 0
		if err := json.Unmarshal([]byte(fields), &r.Processor.Fields); err != nil {
			return nil, fmt.Errorf("decode processor fields: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
