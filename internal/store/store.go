// Package store provides SQLite persistence for verification runs, curated
// bad-law overrides and strength assessments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/model"
)

// Repository is the persistence contract of the verification pipeline.
// Every lookup is keyed by normalized citation.
type Repository interface {
	SaveRun(ctx context.Context, run *model.VerificationRun) error
	LatestRun(ctx context.Context, key string) (*model.VerificationRun, error)
	LookupOverride(ctx context.Context, normalized string) (*model.OverrideEntry, error)
	GetStrength(ctx context.Context, normalized string) (*model.StrengthAssessment, error)
	PutStrength(ctx context.Context, normalized string, a model.StrengthAssessment) error
}

// SQLiteStore is the SQLite Repository.
// All methods are safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Repository = (*SQLiteStore)(nil)

// Open opens or creates the database at path, creates the schema and seeds
// the curated override list. ":memory:" opens a private in-memory database.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection per in-memory database, otherwise each pooled
	// connection sees its own empty database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	if err := s.seedOverrides(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed overrides: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verification_runs (
		id TEXT NOT NULL,
		normalized TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		status TEXT NOT NULL,
		confidence REAL NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
		cached INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (normalized, id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_cache_key ON verification_runs(cache_key, completed_at DESC);

	CREATE TABLE IF NOT EXISTS overrides (
		normalized TEXT PRIMARY KEY,
		case_name TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('GOOD_LAW', 'CAUTION', 'NEGATIVE_TREATMENT', 'OVERRULED')),
		overruled_by TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS strength (
		normalized TEXT PRIMARY KEY,
		assessed_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveRun inserts a run, or replaces it when the same citation and run id
// were saved before
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.VerificationRun) error {
	if run == nil || run.ID == "" {
		return errors.New("run has no id")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_runs (
			id, normalized, cache_key, status, confidence, cached,
			started_at, completed_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized, id) DO UPDATE SET
			cache_key = excluded.cache_key,
			status = excluded.status,
			confidence = excluded.confidence,
			cached = excluded.cached,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			payload = excluded.payload
	`,
		run.ID,
		run.Citation.Normalized,
		cache.Key(run.Citation.Normalized, run.Proposition.Text),
		string(run.Composite.Status),
		model.Clamp01(run.Composite.Confidence),
		boolInt(run.Cached),
		run.StartedAt.UnixNano(),
		run.CompletedAt.UnixNano(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// LatestRun returns the most recently completed original run for a result
// cache key, or nil. Runs that were themselves served from cache are skipped
// so a cache hit never extends the life of the result it copied.
func (s *SQLiteStore) LatestRun(ctx context.Context, key string) (*model.VerificationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM verification_runs
		WHERE cache_key = ? AND cached = 0
		ORDER BY completed_at DESC
		LIMIT 1
	`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	var run model.VerificationRun
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}

// CountRuns returns how many runs are stored for a normalized citation
func (s *SQLiteStore) CountRuns(ctx context.Context, normalized string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_runs WHERE normalized = ?`, normalized).Scan(&n)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
