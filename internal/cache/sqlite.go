package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the cache database at dbPath.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outputs (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		doc_id TEXT
	);
	CREATE TABLE IF NOT EXISTS sources (
		doc_id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		rendered INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		written INTEGER NOT NULL,
		unchanged INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Outputs returns the output files recorded by the previous build.
func (s *SQLiteStore) Outputs(ctx context.Context) (map[string]Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT path, hash, COALESCE(doc_id, '') FROM outputs")
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Output)
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Path, &o.Hash, &o.DocID); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		out[o.Path] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// ReplaceOutputs atomically replaces the recorded output set.
func (s *SQLiteStore) ReplaceOutputs(ctx context.Context, outputs []Output) error {
	return s.replace(ctx, "outputs", "INSERT INTO outputs (path, hash, doc_id) VALUES (?, ?, ?)", len(outputs),
		func(i int) []any { o := outputs[i]; return []any{o.Path, o.Hash, nullable(o.DocID)} })
}

// Sources returns the document fingerprints recorded by the previous build.
func (s *SQLiteStore) Sources(ctx context.Context) (map[string]Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT doc_id, path, fingerprint FROM sources")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Source)
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.DocID, &src.Path, &src.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out[src.DocID] = src
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// ReplaceSources atomically replaces the recorded document fingerprints.
func (s *SQLiteStore) ReplaceSources(ctx context.Context, sources []Source) error {
	return s.replace(ctx, "sources", "INSERT INTO sources (doc_id, path, fingerprint) VALUES (?, ?, ?)", len(sources),
		func(i int) []any { src := sources[i]; return []any{src.DocID, src.Path, src.Fingerprint} })
}

func (s *SQLiteStore) replace(ctx context.Context, table, insert string, n int, row func(int) []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i := range n {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecordBuild appends a build to the history.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, outcome, rendered, failed, written, unchanged)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(), rec.Outcome,
		rec.Rendered, rec.Failed, rec.Written, rec.Unchanged,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Builds returns the most recent builds, newest first.
func (s *SQLiteStore) Builds(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, started_at, duration_ms, outcome, rendered, failed, written, unchanged
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var startedMS, durationMS int64
		if err := rows.Scan(&rec.BuildID, &startedMS, &durationMS, &rec.Outcome,
			&rec.Rendered, &rec.Failed, &rec.Written, &rec.Unchanged); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMS)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
