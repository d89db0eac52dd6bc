// Package contextstore persists resolved document contexts and publish run
// history in SQLite.
//
// The context cache saves a round trip to the tracking site when a document
// is reopened; publish runs feed the history views in the CLI and the HTTP
// API.
package contextstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"slate/internal/config"
	"slate/internal/platform"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be deleted and rebuilt.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages context cache and publish history persistence.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database under cfg's data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "slate.db"))
}

// OpenPath connects to the database at dbPath and applies the schema.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SaveContext caches the resolved context for a document path.
func (s *Store) SaveContext(ctx context.Context, documentPath string, resolved platform.Context) error {
	data, err := json.Marshal(resolved)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO document_contexts (document_path, context_json, resolved_at)
         VALUES (?, ?, ?)
         ON CONFLICT(document_path) DO UPDATE SET
             context_json = excluded.context_json,
             resolved_at = excluded.resolved_at`,
		documentPath, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save context for %s: %w", documentPath, err)
	}
	return nil
}

// GetContext returns the cached context for a document path, or nil when the
// path has never been resolved.
func (s *Store) GetContext(ctx context.Context, documentPath string) (*platform.Context, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT context_json FROM document_contexts WHERE document_path = ?",
		documentPath).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context for %s: %w", documentPath, err)
	}
	var resolved platform.Context
	if err := json.Unmarshal([]byte(data), &resolved); err != nil {
		return nil, fmt.Errorf("decode cached context for %s: %w", documentPath, err)
	}
	return &resolved, nil
}

// DeleteContext drops the cached context for a document path.
func (s *Store) DeleteContext(ctx context.Context, documentPath string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM document_contexts WHERE document_path = ?", documentPath); err != nil {
		return fmt.Errorf("delete context for %s: %w", documentPath, err)
	}
	return nil
}

// PublishRun is one recorded publish pipeline execution.
type PublishRun struct {
	ID             int64
	DocumentPath   string
	StartedAt      time.Time
	FinishedAt     time.Time
	ItemsTotal     int
	ItemsPublished int
	ItemsFailed    int
	Success        bool
	Message        string
}

// RecordPublishRun appends a run to the history and returns its id.
func (s *Store) RecordPublishRun(ctx context.Context, run PublishRun) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO publish_runs (
            document_path, started_at, finished_at,
            items_total, items_published, items_failed, success, message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.DocumentPath,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.ItemsTotal,
		run.ItemsPublished,
		run.ItemsFailed,
		boolToInt(run.Success),
		nullableString(run.Message),
	)
	if err != nil {
		return 0, fmt.Errorf("record publish run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ListPublishRuns returns the most recent runs, newest first. A limit below 1
// defaults to 20.
func (s *Store) ListPublishRuns(ctx context.Context, limit int) ([]PublishRun, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_path, started_at, finished_at,
               items_total, items_published, items_failed, success, message
         FROM publish_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list publish runs: %w", err)
	}
	defer rows.Close()

	var runs []PublishRun
	for rows.Next() {
		var (
			run      PublishRun
			started  string
			finished string
			success  int
			message  sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.DocumentPath, &started, &finished,
			&run.ItemsTotal, &run.ItemsPublished, &run.ItemsFailed, &success, &message); err != nil {
			return nil, fmt.Errorf("scan publish run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		run.Success = success != 0
		run.Message = message.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// DatabaseHealth captures diagnostic information about the database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	ContextCount     int
	PublishRunCount  int
	Error            string
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM document_contexts").Scan(&health.ContextCount); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count contexts: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM publish_runs").Scan(&health.PublishRunCount); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count publish runs: %w", err)
	}
	return health, nil
}
