package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" (modernc.org/sqlite)
	// or "sqlite3" (github.com/mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/cutflow.db",
		Driver:       "sqlite",
		MaxOpenConns: 4,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and initializes its schema.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	if config.Driver != "sqlite" && config.Driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported sqlite driver %q", config.Driver)
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cutflow.store.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite run storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists a run and its steps in one transaction.
func (s *SQLiteStorage) Store(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, run.ID).Scan(&exists)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	if exists > 0 {
		return NewStorageError("sqlite", "store", fmt.Errorf("%w: %s", ErrDuplicateRun, run.ID))
	}

	var source any
	if run.Source != "" {
		source = run.Source
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, tree, source, init_num, rules_digest, started_at, finished_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Tree, source, run.InitNum, run.RulesDigest,
		run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.RecordedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO steps (run_id, position, key, name, input, output) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return NewStorageError("sqlite", "prepare", err)
	}
	defer stmt.Close()

	for _, step := range run.Steps {
		if _, err := stmt.ExecContext(ctx, run.ID, step.Position, step.Key, step.Name, step.Input, step.Output); err != nil {
			return NewStorageError("sqlite", "store_step", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*Run, error) {
	runs, err := s.Query(ctx, &Query{IDs: []string{id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return runs[0], nil
}

// Query retrieves runs matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *Query) ([]*Run, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT id, tree, source, init_num, rules_digest, started_at, finished_at, recorded_at FROM runs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += orderClause(query)

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}

	runs := []*Run{}
	byID := make(map[string]*Run)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, NewStorageError("sqlite", "scan", err)
		}
		runs = append(runs, run)
		byID[run.ID] = run
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, NewStorageError("sqlite", "query", err)
	}
	rows.Close()

	if err := s.loadSteps(ctx, byID); err != nil {
		return nil, err
	}
	return runs, nil
}

// loadSteps fills in the steps of the given runs.
func (s *SQLiteStorage) loadSteps(ctx context.Context, byID map[string]*Run) error {
	if len(byID) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(byID))
	args := make([]any, 0, len(byID))
	for id := range byID {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, position, key, name, input, output FROM steps WHERE run_id IN ("+
			strings.Join(placeholders, ", ")+") ORDER BY run_id, position", args...)
	if err != nil {
		return NewStorageError("sqlite", "query_steps", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			runID string
			step  StepRecord
			name  sql.NullString
		)
		if err := rows.Scan(&runID, &step.Position, &step.Key, &name, &step.Input, &step.Output); err != nil {
			return NewStorageError("sqlite", "scan_step", err)
		}
		step.Name = name.String
		run := byID[runID]
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return NewStorageError("sqlite", "query_steps", err)
	}
	return nil
}

// Count returns the number of runs matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM runs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes runs matching the query filters, and their steps.
// Returns the number of runs deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	selectIDs := "SELECT id FROM runs"
	if whereClause != "" {
		selectIDs += " WHERE " + whereClause
	}
	if query.Limit > 0 {
		selectIDs += orderClause(query) + fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	// Pin the selection first so both deletes see the same runs.
	if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE IF NOT EXISTS doomed_runs (id TEXT PRIMARY KEY)"); err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM doomed_runs"); err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO doomed_runs "+selectIDs, args...); err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM steps WHERE run_id IN (SELECT id FROM doomed_runs)"); err != nil {
		return 0, NewStorageError("sqlite", "delete_steps", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id IN (SELECT id FROM doomed_runs)")
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewStorageError("sqlite", "commit", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Debug("SQLite run storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func buildWhereClause(query *Query) (string, []any) {
	var conditions []string
	var args []any

	if query.Tree != "" {
		conditions = append(conditions, "tree = ?")
		args = append(args, query.Tree)
	}
	if query.RulesDigest != "" {
		conditions = append(conditions, "rules_digest = ?")
		args = append(args, query.RulesDigest)
	}
	if len(query.IDs) > 0 {
		placeholders := make([]string, len(query.IDs))
		for i, id := range query.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if query.StartTime != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

func orderClause(query *Query) string {
	if query.Ascending {
		return " ORDER BY started_at ASC, id ASC"
	}
	return " ORDER BY started_at DESC, id ASC"
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run                             Run
		source                          sql.NullString
		started, finished, recordedNano int64
	)
	err := rows.Scan(&run.ID, &run.Tree, &source, &run.InitNum, &run.RulesDigest, &started, &finished, &recordedNano)
	if err != nil {
		return nil, err
	}
	run.Source = source.String
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	run.RecordedAt = time.Unix(0, recordedNano)
	run.Steps = []StepRecord{}
	return &run, nil
}
