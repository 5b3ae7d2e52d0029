package ntuple

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)

	"umd-lhcb/tupling/pkg/boolean/value"
)

// SQLiteConfig contains configuration for the SQLite ntuple backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" (modernc.org/sqlite)
	// or "sqlite3" (github.com/mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/ntuple.db",
		Driver:      "sqlite",
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteSource serves trees stored as SQLite tables, one table per tree and
// one column per branch. Events are ordered by rowid. Columns declared
// INTEGER hold int branches, BOOLEAN columns hold bool branches and all
// other columns are read as float.
type SQLiteSource struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteSource opens a SQLite ntuple database.
func NewSQLiteSource(config *SQLiteConfig) (*SQLiteSource, error) {
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

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, newSourceError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", config.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, newSourceError("sqlite", "set_busy_timeout", err)
	}

	logger := slog.Default().With("component", "ntuple.sqlite")
	logger.Debug("SQLite ntuple source opened", "path", config.Path, "driver", config.Driver)

	return &SQLiteSource{db: db, config: config, logger: logger}, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columns returns the declared type of every column of tree's table.
func (s *SQLiteSource) columns(ctx context.Context, tree string) (map[string]string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tree).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, treeNotFound(tree)
	}
	if err != nil {
		return nil, newSourceError("sqlite", "lookup_tree", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tree)))
	if err != nil {
		return nil, newSourceError("sqlite", "table_info", err)
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var (
			cid       int
			col, decl string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &col, &decl, &notNull, &dflt, &pk); err != nil {
			return nil, newSourceError("sqlite", "table_info", err)
		}
		cols[col] = strings.ToUpper(decl)
	}
	if err := rows.Err(); err != nil {
		return nil, newSourceError("sqlite", "table_info", err)
	}
	return cols, nil
}

func kindOf(decl string) value.Kind {
	switch {
	case strings.Contains(decl, "BOOL"):
		return value.KindBool
	case strings.Contains(decl, "INT"):
		return value.KindInt
	default:
		return value.KindFloat
	}
}

// Branches implements Source with a single SELECT over the requested columns.
func (s *SQLiteSource) Branches(ctx context.Context, tree string, names []string) (map[string]value.Value, error) {
	names = unique(names)

	cols, err := s.columns(ctx, tree)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &BranchNotFoundError{Tree: tree, Names: missing}
	}
	if len(names) == 0 {
		return map[string]value.Value{}, nil
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(quoted, ", "), quoteIdent(tree))

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newSourceError("sqlite", "select", err)
	}
	defer rows.Close()

	kinds := make([]value.Kind, len(names))
	ints := make([][]int64, len(names))
	floats := make([][]float64, len(names))
	bools := make([][]bool, len(names))
	for i, name := range names {
		kinds[i] = kindOf(cols[name])
	}

	dest := make([]any, len(names))
	nullInts := make([]sql.NullInt64, len(names))
	nullFloats := make([]sql.NullFloat64, len(names))
	nullBools := make([]sql.NullBool, len(names))
	for i, k := range kinds {
		switch k {
		case value.KindInt:
			dest[i] = &nullInts[i]
		case value.KindBool:
			dest[i] = &nullBools[i]
		default:
			dest[i] = &nullFloats[i]
		}
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, newSourceError("sqlite", "scan", err)
		}
		for i, k := range kinds {
			switch k {
			case value.KindInt:
				ints[i] = append(ints[i], nullInts[i].Int64)
			case value.KindBool:
				bools[i] = append(bools[i], nullBools[i].Bool)
			default:
				f := math.NaN()
				if nullFloats[i].Valid {
					f = nullFloats[i].Float64
				}
				floats[i] = append(floats[i], f)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, newSourceError("sqlite", "select", err)
	}

	out := make(map[string]value.Value, len(names))
	for i, name := range names {
		switch kinds[i] {
		case value.KindInt:
			out[name] = value.Ints(ints[i])
		case value.KindBool:
			out[name] = value.Bools(bools[i])
		default:
			out[name] = value.Floats(floats[i])
		}
	}

	s.logger.Debug("branches fetched",
		"tree", tree,
		"branches", len(names),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Branch implements Source.
func (s *SQLiteSource) Branch(ctx context.Context, tree, name string) (value.Value, error) {
	return fetchOne(ctx, s, tree, name)
}

// Entries implements Source.
func (s *SQLiteSource) Entries(ctx context.Context, tree string) (int, error) {
	if _, err := s.columns(ctx, tree); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(tree))).Scan(&n); err != nil {
		return 0, newSourceError("sqlite", "count", err)
	}
	return n, nil
}

// ListBranches implements BranchLister.
func (s *SQLiteSource) ListBranches(ctx context.Context, tree string) ([]string, error) {
	cols, err := s.columns(ctx, tree)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// WriteTree creates or replaces the table for tree and inserts the branches
// row by row in one transaction.
func (s *SQLiteSource) WriteTree(ctx context.Context, tree string, branches map[string]value.Value) error {
	names := make([]string, 0, len(branches))
	entries := -1
	for name, v := range branches {
		if entries >= 0 && v.Len() != entries {
			return fmt.Errorf("%w: tree %q branch %q has %d entries, expected %d",
				ErrLengthMismatch, tree, name, v.Len(), entries)
		}
		entries = v.Len()
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]string, len(names))
	quoted := make([]string, len(names))
	marks := make([]string, len(names))
	cols := make([][]any, len(names))
	for i, name := range names {
		v := branches[name]
		quoted[i] = quoteIdent(name)
		marks[i] = "?"
		switch v.Kind() {
		case value.KindInt:
			defs[i] = quoted[i] + " INTEGER"
			cols[i] = toAny(v.Ints())
		case value.KindBool:
			defs[i] = quoted[i] + " BOOLEAN"
			cols[i] = toAny(v.Bools())
		default:
			defs[i] = quoted[i] + " REAL"
			cols[i] = toAny(v.Floats())
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newSourceError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(tree)); err != nil {
		return newSourceError("sqlite", "drop_table", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tree), strings.Join(defs, ", "))); err != nil {
		return newSourceError("sqlite", "create_table", err)
	}

	if len(names) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(tree), strings.Join(quoted, ", "), strings.Join(marks, ", ")))
		if err != nil {
			return newSourceError("sqlite", "prepare_insert", err)
		}
		defer stmt.Close()

		row := make([]any, len(names))
		for e := 0; e < entries; e++ {
			for i := range names {
				row[i] = cols[i][e]
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return newSourceError("sqlite", "insert", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return newSourceError("sqlite", "commit", err)
	}

	s.logger.Info("tree written", "tree", tree, "branches", len(names), "entries", max(entries, 0))
	return nil
}

func toAny[T any](s []T) []any {
	out := make([]any, len(s))
	for i, x := range s {
		out[i] = x
	}
	return out
}
