package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the run database schema.
// Times are stored as Unix nanoseconds so that range filters compare
// numerically regardless of driver.
const Schema = `
-- Recorded cutflow runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    tree TEXT NOT NULL,
    source TEXT,
    init_num INTEGER NOT NULL,
    rules_digest TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);

-- One row per result key, in table order
CREATE TABLE IF NOT EXISTS steps (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    key TEXT NOT NULL,
    name TEXT,
    input INTEGER NOT NULL,
    output INTEGER NOT NULL,
    PRIMARY KEY (run_id, position)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_tree ON runs(tree);
CREATE INDEX IF NOT EXISTS idx_runs_rules_digest ON runs(rules_digest);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
