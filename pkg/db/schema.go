// Package db provides SQLite database management for sync runs, imported transactions, and metadata.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Sync runs table
-- One row per budget per pass
CREATE TABLE IF NOT EXISTS sync_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,              -- UUID shared by all budgets of a pass
    budget_name TEXT NOT NULL,
    budget_id TEXT NOT NULL DEFAULT '',
    identity_scheme TEXT NOT NULL,     -- 'content_hash' or 'bank_id'
    started_at TEXT NOT NULL,          -- RFC 3339
    finished_at TEXT NOT NULL,         -- RFC 3339
    inserted INTEGER NOT NULL DEFAULT 0,
    patched INTEGER NOT NULL DEFAULT 0,
    flagged INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,              -- 'ok', 'failed' or 'dry_run'
    error TEXT NOT NULL DEFAULT '',
    UNIQUE(run_id, budget_name)
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_budget
    ON sync_runs(budget_name, finished_at);

-- Imported transactions table
-- Tracks which import ids have been written to each budget
CREATE TABLE IF NOT EXISTS imported_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    budget_id TEXT NOT NULL,
    import_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    transaction_date TEXT NOT NULL,    -- YYYY-MM-DD
    amount INTEGER NOT NULL,           -- Milliunits
    run_id TEXT NOT NULL,
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(budget_id, import_id)
);

CREATE INDEX IF NOT EXISTS idx_imported_transactions_date
    ON imported_transactions(budget_id, transaction_date);

-- Sync metadata table
-- Stores key-value metadata about sync operations
CREATE TABLE IF NOT EXISTS sync_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
