package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Single connection keeps the event-log append (insert + prune in one
	// transaction) strictly sequential per device within this process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const schemaAutomationRules = `
CREATE TABLE IF NOT EXISTS automation_rules (
    device_id TEXT PRIMARY KEY,
    multi_stage BOOLEAN NOT NULL,
    start_time TEXT,
    end_time TEXT,
    active_days TEXT,
    schedules TEXT,
    enabled BOOLEAN NOT NULL,
    source TEXT NOT NULL,
    based_on_events INTEGER NOT NULL,
    stage_count INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    created_by TEXT NOT NULL
);
`

const schemaUsageEvents = `
CREATE TABLE IF NOT EXISTS usage_events (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    status TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    hour INTEGER NOT NULL
);
`

const schemaUsageEventsIndex = `
CREATE INDEX IF NOT EXISTS idx_usage_events_device_time
ON usage_events (device_id, occurred_at);
`

const schemaDeviceLocks = `
CREATE TABLE IF NOT EXISTS device_locks (
    device_id TEXT PRIMARY KEY,
    locked BOOLEAN NOT NULL,
    mode TEXT,
    updated_at TIMESTAMP NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaAutomationRules,
		schemaUsageEvents,
		schemaUsageEventsIndex,
		schemaDeviceLocks,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
