package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite catalog connection. The catalog records
// discovery runs, the schemas each run produced and publish history,
// so the daemon can answer "what did we last see" across restarts.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the catalog database at dbPath.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer — limit to a single connection
	// to prevent SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS discovery_runs (
			id TEXT PRIMARY KEY,
			file_glob TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			schema_count INTEGER NOT NULL DEFAULT 0,
			file_count INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS schema_snapshots (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES discovery_runs(id),
			name TEXT NOT NULL,
			settings TEXT NOT NULL,
			properties_json TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS publish_runs (
			id TEXT PRIMARY KEY,
			schema_name TEXT NOT NULL,
			records INTEGER NOT NULL DEFAULT 0,
			invalid_records INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			finished_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON schema_snapshots(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_publish_runs_schema ON publish_runs(schema_name)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}
