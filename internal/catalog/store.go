package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"csvpub/internal/domain"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// DiscoveryRun is one recorded discovery pass.
type DiscoveryRun struct {
	ID          string     `json:"id"`
	FileGlob    string     `json:"fileGlob"`
	Status      string     `json:"status"`
	SchemaCount int        `json:"schemaCount"`
	FileCount   int        `json:"fileCount"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// PublishRun is one recorded publish stream.
type PublishRun struct {
	ID             string    `json:"id"`
	SchemaName     string    `json:"schemaName"`
	Records        int       `json:"records"`
	InvalidRecords int       `json:"invalidRecords"`
	DurationMs     int64     `json:"durationMs"`
	Error          string    `json:"error,omitempty"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Store persists discovery and publish history in the catalog.
type Store struct {
	db *DB
}

// NewStore creates a new Store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// ── Discovery runs ─────────────────────────────────────────

// BeginDiscovery opens a run record and returns its id.
func (s *Store) BeginDiscovery(glob string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.conn.Exec(
		`INSERT INTO discovery_runs (id, file_glob, status, started_at) VALUES (?, ?, ?, ?)`,
		id, glob, StatusRunning, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("begin discovery run: %w", err)
	}
	return id, nil
}

// FinishDiscovery closes a run record and snapshots the schemas it
// produced. A failed run keeps its error and snapshots nothing.
func (s *Store) FinishDiscovery(runID string, schemas []domain.Schema, fileCount int, runErr error) error {
	status := StatusOK
	errMsg := ""
	if runErr != nil {
		status = StatusFailed
		errMsg = runErr.Error()
	}

	_, err := s.db.conn.Exec(
		`UPDATE discovery_runs SET status=?, schema_count=?, file_count=?, error=?, finished_at=? WHERE id=?`,
		status, len(schemas), fileCount, errMsg, time.Now(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish discovery run: %w", err)
	}
	if runErr != nil {
		return nil
	}

	for _, sc := range schemas {
		props, _ := json.Marshal(sc.Properties)
		_, err := s.db.conn.Exec(
			`INSERT INTO schema_snapshots (id, run_id, name, settings, properties_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, sc.Name, sc.Settings, string(props), time.Now(),
		)
		if err != nil {
			return fmt.Errorf("snapshot schema %s: %w", sc.Name, err)
		}
	}
	return nil
}

// LatestSchemas returns the schemas of the most recent successful
// discovery run, in the order discovery produced them.
func (s *Store) LatestSchemas() ([]domain.Schema, error) {
	rows, err := s.db.conn.Query(
		`SELECT name, settings, properties_json FROM schema_snapshots
		 WHERE run_id = (SELECT id FROM discovery_runs WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1)
		 ORDER BY rowid`,
		StatusOK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schemas := []domain.Schema{}
	for rows.Next() {
		var sc domain.Schema
		var props string
		if err := rows.Scan(&sc.Name, &sc.Settings, &props); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(props), &sc.Properties)
		schemas = append(schemas, sc)
	}
	return schemas, rows.Err()
}

// ListRuns returns recent discovery runs, newest first.
func (s *Store) ListRuns(limit int) ([]DiscoveryRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, file_glob, status, schema_count, file_count, error, started_at, finished_at
		 FROM discovery_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []DiscoveryRun{}
	for rows.Next() {
		var r DiscoveryRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.FileGlob, &r.Status, &r.SchemaCount, &r.FileCount,
			&r.Error, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ── Publish runs ───────────────────────────────────────────

// RecordPublish appends one publish stream to the history.
func (s *Store) RecordPublish(schemaName string, records, invalid int, d time.Duration, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO publish_runs (id, schema_name, records, invalid_records, duration_ms, error, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), schemaName, records, invalid, d.Milliseconds(), errMsg, time.Now(),
	)
	return err
}

// ListPublishRuns returns recent publish streams, newest first.
func (s *Store) ListPublishRuns(limit int) ([]PublishRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, schema_name, records, invalid_records, duration_ms, error, finished_at
		 FROM publish_runs ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []PublishRun{}
	for rows.Next() {
		var r PublishRun
		if err := rows.Scan(&r.ID, &r.SchemaName, &r.Records, &r.InvalidRecords,
			&r.DurationMs, &r.Error, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
