// Package store persists per-run summary statistics to a local SQLite
// database so policy hygiene can be compared across runs.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"panos-policy-evaluator/internal/model"
)

// Run is one recorded analysis run.
type Run struct {
	ID          int64
	RanAt       time.Time
	Source      string // provider description, e.g. the export filename
	TotalRules  int
	Shadowed    int
	MergeGroups int
	Unused      int
	LowUse      int
	Active      int
	TotalHits   uint64
}

// DB wraps the run-history SQLite database.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the history database at the given path, creating
// the parent directory if needed.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// OpenInMemory opens an in-memory history database, useful for testing.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			ran_at       TEXT NOT NULL,
			source       TEXT NOT NULL,
			total_rules  INTEGER NOT NULL,
			shadowed     INTEGER NOT NULL,
			merge_groups INTEGER NOT NULL,
			unused       INTEGER NOT NULL,
			low_use      INTEGER NOT NULL,
			active       INTEGER NOT NULL,
			total_hits   INTEGER NOT NULL
		)`)
	return err
}

// SaveRun records one run's summary and returns its row ID.
func (db *DB) SaveRun(ranAt time.Time, source string, s model.SummaryStats) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO runs (ran_at, source, total_rules, shadowed, merge_groups,
			unused, low_use, active, total_hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ranAt.UTC().Format(time.RFC3339), source,
		s.TotalRules, s.ShadowedRules, s.MergeGroups,
		s.UnusedRules, s.LowUseRules, s.ActiveRules, s.TotalHits)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, ran_at, source, total_rules, shadowed, merge_groups,
			unused, low_use, active, total_hits
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ranAt string
		if err := rows.Scan(&r.ID, &ranAt, &r.Source, &r.TotalRules, &r.Shadowed,
			&r.MergeGroups, &r.Unused, &r.LowUse, &r.Active, &r.TotalHits); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ranAt); err == nil {
			r.RanAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
