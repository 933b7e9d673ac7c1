// Package journal persists per-artifact job outcomes in a SQLite
// database under the data root. The journal is advisory bookkeeping
// for operators; artifact correlation never depends on it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the journal database file under the data root.
const FileName = "journal.db"

// Journal records artifact outcomes.
type Journal struct {
	db *sql.DB
}

// Entry is one recorded outcome.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	MapName   string    `json:"map"`
	Seed      int       `json:"seed"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// FromOutcome builds an entry from an artifact outcome. A nil err with
// skipped unset means the artifact was produced.
func FromOutcome(kind, mapName string, seed int, skipped bool, err error) Entry {
	e := Entry{Kind: kind, MapName: mapName, Seed: seed, Status: StatusOK}
	switch {
	case err != nil:
		e.Status = StatusFailed
		e.Detail = err.Error()
	case skipped:
		e.Status = StatusSkipped
	}
	return e
}

// Open opens (creating if needed) the journal under dataRoot.
func Open(dataRoot string) (*Journal, error) {
	if err := os.MkdirAll(dataRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating data root: %w", err)
	}
	dbPath := filepath.Join(dataRoot, FileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outcomes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT NOT NULL,
			map_name   TEXT NOT NULL,
			seed       INTEGER NOT NULL,
			status     TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_outcomes_map_seed ON outcomes(map_name, seed);
		CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
	`)
	return err
}

// Record appends one entry.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO outcomes (kind, map_name, seed, status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Kind, e.MapName, e.Seed, e.Status, e.Detail, created.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally filtered by status.
// A limit of 0 means no limit.
func (j *Journal) List(ctx context.Context, status string, limit int) ([]Entry, error) {
	query := `SELECT id, kind, map_name, seed, status, detail, created_at FROM outcomes`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Kind, &e.MapName, &e.Seed, &e.Status, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
