// Package activity persists a log of completed dispatches to sqlite so
// operators can inspect recent traffic without scraping logs.
package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is RFC 3339 UTC with a fixed nine-digit fraction. The width
// never varies, so the lexicographic comparisons in CountSince and
// PruneBefore match time order down to the nanosecond.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT    NOT NULL,
	provider   TEXT    NOT NULL,
	prompt     TEXT    NOT NULL,
	response   TEXT    NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	cached     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions (created_at);
`

// Interaction is one logged dispatch.
type Interaction struct {
	ID        int64         `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Provider  string        `json:"provider"`
	Prompt    string        `json:"prompt"`
	Response  string        `json:"response"`
	Elapsed   time.Duration `json:"elapsed"`
	Cached    bool          `json:"cached"`
}

// Log is the sqlite-backed interaction log.
type Log struct {
	db *sql.DB
}

// Open creates or opens the log database at path and applies the schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("activity: open %s: %w", path, err)
	}
	// sqlite handles one writer at a time; a larger pool just queues on
	// the file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("activity: apply schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one interaction.
func (l *Log) Record(ctx context.Context, in Interaction) error {
	ts := in.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO interactions (created_at, provider, prompt, response, elapsed_ms, cached)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(timeLayout), in.Provider, in.Prompt, in.Response,
		in.Elapsed.Milliseconds(), boolToInt(in.Cached))
	if err != nil {
		return fmt.Errorf("activity: record: %w", err)
	}
	return nil
}

// Recent returns up to limit interactions, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, created_at, provider, prompt, response, elapsed_ms, cached
		 FROM interactions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("activity: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Interaction
	for rows.Next() {
		var (
			in        Interaction
			createdAt string
			elapsedMS int64
			cached    int
		)
		if err := rows.Scan(&in.ID, &createdAt, &in.Provider, &in.Prompt,
			&in.Response, &elapsedMS, &cached); err != nil {
			return nil, fmt.Errorf("activity: scan row: %w", err)
		}
		in.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("activity: parse timestamp %q: %w", createdAt, err)
		}
		in.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		in.Cached = cached != 0
		out = append(out, in)
	}
	return out, rows.Err()
}

// CountSince returns the number of interactions recorded at or after the
// given time. Used by the periodic usage report.
func (l *Log) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions WHERE created_at >= ?`,
		since.UTC().Format(timeLayout)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("activity: count since: %w", err)
	}
	return n, nil
}

// PruneBefore deletes interactions created before cutoff and returns the
// number of rows removed.
func (l *Log) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM interactions WHERE created_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("activity: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("activity: prune rows affected: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
