// Package history keeps a sqlite journal of applied recognition results.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS recognitions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id     INTEGER NOT NULL,
    mode        TEXT NOT NULL,
    text        TEXT NOT NULL,
    status      TEXT NOT NULL,
    demo        INTEGER NOT NULL,
    strokes     INTEGER NOT NULL,
    created_ns  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recognitions_created ON recognitions(created_ns);
`

// Entry is one applied recognition result.
type Entry struct {
	ID        int64     `json:"id"`
	PageID    int       `json:"page_id"`
	Mode      string    `json:"mode"`
	Text      string    `json:"text"`
	Status    string    `json:"status"`
	Demo      bool      `json:"demo"`
	Strokes   int       `json:"strokes"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts e and returns its ID.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recognitions (page_id, mode, text, status, demo, strokes, created_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.PageID, e.Mode, e.Text, e.Status, e.Demo, e.Strokes, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert recognition: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, mode, text, status, demo, strokes, created_ns
		FROM recognitions ORDER BY created_ns DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recognitions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ns int64
		if err := rows.Scan(&e.ID, &e.PageID, &e.Mode, &e.Text, &e.Status, &e.Demo, &e.Strokes, &ns); err != nil {
			return nil, fmt.Errorf("scan recognition: %w", err)
		}
		e.CreatedAt = time.Unix(0, ns)
		out = append(out, e)
	}
	return out, rows.Err()
}
