// Package sqlite keeps a history of ledger snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/finance-ledger/internal/persist"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	payload BLOB NOT NULL,
	size INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);`

// SnapshotInfo describes one stored snapshot without its payload.
type SnapshotInfo struct {
	ID        int64
	Size      int
	CreatedAt time.Time
}

// Store is a persist.SnapshotStore that appends every save and keeps the
// newest `keep` rows.
type Store struct {
	db   *sql.DB
	keep int
	now  func() time.Time
}

// Open initializes the database at path. keep <= 0 keeps every snapshot.
func Open(path string, keep int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("Open: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: create schema: %w", err)
	}
	return &Store{db: db, keep: keep, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save implements persist.SnapshotStore.
func (s *Store) Save(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Store.Save: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (payload, size, created_at) VALUES (?, ?, ?)`,
		data, len(data), s.now().UTC(),
	); err != nil {
		return fmt.Errorf("Store.Save: insert: %w", err)
	}

	if s.keep > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
			s.keep,
		); err != nil {
			return fmt.Errorf("Store.Save: prune: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Store.Save: commit: %w", err)
	}
	return nil
}

// Load implements persist.SnapshotStore and returns the newest snapshot.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persist.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("Store.Load: %w", err)
	}
	return data, nil
}

// LoadByID returns one historical snapshot.
func (s *Store) LoadByID(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Store.LoadByID: %d: %w", id, persist.ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("Store.LoadByID: %w", err)
	}
	return data, nil
}

// List returns the stored snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, size, created_at FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("Store.List: query: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Size, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("Store.List: scan: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Store.List: %w", err)
	}
	return out, nil
}

var _ persist.SnapshotStore = (*Store)(nil)
