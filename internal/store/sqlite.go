package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snippets (
	key   INTEGER PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);`

// SQLite is a KV backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// одно соединение: in-memory база живёт только внутри него
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func toKey(key uint64) (int64, error) {
	k, err := safecast.Conv[int64](key)
	if err != nil {
		return 0, fmt.Errorf("store: key %d out of range: %w", key, err)
	}
	return k, nil
}

func (s *SQLite) Get(ctx context.Context, key uint64) ([]byte, error) {
	k, err := toKey(key)
	if err != nil {
		return nil, err
	}
	var value []byte
	err = s.db.QueryRowContext(ctx, `SELECT value FROM snippets WHERE key = ?`, k).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %d: %w", key, err)
	}
	return value, nil
}

func (s *SQLite) Put(ctx context.Context, key uint64, value []byte) error {
	k, err := toKey(key)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{} // column is NOT NULL
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snippets (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, value)
	if err != nil {
		return fmt.Errorf("store: put %d: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key uint64) error {
	k, err := toKey(key)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snippets WHERE key = ?`, k)
	if err != nil {
		return fmt.Errorf("store: delete %d: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %d: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan reads every row before calling fn, so fn may write to the store.
func (s *SQLite) Scan(ctx context.Context, fn func(key uint64, value []byte) error) error {
	type row struct {
		key   uint64
		value []byte
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM snippets ORDER BY key`)
	if err != nil {
		return fmt.Errorf("store: scan: %w", err)
	}
	var all []row
	for rows.Next() {
		var (
			k int64
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return fmt.Errorf("store: scan: %w", err)
		}
		key, err := safecast.Conv[uint64](k)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("store: scan: negative key %d: %w", k, err)
		}
		all = append(all, row{key: key, value: v})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("store: scan: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("store: scan: %w", err)
	}

	for _, r := range all {
		if err := fn(r.key, r.value); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) NextKey(ctx context.Context) (uint64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO counters (name, value) VALUES ('index', 1)
		 ON CONFLICT(name) DO UPDATE SET value = value + 1
		 RETURNING value`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("store: next key: %w", err)
	}
	key, err := safecast.Conv[uint64](next)
	if err != nil {
		return 0, fmt.Errorf("store: next key: %w", err)
	}
	return key, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
