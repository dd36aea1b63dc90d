package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps preferences in a settings table. Several processes
// may share one database file.
type SQLiteStorage struct {
	db   *sql.DB
	path string

	// OnWatchError receives errors from Watch's background goroutine.
	OnWatchError func(error)
}

// OpenSQLite opens (or creates) the database at path and ensures the
// settings table exists.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("prefs: create storage dir: %w", err)
	}
	db, err := sql.Open("sqlite", abs)
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", abs, err)
	}
	// WAL lets a watcher read while another process writes; busy_timeout
	// makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: configure %s: %w", abs, err)
	}
	db.SetMaxOpenConns(2)
	s := &SQLiteStorage{db: db, path: abs}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("prefs: create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(`
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("prefs: set %s: %w", key, err)
	}
	return nil
}

// Watch reports changes written by any connection, including other
// processes, by watching the database and its WAL file.
func (s *SQLiteStorage) Watch(fn func(key, value string)) (func(), error) {
	base := filepath.Base(s.path)
	return watchFiles(filepath.Dir(s.path), []string{base, base + "-wal"}, s.all, fn, s.OnWatchError)
}

func (s *SQLiteStorage) all() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("prefs: list settings: %w", err)
	}
	defer rows.Close()
	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}
