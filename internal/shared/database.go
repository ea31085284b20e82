package shared

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

const memoryDatabase = ":memory:"

// sqliteDSN enables foreign keys and a busy timeout on every pooled
// connection. File databases also switch to WAL so the TUI and server can
// share one file.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	if path != memoryDatabase {
		params.Set("_journal_mode", "WAL")
	}
	return path + "?" + params.Encode()
}

// NewDatabase opens the SQLite database at path.
//
// ":memory:" is pinned to a single connection so every query sees the same schema.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryDatabase {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}
	return db, nil
}

// Open opens the configured database with its pool limits applied.
func (c DatabaseConfig) Open() (*sql.DB, error) {
	db, err := NewDatabase(c.Path)
	if err != nil {
		return nil, err
	}
	if c.Path == memoryDatabase {
		return db, nil
	}
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	return db, nil
}
