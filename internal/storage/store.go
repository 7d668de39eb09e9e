// Package storage implements the SQLite persistence layer: the store
// lifecycle, embedded schema migrations, the transactional unit of
// work and the repositories running on its handle.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store owns the process-wide database handle. It is opened once at
// startup and closed at shutdown; individual transactions are created
// per unit-of-work invocation and never shared.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// UnitOfWork returns a fresh unit of work over the store's handle.
func (s *Store) UnitOfWork() *UnitOfWork {
	return NewUnitOfWork(s.db)
}

// DB exposes the underlying handle for read-only paths that manage
// their own short-lived statements.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
