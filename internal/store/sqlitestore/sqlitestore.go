// Package sqlitestore implements the store contract on SQLite in WAL mode.
// List-valued fields are stored as JSON text; identifier sequences live in a
// counters table advanced with RETURNING inside the insert transaction, so
// they match the document backend and survive dump/restore.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/arkadas/portfolio-api/internal/store"
	"github.com/arkadas/portfolio-api/pkg/model"
)

// Config configures a SQLiteStore.
type Config struct {
	// Path is the database file. Parent directories are created.
	Path string
	// MinimumFreeGB is a free-space threshold checked before opening.
	MinimumFreeGB uint
	// Logger is an optional structured logger. If nil, slog.Default is used.
	Logger *slog.Logger
}

// SQLiteStore is the relational backend. The *sql.DB handle is guarded so
// Drain can close the pool and later calls reopen it lazily.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	log  *slog.Logger
}

var _ store.Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id            INTEGER PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	technologies  TEXT NOT NULL DEFAULT '[]',
	github_url    TEXT NOT NULL DEFAULT '',
	external_url  TEXT NOT NULL DEFAULT '',
	image_url     TEXT NOT NULL DEFAULT '',
	image_urls    TEXT NOT NULL DEFAULT '[]',
	is_featured   INTEGER NOT NULL DEFAULT 0,
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_order ON projects(display_order, created_at DESC);

CREATE TABLE IF NOT EXISTS experience (
	id               INTEGER PRIMARY KEY,
	company          TEXT NOT NULL,
	company_url      TEXT NOT NULL DEFAULT '',
	role             TEXT NOT NULL,
	date_range       TEXT NOT NULL,
	responsibilities TEXT NOT NULL DEFAULT '[]',
	display_order    INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_experience_order ON experience(display_order, created_at DESC);

CREATE TABLE IF NOT EXISTS skills (
	id         INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_skills_name ON skills(name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS about (
	id              INTEGER PRIMARY KEY,
	bio             TEXT NOT NULL,
	current_company TEXT NOT NULL DEFAULT '',
	current_role    TEXT NOT NULL DEFAULT '',
	updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_submissions (
	id            INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	subject       TEXT NOT NULL DEFAULT '',
	message       TEXT NOT NULL,
	ip_address    TEXT NOT NULL DEFAULT '',
	email_sent    INTEGER NOT NULL DEFAULT 0,
	email_sent_at TIMESTAMP,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_ip ON contact_submissions(ip_address, created_at);

CREATE TABLE IF NOT EXISTS counters (
	name TEXT PRIMARY KEY,
	seq  INTEGER NOT NULL
);
`

// Open opens (or creates) the database file, retrying with backoff before
// reporting a connectivity error, and ensures the schema exists.
func Open(config Config) (*SQLiteStore, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if err := store.CheckFreeSpace(dir, config.MinimumFreeGB); err != nil {
		return nil, err
	}

	s := &SQLiteStore{path: config.Path, log: config.Logger}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *SQLiteStore) dsn() string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate&_loc=UTC", s.path)
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	var db *sql.DB
	err := store.OpenWithRetry(s.log, s.path, func() error {
		d, openErr := sql.Open("sqlite3", s.dsn())
		if openErr != nil {
			return openErr
		}
		if pingErr := d.Ping(); pingErr != nil {
			d.Close()
			return pingErr
		}
		db = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY churn under concurrent callers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// handle returns the pooled connection, reopening it after a Drain.
func (s *SQLiteStore) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	s.db = db
	return s.db, nil
}

// nextSeq advances the counter for name inside tx and returns the new value.
func nextSeq(tx *sql.Tx, name string) (int64, error) {
	var seq int64
	err := tx.QueryRow(
		`INSERT INTO counters(name, seq) VALUES(?, 1)
		 ON CONFLICT(name) DO UPDATE SET seq = seq + 1
		 RETURNING seq`, name).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	return seq, nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// VerifyIntegrity answers a trivial read: count the project table.
func (s *SQLiteStore) VerifyIntegrity(ctx context.Context) model.Health {
	db, err := s.handle()
	if err != nil {
		return model.Health{Healthy: false, Status: "error", Message: err.Error()}
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		s.log.Error("integrity probe failed", "error", err)
		return model.Health{Healthy: false, Status: "error", Message: err.Error()}
	}
	return model.Health{Healthy: true, Status: "ok", Message: "store is healthy"}
}

// Checkpoint moves the WAL into the main database file and truncates it.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Drain closes the connection pool. The next operation reopens it.
func (s *SQLiteStore) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close pool: %w", err)
	}
	return nil
}

// CleanWALArtifacts removes stale -wal and -shm sidecar files. Call only
// while drained, otherwise SQLite may resurrect data from the removed WAL.
func (s *SQLiteStore) CleanWALArtifacts() error {
	for _, suffix := range []string{"-wal", "-shm"} {
		p := s.path + suffix
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.Drain()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
