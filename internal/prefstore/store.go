// Package prefstore persists user preferences as a small key-value table.
// Persistence is best-effort: lookups fall back to a caller-provided default
// on any storage error, and writes report failure only through the log, so a
// broken preferences database never takes down weather serving.
//
// Known keys: "theme" with values "light" or "dark".
package prefstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	// Register Postgres SQL driver.
	_ "github.com/lib/pq"
	// Register SQLite SQL driver.
	_ "modernc.org/sqlite"

	"github.com/zaheeruldin978/weather247/internal/logging"
)

// ThemeKey is the preference key holding the UI theme ("light" or "dark").
const ThemeKey = "theme"

// Store reads and writes preference values.
type Store interface {
	// Get returns the value for key, or def if the key is absent or the
	// lookup fails.
	Get(ctx context.Context, key, def string) string
	// Set stores value under key. Failure is logged, not returned.
	Set(ctx context.Context, key, value string)
}

// MemoryStore is a map-backed Store for tests and cache-only deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the stored value or def.
func (m *MemoryStore) Get(_ context.Context, key, def string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

// SQLStore persists preferences in SQL backends (SQLite or Postgres).
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteStore creates a SQLite-backed preference store.
// dsn can be a file path (e.g. /var/lib/weather247/prefs.db) or SQLite DSN.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "weather247-prefs.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite preference store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectSQLite}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore creates a Postgres-backed preference store.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres preference store: %w", err)
	}
	store := &SQLStore{db: db, dialect: dialectPostgres}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("ping %s preference store: %w", s.dialect, err)
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create preferences table: %w", err)
	}
	return nil
}

// Get returns the value for key, or def if the key is absent or the lookup
// fails. Storage errors are logged at warn and swallowed.
func (s *SQLStore) Get(ctx context.Context, key, def string) string {
	var value string
	query := `SELECT value FROM preferences WHERE key = $1`
	if s.dialect == dialectSQLite {
		query = `SELECT value FROM preferences WHERE key = ?`
	}
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.FromContext(ctx).Warn("preference lookup failed", "key", key, "error", err)
		}
		return def
	}
	return value
}

// Set stores value under key, overwriting any previous value. Failure is
// logged, not returned.
func (s *SQLStore) Set(ctx context.Context, key, value string) {
	query := `INSERT INTO preferences (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3`
	if s.dialect == dialectSQLite {
		query = `INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	}
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		logging.FromContext(ctx).Warn("preference write failed", "key", key, "error", err)
	}
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
