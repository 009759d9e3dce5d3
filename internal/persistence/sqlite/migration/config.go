package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

var (
	journalModes = []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	syncModes    = []string{"OFF", "NORMAL", "FULL", "EXTRA"}
)

// SQLiteConfig describes how the request and appointment database is opened.
type SQLiteConfig struct {
	DSN         string
	BusyTimeout time.Duration
	ForeignKeys bool
	// JournalMode and Synchronous are applied as PRAGMAs when non-empty.
	JournalMode string
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c SQLiteConfig) inMemory() bool {
	return c.DSN == MemoryDSN
}

// Validate reports every problem with the configuration at once.
func (c SQLiteConfig) Validate() error {
	var problems []error
	if c.DSN == "" {
		problems = append(problems, errors.New("dsn is empty"))
	}
	if c.BusyTimeout < 0 {
		problems = append(problems, errors.New("busy timeout is negative"))
	}
	if c.JournalMode != "" && !slices.Contains(journalModes, c.JournalMode) {
		problems = append(problems, fmt.Errorf("unknown journal mode %q", c.JournalMode))
	}
	if c.Synchronous != "" && !slices.Contains(syncModes, c.Synchronous) {
		problems = append(problems, fmt.Errorf("unknown synchronous mode %q", c.Synchronous))
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		problems = append(problems, errors.New("pool limits are negative"))
	}
	return errors.Join(problems...)
}

func (c SQLiteConfig) pragmas() []string {
	out := []string{fmt.Sprintf("PRAGMA busy_timeout = %d", c.BusyTimeout.Milliseconds())}
	if c.JournalMode != "" {
		out = append(out, "PRAGMA journal_mode = "+c.JournalMode)
	}
	if c.Synchronous != "" {
		out = append(out, "PRAGMA synchronous = "+c.Synchronous)
	}
	if c.ForeignKeys {
		out = append(out, "PRAGMA foreign_keys = ON")
	}
	return out
}

// Open validates config, creates the parent directory of a file database and
// returns a pinged handle with the PRAGMAs applied.
func Open(ctx context.Context, config SQLiteConfig) (*sql.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("sqlite config: %w", err)
	}
	if !config.inMemory() {
		dir := filepath.Dir(config.DSN)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if config.inMemory() {
		// Each :memory: connection is its own database.
		db.SetMaxOpenConns(1)
	} else {
		if config.MaxOpenConns > 0 {
			db.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(config.ConnMaxLifetime)
		}
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	for _, pragma := range config.pragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return db, nil
}

// DefaultSQLiteConfig is the file-backed configuration used by the service.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		DSN:             path,
		BusyTimeout:     30 * time.Second,
		ForeignKeys:     true,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// InMemoryTestSQLiteConfig opens a throwaway database for tests.
func InMemoryTestSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		DSN:         MemoryDSN,
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
		JournalMode: "MEMORY",
		Synchronous: "OFF",
	}
}
