package migration

import (
	"context"
	"io/fs"
	"time"
)

// Migration is one numbered SQL file, e.g. 002_appointments.sql.
type Migration struct {
	Version     string
	Description string
	SQL         string
	FilePath    string
	// Checksum is the hex SHA-256 of SQL.
	Checksum string
}

type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	GetPendingMigrations(ctx context.Context) ([]Migration, error)
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner discovers migrations in an fs.FS, usually the embedded
// migrations directory of the sqlite store.
type FileScanner interface {
	ScanMigrations(fsys fs.FS, dir string) ([]Migration, error)
	ValidateFileName(filename string) error
	ParseMigrationFile(fsys fs.FS, filePath string) (*Migration, error)
}

// Executor applies migrations and keeps the schema_migrations table.
// ExecuteMigration runs every statement of a file in one transaction.
type Executor interface {
	ExecuteMigration(ctx context.Context, migration Migration) error
	InitializeVersionTable(ctx context.Context) error
	RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// MigrationStatus is what `shareup migrate` reports after running.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}
