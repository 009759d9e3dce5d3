package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMigrationFailed      = errors.New("migration failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file")
	// ErrVersionConflict covers gaps in the sequence and applied versions
	// that no longer have a file.
	ErrVersionConflict  = errors.New("migration version conflict")
	ErrInvalidVersion   = errors.New("invalid migration version")
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch means an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError ties a failure to the migration file being processed.
type MigrationError struct {
	Version   string
	FilePath  string
	Operation string
	Err       error
}

func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, FilePath: filePath, Operation: operation, Err: err}
}

func (e *MigrationError) Error() string {
	subject := e.FilePath
	if e.Version != "" {
		subject = e.Version + " (" + e.FilePath + ")"
	}
	return fmt.Sprintf("migration %s: %s: %v", subject, e.Operation, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// DatabaseError is a failed statement against the schema_migrations
// bookkeeping or a migration body. Query may be empty.
type DatabaseError struct {
	Version   string
	Query     string
	Operation string
	Err       error
}

func NewDatabaseError(version, query, operation string, err error) *DatabaseError {
	return &DatabaseError{Version: version, Query: query, Operation: operation, Err: err}
}

func (e *DatabaseError) Error() string {
	var b strings.Builder
	b.WriteString("migration database error")
	if e.Version != "" {
		b.WriteString(" in " + e.Version)
	}
	fmt.Fprintf(&b, " during %s: %v", e.Operation, e.Err)
	return b.String()
}

func (e *DatabaseError) Unwrap() error { return e.Err }
