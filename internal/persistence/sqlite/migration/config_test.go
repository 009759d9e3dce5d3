package migration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestSQLiteConfigValidate(t *testing.T) {
	if err := DefaultSQLiteConfig("shareup.db").Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	bad := SQLiteConfig{JournalMode: "FAST", Synchronous: "SOMETIMES", MaxOpenConns: -1}
	err := bad.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"dsn is empty", "journal mode", "synchronous mode", "pool limits"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestOpenCreatesDatabaseDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shareup.db")

	db, err := Open(context.Background(), DefaultSQLiteConfig(path))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("journal mode = %q, want wal", mode)
	}
}
