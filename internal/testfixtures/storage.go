package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/persistence/memory"
	"github.com/Jessiellen/shareup-app/internal/persistence/sqlite"
	"github.com/Jessiellen/shareup-app/internal/persistence/sqlite/migration"
)

// StorageHarness exposes a migrated store for integration-style persistence tests.
type StorageHarness struct {
	Requests     persistence.AppointmentRequestRepository
	Appointments persistence.AppointmentRepository
	Store        persistence.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *StorageHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a harness over a temporary SQLite file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *StorageHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "shareup.db")
	storage, err := sqlite.Open(context.Background(), migration.DefaultSQLiteConfig(path), discardLogger())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return newHarness(tb, storage)
}

// NewMemoryHarness constructs a harness over the in-memory store.
func NewMemoryHarness(tb testing.TB) *StorageHarness {
	tb.Helper()
	return newHarness(tb, memory.Open())
}

func newHarness(tb testing.TB, store persistence.Store) *StorageHarness {
	harness := &StorageHarness{
		Requests:     store,
		Appointments: store,
		Store:        store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
