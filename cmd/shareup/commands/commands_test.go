package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jessiellen/shareup-app/internal/auth"
	"github.com/Jessiellen/shareup-app/internal/config"
	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/persistence/memory"
	"github.com/Jessiellen/shareup-app/internal/persistence/sqlite"
	"github.com/Jessiellen/shareup-app/internal/persistence/sqlite/migration"
	"github.com/Jessiellen/shareup-app/internal/printer"
)

const testSecret = "cli-test-secret"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// setupEnv isolates the SHAREUP_* environment and points storage at a
// temporary SQLite file.
func setupEnv(t *testing.T) string {
	t.Helper()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "SHAREUP_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}

	dbPath := filepath.Join(t.TempDir(), "shareup.db")
	t.Setenv("SHAREUP_JWT_SECRET", testSecret)
	t.Setenv("SHAREUP_STORAGE", "sqlite")
	t.Setenv("SHAREUP_SQLITE_DSN", dbPath)
	return dbPath
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCmd("test")
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootShowsHelp(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, name := range []string{"serve", "migrate", "sweep", "seed", "token"} {
		assert.Contains(t, out, name)
	}
}

func TestRootRejectsUnknownFlags(t *testing.T) {
	setupEnv(t)

	_, _, err := run(t, "--goal", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestTokenCommand(t *testing.T) {
	t.Run("prints a verifiable token", func(t *testing.T) {
		setupEnv(t)

		out, _, err := run(t, "token", "--user", "alice", "--name", "Alice", "--avatar", "https://img.example/a.png")
		require.NoError(t, err)

		claims, err := auth.ParseToken(strings.TrimSpace(out), testSecret)
		require.NoError(t, err)
		principal := claims.Principal()
		assert.Equal(t, "alice", principal.UserID)
		assert.Equal(t, "Alice", principal.DisplayName)
		require.NotNil(t, principal.Avatar)
		assert.Equal(t, "https://img.example/a.png", *principal.Avatar)
	})

	t.Run("requires --user", func(t *testing.T) {
		setupEnv(t)

		_, _, err := run(t, "token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `required flag(s) "user"`)
	})

	t.Run("missing secret is a configuration error", func(t *testing.T) {
		setupEnv(t)
		require.NoError(t, os.Unsetenv("SHAREUP_JWT_SECRET"))

		_, _, err := run(t, "token", "--user", "alice")
		var cfgErr *configError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "SHAREUP_JWT_SECRET")
	})
}

func TestMigrateCommand(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrating sqlite storage")
	assert.Contains(t, out, "schema is up to date")

	out, _, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Regexp(t, `pending migrations:\s+0`, out)
}

const fixtureYAML = `
requests:
  - requester: {id: alice, name: Alice}
    recipient: {id: bob, name: Bob}
    title: Go pairing
    date: "2099-06-01"
    time: "14:00"
    medium: online
    response:
      decision: accepted
      message: see you
  - requester: {id: carol, name: Carol}
    recipient: {id: bob, name: Bob}
    title: Pottery basics
    date: "2099-06-02"
    time: "09:30"
    alternatives:
      - {date: "2099-06-03", time: "09:30"}
    medium: presencial
appointments:
  - owner: {id: bob, name: Bob}
    participant: {id: dave, name: Dave}
    title: Guitar lesson
    date: "2099-06-01"
    time: "14:30"
    duration_minutes: 45
    status: confirmed
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSeedAndSweep(t *testing.T) {
	dbPath := setupEnv(t)

	out, _, err := run(t, "seed", "--file", writeFixture(t, fixtureYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "accepted, appointment")
	assert.Contains(t, out, "overlaps")
	assert.Contains(t, out, "seeded 2 requests and 1 appointments")

	store, err := sqlite.Open(context.Background(), migration.DefaultSQLiteConfig(dbPath), nil)
	require.NoError(t, err)
	appointments, err := store.ListAppointments(context.Background(), persistence.AppointmentFilter{ParticipantID: "bob"})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, appointments, 2)
	assert.Equal(t, "14:00", appointments[0].Time)
	assert.Equal(t, "14:30", appointments[1].Time)

	out, _, err = run(t, "sweep", "--retention", "720h")
	require.NoError(t, err)
	assert.Regexp(t, `expired requests:\s+0`, out)
	assert.Contains(t, out, "sweep finished")
	assert.NotContains(t, out, "retention is 0")
}

func TestSeedErrors(t *testing.T) {
	t.Run("unknown fields are rejected", func(t *testing.T) {
		setupEnv(t)

		_, _, err := run(t, "seed", "--file", writeFixture(t, "requests:\n  - titel: typo\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field titel not found")
	})

	t.Run("validation failures name the entry", func(t *testing.T) {
		setupEnv(t)

		fixture := `
requests:
  - requester: {id: alice}
    recipient: {id: alice}
    title: Self
    date: "2099-06-01"
    time: "14:00"
`
		_, _, err := run(t, "seed", "--file", writeFixture(t, fixture))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "request #1 (Self)")
		assert.Contains(t, err.Error(), "recipient_id")
	})

	t.Run("empty file is a warning", func(t *testing.T) {
		setupEnv(t)

		out, _, err := run(t, "seed", "--file", writeFixture(t, ""))
		require.NoError(t, err)
		assert.Contains(t, out, "nothing to seed")
	})
}

func TestSweepRejectsBadRetention(t *testing.T) {
	setupEnv(t)

	_, _, err := run(t, "sweep", "--retention=-1h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestReport(t *testing.T) {
	var out, errOut bytes.Buffer
	p := printer.New(&out, &errOut)

	report(p, &configError{file: ".env", err: errors.New("missing required environment variables: SHAREUP_JWT_SECRET")})
	assert.Contains(t, errOut.String(), "Configuration is incomplete")
	assert.Contains(t, errOut.String(), "add them to .env")

	errOut.Reset()
	report(p, errors.New("boom"))
	assert.Contains(t, errOut.String(), "shareup failed")
	assert.Contains(t, errOut.String(), "boom")
}

func TestListCacheEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want bool
	}{
		{name: "memory store has no other writers", cfg: config.Config{Storage: config.StorageMemory, CacheSize: 8}, want: true},
		{name: "sqlite without redis", cfg: config.Config{Storage: config.StorageSQLite, CacheSize: 8}, want: false},
		{name: "postgres with redis", cfg: config.Config{Storage: config.StoragePostgres, CacheSize: 8, RedisAddr: "localhost:6379"}, want: true},
		{name: "size zero turns it off", cfg: config.Config{Storage: config.StorageMemory}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, listCacheEnabled(tc.cfg))

			svc := newServices(memory.Open(), tc.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
			assert.Equal(t, tc.want, svc.cache != nil)
		})
	}
}
