package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Jessiellen/shareup-app/internal/adapters"
	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/config"
	"github.com/Jessiellen/shareup-app/internal/events"
	"github.com/Jessiellen/shareup-app/internal/logging"
	"github.com/Jessiellen/shareup-app/internal/persistence"
	"github.com/Jessiellen/shareup-app/internal/persistence/memory"
	"github.com/Jessiellen/shareup-app/internal/persistence/postgres"
	"github.com/Jessiellen/shareup-app/internal/persistence/sqlite"
	"github.com/Jessiellen/shareup-app/internal/persistence/sqlite/migration"
)

type configError struct {
	file string
	err  error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

type environment struct {
	cfg    config.Config
	logger *slog.Logger
}

func loadEnvironment(opts *globalOptions, logOut io.Writer) (environment, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return environment{}, &configError{file: opts.envFile, err: err}
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return environment{}, &configError{file: opts.envFile, err: err}
	}

	return environment{cfg: cfg, logger: logging.New(logOut, level)}, nil
}

// openStore opens and migrates the configured backend.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	var store persistence.Store
	switch cfg.Storage {
	case config.StorageMemory:
		store = memory.Open()
	case config.StoragePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		store = pg
	default:
		lite, err := sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.SQLiteDSN, err)
		}
		store = lite
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return store, nil
}

// openBus returns the Redis bus when configured and the in-process broker
// otherwise.
func openBus(ctx context.Context, cfg config.Config, logger *slog.Logger) (events.Bus, func() error, error) {
	if cfg.RedisAddr == "" {
		return events.NewBroker(logger), func() error { return nil }, nil
	}

	bus, err := events.NewRedisBus(&redis.Options{Addr: cfg.RedisAddr}, cfg.RedisNamespace, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := bus.Ping(ctx); err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("redis at %s is unreachable: %w", cfg.RedisAddr, err)
	}
	return bus, bus.Close, nil
}

type services struct {
	requests     *application.RequestService
	appointments *application.AppointmentService
	// cache is nil when list caching is off.
	cache *application.ListCache
}

// listCacheEnabled reports whether every writer's mutations can reach this
// process's cache. Other processes writing to sqlite or postgres are only
// heard through Redis; a memory store has no other writers.
func listCacheEnabled(cfg config.Config) bool {
	if cfg.CacheSize <= 0 {
		return false
	}
	return cfg.Storage == config.StorageMemory || cfg.RedisAddr != ""
}

func newServices(store persistence.Store, cfg config.Config, logger *slog.Logger, publisher application.EventPublisher) services {
	opts := []application.Option{
		application.WithLogger(logger),
		application.WithLocation(cfg.Location),
	}
	if publisher != nil {
		opts = append(opts, application.WithPublisher(publisher))
	}
	var cache *application.ListCache
	if listCacheEnabled(cfg) {
		cache = application.NewListCache(cfg.CacheSize, cfg.CacheTTL, time.Now)
		opts = append(opts, application.WithListCache(cache))
	}

	requests, appointments := adapters.Services(store, uuid.NewString, time.Now, opts...)
	return services{requests: requests, appointments: appointments, cache: cache}
}
