package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Storage backends selectable through SHAREUP_STORAGE.
const (
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config captures environment driven configuration values for the service.
type Config struct {
	HTTPPort    int    `env:"SHAREUP_HTTP_PORT" envDefault:"8080"`
	Storage     string `env:"SHAREUP_STORAGE" envDefault:"sqlite"`
	SQLiteDSN   string `env:"SHAREUP_SQLITE_DSN" envDefault:"shareup.db"`
	DatabaseURL string `env:"SHAREUP_DATABASE_URL"`
	JWTSecret   string `env:"SHAREUP_JWT_SECRET"`
	Timezone    string `env:"SHAREUP_TIMEZONE" envDefault:"UTC"`

	SweepInterval time.Duration `env:"SHAREUP_SWEEP_INTERVAL" envDefault:"15m"`
	Retention     time.Duration `env:"SHAREUP_RETENTION" envDefault:"0s"`

	CacheSize int           `env:"SHAREUP_CACHE_SIZE" envDefault:"256"`
	CacheTTL  time.Duration `env:"SHAREUP_CACHE_TTL" envDefault:"30s"`

	RateLimitRPS   float64 `env:"SHAREUP_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"SHAREUP_RATE_LIMIT_BURST" envDefault:"10"`

	RedisAddr      string `env:"SHAREUP_REDIS_ADDR"`
	RedisNamespace string `env:"SHAREUP_REDIS_NAMESPACE" envDefault:"default"`

	CORSOrigins []string `env:"SHAREUP_CORS_ORIGINS" envSeparator:","`
	LogLevel    string   `env:"SHAREUP_LOG_LEVEL" envDefault:"info"`

	// Location is resolved from Timezone by Load.
	Location *time.Location
}

// Load reads an optional dotenv file and then parses configuration values
// from the process environment. Variables already set in the environment
// win over the file. Without arguments ".env" is tried; a missing file is
// not an error.
//
// Missing required values and invalid values are collected and reported
// together.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		missing = append(missing, "SHAREUP_JWT_SECRET")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "SHAREUP_HTTP_PORT")
	}

	switch cfg.Storage {
	case StorageSQLite:
		if strings.TrimSpace(cfg.SQLiteDSN) == "" {
			invalid = append(invalid, "SHAREUP_SQLITE_DSN")
		}
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			missing = append(missing, "SHAREUP_DATABASE_URL")
		}
	default:
		invalid = append(invalid, "SHAREUP_STORAGE")
	}

	if location, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "SHAREUP_TIMEZONE")
	} else {
		cfg.Location = location
	}

	if cfg.SweepInterval < 0 {
		invalid = append(invalid, "SHAREUP_SWEEP_INTERVAL")
	}
	if cfg.Retention < 0 {
		invalid = append(invalid, "SHAREUP_RETENTION")
	}
	if cfg.CacheSize < 0 {
		invalid = append(invalid, "SHAREUP_CACHE_SIZE")
	}
	if cfg.CacheTTL < 0 {
		invalid = append(invalid, "SHAREUP_CACHE_TTL")
	}
	if cfg.RateLimitRPS <= 0 {
		invalid = append(invalid, "SHAREUP_RATE_LIMIT_RPS")
	}
	if cfg.RateLimitBurst <= 0 {
		invalid = append(invalid, "SHAREUP_RATE_LIMIT_BURST")
	}
	if cfg.RedisAddr != "" && strings.TrimSpace(cfg.RedisNamespace) == "" {
		invalid = append(invalid, "SHAREUP_REDIS_NAMESPACE")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "SHAREUP_LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
