// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Port         string        // PORT
	DataDir      string        // DATA_DIR: SQLite store and snapshots
	CSVPath      string        // CSV_PATH: static player file
	DatabaseURL  string        // DATABASE_URL: hosted Postgres
	SupabaseURL  string        // SUPABASE_URL
	SupabaseKey  string        // SUPABASE_KEY
	RedisURL     string        // REDIS_URL
	ReferenceDir string        // REFERENCE_DIR: override for the embedded tables
	LogLevel     string        // LOG_LEVEL
	RateLimit    int           // RATE_LIMIT_PER_MIN, 0 disables
	RankingLimit int           // RANKING_LIMIT_PER_MIN, 0 disables
	CacheTTL     time.Duration // CACHE_TTL
	CORSOrigins  []string      // CORS_ORIGINS, comma separated
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:         "8080",
		DataDir:      "./data",
		LogLevel:     "info",
		RateLimit:    120,
		RankingLimit: 30,
		CacheTTL:     10 * time.Minute,
		CORSOrigins:  []string{"*"},
	}
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Missing .env files are ignored; variables already in
// the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DATA_DIR", &cfg.DataDir)
	str("CSV_PATH", &cfg.CSVPath)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("SUPABASE_URL", &cfg.SupabaseURL)
	str("SUPABASE_KEY", &cfg.SupabaseKey)
	str("REDIS_URL", &cfg.RedisURL)
	str("REFERENCE_DIR", &cfg.ReferenceDir)
	str("LOG_LEVEL", &cfg.LogLevel)

	var err error
	if cfg.RateLimit, err = intEnv(getenv, "RATE_LIMIT_PER_MIN", cfg.RateLimit); err != nil {
		return nil, err
	}
	if cfg.RankingLimit, err = intEnv(getenv, "RANKING_LIMIT_PER_MIN", cfg.RankingLimit); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(getenv("CACHE_TTL")); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = ttl
	}

	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

// Validate checks value ranges and source combinations.
func (c *Config) Validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("config error: RATE_LIMIT_PER_MIN must be non-negative")
	}
	if c.RankingLimit < 0 {
		return fmt.Errorf("config error: RANKING_LIMIT_PER_MIN must be non-negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config error: CACHE_TTL must be non-negative")
	}
	if (c.SupabaseURL == "") != (c.SupabaseKey == "") {
		return fmt.Errorf("config error: SUPABASE_URL and SUPABASE_KEY must be set together")
	}
	return nil
}

// Source names which player source the settings select, in precedence order:
// postgres, supabase, csv, then the local SQLite store.
func (c *Config) Source() string {
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.SupabaseURL != "":
		return "supabase"
	case c.CSVPath != "":
		return "csv"
	default:
		return "sqlite"
	}
}
