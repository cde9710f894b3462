// Package config loads agileflow settings from defaults, an optional TOML
// file, a .env file and AGILEFLOW_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full application configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Auth     Auth     `toml:"auth"`
	Log      Log      `toml:"log"`
}

// Server holds the HTTP settings.
type Server struct {
	Addr       string `toml:"addr"`
	StaticDir  string `toml:"static-dir"`
	CORSOrigin string `toml:"cors-origin"`
}

// Database selects and locates the store.
type Database struct {
	Driver string `toml:"driver"`
	// Path is the SQLite file.
	Path string `toml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `toml:"dsn"`
}

// Auth configures login tokens.
type Auth struct {
	JWTSecret    string        `toml:"jwt-secret"`
	TokenTTL     time.Duration `toml:"token-ttl"`
	RequireToken bool          `toml:"require-token"`
}

// Log configures the slog handler.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:       ":8080",
			StaticDir:  "web/dist",
			CORSOrigin: "http://localhost:3000",
		},
		Database: Database{
			Driver: DriverSQLite,
			Path:   "data/agileflow.db",
		},
		Auth: Auth{
			TokenTTL: 24 * time.Hour,
		},
		Log: Log{Level: "info"},
	}
}

// Load builds the configuration. file may be empty, in which case
// AGILEFLOW_CONFIG is consulted; a missing dotenv file is ignored.
func Load(file, dotenv string) (*Config, error) {
	cfg := Default()

	if file == "" {
		file = os.Getenv("AGILEFLOW_CONFIG")
	}
	if file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}

	if dotenv != "" {
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = envOrDefault("AGILEFLOW_ADDR", c.Server.Addr)
	c.Server.StaticDir = envOrDefault("AGILEFLOW_STATIC_DIR", c.Server.StaticDir)
	c.Server.CORSOrigin = envOrDefault("AGILEFLOW_CORS_ORIGIN", c.Server.CORSOrigin)
	c.Database.Driver = envOrDefault("AGILEFLOW_DB_DRIVER", c.Database.Driver)
	c.Database.Path = envOrDefault("AGILEFLOW_DB_PATH", c.Database.Path)
	c.Database.DSN = envOrDefault("AGILEFLOW_DB_DSN", c.Database.DSN)
	c.Auth.JWTSecret = envOrDefault("AGILEFLOW_JWT_SECRET", c.Auth.JWTSecret)
	c.Log.Level = envOrDefault("AGILEFLOW_LOG_LEVEL", c.Log.Level)

	if raw := os.Getenv("AGILEFLOW_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("AGILEFLOW_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = ttl
	}
	if raw := os.Getenv("AGILEFLOW_REQUIRE_TOKEN"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("AGILEFLOW_REQUIRE_TOKEN: %w", err)
		}
		c.Auth.RequireToken = v
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.RequireToken && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt-secret is required when auth.require-token is set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token-ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// envOrDefault returns the environment variable value or fallback when it is empty.
func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
