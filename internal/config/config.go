package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	DataRoot      string
	SessionSecret string
	Env           string

	// Lock tuning for the document store.
	LockRetries    int
	LockBackoff    time.Duration
	LockMaxBackoff time.Duration
	LockStaleAfter time.Duration
}

func Load() *Config {
	return &Config{
		Port:           envInt("PORT", 8080),
		DataRoot:       env("DATA_ROOT", "data"),
		SessionSecret:  env("SESSION_SECRET", "streamv8-insecure-development-secret"),
		Env:            env("APP_ENV", "development"),
		LockRetries:    envInt("LOCK_RETRIES", 5),
		LockBackoff:    envDuration("LOCK_BACKOFF", 50*time.Millisecond),
		LockMaxBackoff: envDuration("LOCK_MAX_BACKOFF", 200*time.Millisecond),
		LockStaleAfter: envDuration("LOCK_STALE_AFTER", 5*time.Second),
	}
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Path accessors keep the on-disk layout in one place. Every component
// receives the Config through its constructor; nothing reads paths from
// package-level state.

func (c *Config) UsersDir() string       { return filepath.Join(c.DataRoot, "users") }
func (c *Config) AdminDBPath() string    { return filepath.Join(c.UsersDir(), "admin.json") }
func (c *Config) UsersDBPath() string    { return filepath.Join(c.UsersDir(), "users.json") }
func (c *Config) HistoryDir() string     { return filepath.Join(c.UsersDir(), "history") }
func (c *Config) CatalogDir() string     { return filepath.Join(c.DataRoot, "catalog") }
func (c *Config) MoviesDir() string      { return filepath.Join(c.CatalogDir(), "movies") }
func (c *Config) SeriesDir() string      { return filepath.Join(c.CatalogDir(), "series") }
func (c *Config) CategoriesPath() string { return filepath.Join(c.CatalogDir(), "categories.json") }
func (c *Config) SessionsPath() string   { return filepath.Join(c.DataRoot, "sessions.json") }
func (c *Config) AuditLogPath() string   { return filepath.Join(c.DataRoot, "audit.log") }

func (c *Config) MoviePath(id string) string {
	return filepath.Join(c.MoviesDir(), id+".json")
}

func (c *Config) SeriesPath(slug string) string {
	return filepath.Join(c.SeriesDir(), slug+".json")
}

func (c *Config) HistoryPath(username string) string {
	return filepath.Join(c.HistoryDir(), username+".json")
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
