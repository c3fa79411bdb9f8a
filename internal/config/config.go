// Package config loads settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultDatabase is used when no connection string is configured.
const DefaultDatabase = "magazyn.sqlite3"

// databaseVars are checked in order; the first non-empty one wins.
var databaseVars = []string{"NETLIFY_DATABASE_URL", "DATABASE_URL", "NEON_DATABASE_URL"}

// Config is the settings shared by the API server and the SQL proxy.
type Config struct {
	Database   string
	ProxyURL   string
	ProxyToken string
	Addr       string
	CORSOrigin string
	JWTSecret  string
	AdminUser  string
	LogFile    string

	// LogLevel is debug, info, warn or error.
	LogLevel string

	// PruneSchedule is the cron expression for pruning revoked tokens.
	PruneSchedule string
}

// Load reads environment variables, after loading envFile if given or
// .env if present. defaultAddr is used when ADDR is unset.
func Load(envFile, defaultAddr string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env is fine when settings come from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Database:      databaseURL(),
		ProxyURL:      strings.TrimSpace(os.Getenv("PROXY_URL")),
		ProxyToken:    os.Getenv("PROXY_TOKEN"),
		Addr:          getenvWithDefault("ADDR", defaultAddr),
		CORSOrigin:    getenvWithDefault("CORS_ORIGIN", "*"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUser:     getenvWithDefault("ADMIN_USER", "admin"),
		LogFile:       os.Getenv("LOG_FILE"),
		LogLevel:      getenvWithDefault("LOG_LEVEL", "info"),
		PruneSchedule: getenvWithDefault("PRUNE_SCHEDULE", "@hourly"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Addr == "" {
		return errors.New("ADDR must not be empty")
	}
	if c.ProxyURL != "" && !strings.HasPrefix(c.ProxyURL, "http://") && !strings.HasPrefix(c.ProxyURL, "https://") {
		return fmt.Errorf("PROXY_URL must be an http(s) URL, got %q", c.ProxyURL)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// UsesProxy reports whether queries go through a remote SQL proxy.
func (c *Config) UsesProxy() bool {
	return c.ProxyURL != ""
}

func databaseURL() string {
	for _, name := range databaseVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return DefaultDatabase
}

func getenvWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
