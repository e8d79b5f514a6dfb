// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	ListenAddr        string // Server listen address (e.g., ":8080")
	MetricsListenAddr string // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string // SQLite database path
	AdminKey          string // Required: administrator shared secret
	TokenExpiryHours  int    // Default registration token lifetime
}

// Load parses configuration from environment variables.
// All options except ADMIN_KEY have sensible defaults for ease of deployment.
func Load() (*Config, error) {
	logLevel := os.Getenv("LOG_LEVEL")
	listenAddr := os.Getenv("LISTEN_ADDR")
	metricsListenAddr := os.Getenv("METRICS_LISTEN_ADDR")
	databasePath := os.Getenv("DATABASE_PATH")
	adminKey := os.Getenv("ADMIN_KEY")

	if logLevel == "" {
		logLevel = "info"
	}
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	if metricsListenAddr == "" {
		metricsListenAddr = "localhost:9090"
	}
	if databasePath == "" {
		databasePath = "/data/fleet.db"
	}

	tokenExpiryHours := 24
	if v := os.Getenv("TOKEN_EXPIRY_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_EXPIRY_HOURS %q: %w", v, err)
		}
		tokenExpiryHours = n
	}

	cfg := &Config{
		LogLevel:          logLevel,
		ListenAddr:        listenAddr,
		MetricsListenAddr: metricsListenAddr,
		DatabasePath:      databasePath,
		AdminKey:          adminKey,
		TokenExpiryHours:  tokenExpiryHours,
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	if c.AdminKey == "" {
		return fmt.Errorf("ADMIN_KEY environment variable is required")
	}
	if c.TokenExpiryHours <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY_HOURS must be positive, got %d", c.TokenExpiryHours)
	}
	return nil
}
