package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration. An empty path disables the persistent cache
	// tier; results then live in memory only.
	DBPath string

	// TrackingMore aggregator fallback tier (optional). An empty URL means
	// the production API.
	TrackingMoreAPIKey string
	TrackingMoreAPIURL string

	// Scraping timeouts
	ScrapeTimeout time.Duration
	ProbeTimeout  time.Duration

	// Headless browser retry for bot-walled carriers
	HeadlessEnabled bool
	HeadlessTimeout time.Duration

	// Force-refresh cooldown per tracking number
	RefreshCooldown time.Duration

	// Logging
	LogLevel string

	// Development/testing flags
	DisableRateLimit bool
	DisableCache     bool

	// Admin API authentication (optional)
	AdminAPIKey string
}

// Load loads configuration from environment variables with defaults
// If a .env file exists, it will be loaded first
func Load() (*Config, error) {
	// Try to load .env file if it exists
	loadEnvFile(".env")
	config := &Config{
		// Server defaults
		ServerPort: getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost: getEnvOrDefault("SERVER_HOST", "localhost"),

		// Database defaults
		DBPath: getEnvOrDefault("DB_PATH", "./tracking.db"),

		// API keys (optional)
		TrackingMoreAPIKey: os.Getenv("TRACKINGMORE_API_KEY"),
		TrackingMoreAPIURL: os.Getenv("TRACKINGMORE_API_URL"),
		AdminAPIKey:        os.Getenv("ADMIN_API_KEY"),

		// Scraping timeouts
		ScrapeTimeout: getEnvDurationOrDefault("SCRAPE_TIMEOUT", "15s"),
		ProbeTimeout:  getEnvDurationOrDefault("PROBE_TIMEOUT", "10s"),

		// Headless browser
		HeadlessEnabled: getEnvBoolOrDefault("HEADLESS_ENABLED", false),
		HeadlessTimeout: getEnvDurationOrDefault("HEADLESS_TIMEOUT", "30s"),

		// Refresh cooldown
		RefreshCooldown: getEnvDurationOrDefault("REFRESH_COOLDOWN", "5m"),

		// Logging
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		// Development/testing flags
		DisableRateLimit: getEnvBoolOrDefault("DISABLE_RATE_LIMIT", false),
		DisableCache:     getEnvBoolOrDefault("DISABLE_CACHE", false),
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	// Validate server port
	if c.ServerPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	// Check if port is a valid number
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid server port: %s", c.ServerPort)
	}

	// Validate timeouts
	if c.ScrapeTimeout <= 0 {
		return fmt.Errorf("scrape timeout must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	if c.HeadlessTimeout <= 0 {
		return fmt.Errorf("headless timeout must be positive")
	}
	if c.RefreshCooldown < 0 {
		return fmt.Errorf("refresh cooldown must be non-negative")
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	isValidLogLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			isValidLogLevel = true
			break
		}
	}
	if !isValidLogLevel {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.ServerHost + ":" + c.ServerPort
}

// GetDisableRateLimit returns the rate limit disable flag
func (c *Config) GetDisableRateLimit() bool {
	return c.DisableRateLimit
}

// GetDisableCache returns the cache disable flag
func (c *Config) GetDisableCache() bool {
	return c.DisableCache
}
