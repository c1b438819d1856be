package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Config holds application configuration
type Config struct {
	TerraWebhookSecret  string
	WhoopClientSecret   string
	WhoopAPIBaseURL     string
	WhoopFetchTimeout   time.Duration
	SignatureTolerance  time.Duration
	StoreBackend        string
	DatabaseDSN         string
	FirebaseProjectID   string
	FirebaseDatabaseURL string
	RateLimitRPS        int
	RateLimitBurst      int
	MetricsToken        string
	Port                string
	Environment         string
}

// LoadConfig loads configuration from environment variables and validates it
func LoadConfig() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv parses environment variables without checking required fields.
func FromEnv() (*Config, error) {
	cfg := &Config{
		TerraWebhookSecret:  os.Getenv("TERRA_WEBHOOK_SECRET"),
		WhoopClientSecret:   os.Getenv("WHOOP_CLIENT_SECRET"),
		WhoopAPIBaseURL:     os.Getenv("WHOOP_API_BASE_URL"),
		StoreBackend:        strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendFirestore)),
		DatabaseDSN:         os.Getenv("DATABASE_DSN"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseDatabaseURL: os.Getenv("FIREBASE_DATABASE_URL"),
		MetricsToken:        os.Getenv("METRICS_TOKEN"),
		Port:                getEnvOrDefault("PORT", "8080"),
		Environment:         getEnvOrDefault("ENVIRONMENT", "development"),
	}

	var err error
	if cfg.WhoopFetchTimeout, err = getDurationOrDefault("WHOOP_FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SignatureTolerance, err = getDurationOrDefault("SIGNATURE_TOLERANCE", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getIntOrDefault("RATE_LIMIT_RPS", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getIntOrDefault("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything the webhook server needs.
func (c *Config) Validate() error {
	if c.TerraWebhookSecret == "" {
		return fmt.Errorf("TERRA_WEBHOOK_SECRET environment variable is required")
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.WhoopFetchTimeout <= 0 {
		return fmt.Errorf("WHOOP_FETCH_TIMEOUT must be positive")
	}
	return nil
}

// ValidateStore checks only the storage settings. Read-only commands need
// nothing else.
func (c *Config) ValidateStore() error {
	c.StoreBackend = strings.ToLower(c.StoreBackend)
	switch c.StoreBackend {
	case BackendFirestore, BackendMemory:
	case BackendPostgres, BackendSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN environment variable is required for %s", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// WhoopVerificationEnabled reports whether WHOOP deliveries are signature
// checked.
func (c *Config) WhoopVerificationEnabled() bool {
	return c.WhoopClientSecret != ""
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
