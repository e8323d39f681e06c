package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	DatabasePath string
	LogLevel     string

	// Price providers
	FinnhubAPIKey      string
	AlphaVantageAPIKey string
	ProviderTimeout    time.Duration
	QuoteCacheTTL      time.Duration
	QueueCooldown      time.Duration

	// Model portfolio
	StartingNAV         float64
	TransactionCostRate float64
	BenchmarkSymbol     string
	RebalanceSchedule   string // cron expression, 5-field
	RebalanceTimezone   string

	// Optional S3 state backup
	BackupS3Bucket string
	BackupS3Prefix string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 5000),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/modelfolio.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		FinnhubAPIKey:      getEnv("FINNHUB_API_KEY", ""),
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 8*time.Second),
		QuoteCacheTTL:      getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		QueueCooldown:      getEnvAsDuration("QUEUE_COOLDOWN", 1200*time.Millisecond),

		StartingNAV:         getEnvAsFloat("STARTING_NAV", 100000),
		TransactionCostRate: getEnvAsFloat("TRANSACTION_COST_RATE", 0.0005),
		BenchmarkSymbol:     getEnv("BENCHMARK_SYMBOL", "SPY"),
		RebalanceSchedule:   getEnv("REBALANCE_SCHEDULE", "0 18 * * 5"), // Fridays 6 PM
		RebalanceTimezone:   getEnv("REBALANCE_TIMEZONE", "America/New_York"),

		BackupS3Bucket: getEnv("BACKUP_S3_BUCKET", ""),
		BackupS3Prefix: getEnv("BACKUP_S3_PREFIX", "modelfolio"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.StartingNAV <= 0 {
		return fmt.Errorf("STARTING_NAV must be positive")
	}
	if c.TransactionCostRate < 0 {
		return fmt.Errorf("TRANSACTION_COST_RATE must not be negative")
	}
	if _, err := time.LoadLocation(c.RebalanceTimezone); err != nil {
		return fmt.Errorf("invalid REBALANCE_TIMEZONE: %w", err)
	}

	// Note: provider API keys optional; the static price table covers the
	// model universe when no provider is configured.

	return nil
}

// Location resolves the configured rebalance timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.RebalanceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
