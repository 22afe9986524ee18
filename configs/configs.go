// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"klinehub/internal/collector"
	"klinehub/internal/drivers/coingecko"
	"klinehub/internal/stream"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// Database contains the relational store settings.
	Database DatabaseConfig

	// ServerPort is the HTTP listen port for the read API.
	ServerPort string

	// CoinGecko contains upstream client settings.
	CoinGecko coingecko.Config

	// Collector contains scheduler and sequencer settings.
	Collector collector.Config

	// Task contains the per-asset retry settings.
	Task collector.TaskConfig

	// Stream contains the optional fan-out settings.
	Stream stream.Config
}

// DatabaseConfig holds connection settings for the kline store.
type DatabaseConfig struct {
	// Provider selects the driver: "postgres" or "sqlite".
	Provider string

	// DSN is the connection string (DATABASE_URL for postgres, a file
	// path or ":memory:" for sqlite).
	DSN string
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		Database: DatabaseConfig{
			Provider: getEnv("DB_PROVIDER", "postgres"),
			DSN:      getEnv("DATABASE_URL", "postgres://localhost:5432/klinehub?sslmode=disable"),
		},
		ServerPort: getEnv("SERVER_PORT", "3001"),
		CoinGecko: coingecko.Config{
			BaseURL:        getEnv("COINGECKO_BASE_URL", coingecko.DefaultBaseURL),
			LookbackDays:   getEnvInt("LOOKBACK_DAYS", coingecko.DefaultLookbackDays),
			Interval:       getEnvDuration("POLL_INTERVAL", time.Hour),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", coingecko.DefaultRequestTimeout),
			RequestsPerSec: 0.5,
		},
		Collector: collector.Config{
			Period:     getEnvDuration("POLL_INTERVAL", time.Hour),
			AssetPause: getEnvDuration("ASSET_PAUSE", 3*time.Second),
		},
		Task: collector.TaskConfig{
			MaxAttempts:      getEnvInt("FETCH_MAX_ATTEMPTS", 3),
			RateLimitBackoff: getEnvDuration("RATE_LIMIT_BACKOFF", 10*time.Second),
			TimeoutBackoff:   getEnvDuration("TIMEOUT_BACKOFF", 15*time.Second),
		},
		Stream: stream.Config{
			Enabled:       getEnvBool("STREAM_ENABLED", false),
			Provider:      getEnv("STREAM_PROVIDER", "kafka"),
			KafkaBroker:   getEnv("KAFKA_BROKER", "localhost:9092"),
			KafkaTopic:    getEnv("KAFKA_TOPIC", "klinehub_klines"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			RedisStream:   getEnv("REDIS_STREAM", "klinehub:klines"),
		},
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
