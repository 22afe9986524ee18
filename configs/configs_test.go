package configs

import (
	"testing"
	"time"
)

func TestAppLoadDefaults(t *testing.T) {
	cfg := AppLoad()

	if cfg.Database.Provider != "postgres" {
		t.Errorf("Expected postgres provider, got %s", cfg.Database.Provider)
	}
	if cfg.ServerPort != "3001" {
		t.Errorf("Expected port 3001, got %s", cfg.ServerPort)
	}
	if cfg.Collector.Period != time.Hour {
		t.Errorf("Expected hourly period, got %v", cfg.Collector.Period)
	}
	if cfg.Collector.AssetPause != 3*time.Second {
		t.Errorf("Expected 3s asset pause, got %v", cfg.Collector.AssetPause)
	}
	if cfg.Task.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", cfg.Task.MaxAttempts)
	}
	if cfg.Task.RateLimitBackoff != 10*time.Second {
		t.Errorf("Expected 10s rate limit backoff, got %v", cfg.Task.RateLimitBackoff)
	}
	if cfg.CoinGecko.LookbackDays != 2 {
		t.Errorf("Expected 2 lookback days, got %d", cfg.CoinGecko.LookbackDays)
	}
	if cfg.Stream.Enabled {
		t.Error("Expected streaming disabled by default")
	}
}

func TestAppLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_PROVIDER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("POLL_INTERVAL", "15m")
	t.Setenv("FETCH_MAX_ATTEMPTS", "5")
	t.Setenv("STREAM_ENABLED", "true")
	t.Setenv("STREAM_PROVIDER", "redis")

	cfg := AppLoad()

	if cfg.Database.Provider != "sqlite" || cfg.Database.DSN != ":memory:" {
		t.Errorf("Database override not applied: %+v", cfg.Database)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.Collector.Period != 15*time.Minute {
		t.Errorf("Expected 15m period, got %v", cfg.Collector.Period)
	}
	if cfg.CoinGecko.Interval != 15*time.Minute {
		t.Errorf("Expected client interval to follow poll interval, got %v", cfg.CoinGecko.Interval)
	}
	if cfg.Task.MaxAttempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", cfg.Task.MaxAttempts)
	}
	if !cfg.Stream.Enabled || cfg.Stream.Provider != "redis" {
		t.Errorf("Stream override not applied: %+v", cfg.Stream)
	}
}

func TestAppLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "notaduration")
	t.Setenv("FETCH_MAX_ATTEMPTS", "many")
	t.Setenv("STREAM_ENABLED", "yep")

	cfg := AppLoad()

	if cfg.Collector.Period != time.Hour {
		t.Errorf("Expected default period on bad value, got %v", cfg.Collector.Period)
	}
	if cfg.Task.MaxAttempts != 3 {
		t.Errorf("Expected default attempts on bad value, got %d", cfg.Task.MaxAttempts)
	}
	if cfg.Stream.Enabled {
		t.Error("Expected default streaming flag on bad value")
	}
}
