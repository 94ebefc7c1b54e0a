package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("DEBUG", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}

		if cfg.Server.Addr != "localhost:5001" {
			t.Errorf("Expected addr localhost:5001, got %s", cfg.Server.Addr)
		}
		if cfg.Market.QuoteWorkers != 10 || cfg.Market.NewsWorkers != 5 {
			t.Errorf("Expected 10/5 workers, got %d/%d", cfg.Market.QuoteWorkers, cfg.Market.NewsWorkers)
		}
		if cfg.Yahoo.Timeout != 5*time.Second {
			t.Errorf("Expected 5s quote timeout, got %v", cfg.Yahoo.Timeout)
		}
		if cfg.Scheduler.Timezone != "America/New_York" {
			t.Errorf("Expected America/New_York, got %s", cfg.Scheduler.Timezone)
		}
		if len(cfg.CORS.AllowedOrigins) != 2 {
			t.Errorf("Expected 2 default CORS origins, got %v", cfg.CORS.AllowedOrigins)
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("DEBUG", "true")
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("QUOTE_WORKERS", "3")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example,https://c.example")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}

		if cfg.Server.Addr != "localhost:8080" {
			t.Errorf("Expected addr localhost:8080, got %s", cfg.Server.Addr)
		}
		if cfg.Market.QuoteWorkers != 3 {
			t.Errorf("Expected 3 quote workers, got %d", cfg.Market.QuoteWorkers)
		}
		if len(cfg.CORS.AllowedOrigins) != 3 {
			t.Errorf("Expected 3 CORS origins, got %v", cfg.CORS.AllowedOrigins)
		}
	})

	t.Run("requires secrets outside debug mode", func(t *testing.T) {
		t.Setenv("DEBUG", "false")
		t.Setenv("SECRET_KEY", "")
		t.Setenv("CRON_SECRET", "")

		_, err := Load()
		if !errors.Is(err, ErrMissingSecret) {
			t.Errorf("Expected ErrMissingSecret, got %v", err)
		}
	})

	t.Run("accepts secrets outside debug mode", func(t *testing.T) {
		t.Setenv("DEBUG", "false")
		t.Setenv("SECRET_KEY", "key")
		t.Setenv("CRON_SECRET", "cron")

		if _, err := Load(); err != nil {
			t.Errorf("Load() returned unexpected error: %v", err)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("DEBUG", "true")
		t.Setenv("QUOTE_TIMEOUT", "soon")

		if _, err := Load(); err == nil {
			t.Error("Expected error for malformed duration")
		}
	})
}
