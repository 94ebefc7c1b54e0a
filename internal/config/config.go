package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Debug     bool   `env:"DEBUG" envDefault:"false"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Security  SecurityConfig
	Yahoo     YahooConfig
	Market    MarketConfig
	Pushover  PushoverConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"5001"`
	Host string `env:"SERVER_HOST" envDefault:"localhost"`
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string `env:"DB_PATH" envDefault:"./data/stock_tracker.db"`
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost"`
}

// SecurityConfig holds the secrets used for sessions, stored keys and the cron trigger.
type SecurityConfig struct {
	SecretKey  string        `env:"SECRET_KEY"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CronSecret string        `env:"CRON_SECRET"`
}

// YahooConfig configures the quote and news upstream.
type YahooConfig struct {
	QuoteURL  string        `env:"YAHOO_QUOTE_URL" envDefault:"https://query1.finance.yahoo.com"`
	NewsURL   string        `env:"YAHOO_NEWS_URL" envDefault:"https://query2.finance.yahoo.com"`
	Timeout   time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
	Retries   int           `env:"QUOTE_RETRIES" envDefault:"2"`
	RetryWait time.Duration `env:"QUOTE_RETRY_WAIT" envDefault:"1s"`
}

// MarketConfig sizes the batch fetch worker pools.
type MarketConfig struct {
	QuoteWorkers int `env:"QUOTE_WORKERS" envDefault:"10"`
	NewsWorkers  int `env:"NEWS_WORKERS" envDefault:"5"`
}

// PushoverConfig configures the notification sink.
type PushoverConfig struct {
	URL      string        `env:"PUSHOVER_URL" envDefault:"https://api.pushover.net"`
	AppToken string        `env:"PUSHOVER_APP_TOKEN"`
	Timeout  time.Duration `env:"PUSHOVER_TIMEOUT" envDefault:"10s"`
}

// RedisConfig configures the optional quote cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	QuoteTTL time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"60s"`
}

// SchedulerConfig configures the in-process notification trigger.
type SchedulerConfig struct {
	Enabled  bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	Spec     string `env:"SCHEDULER_SPEC" envDefault:"0,30 * * * *"`
	Timezone string `env:"MARKET_TIMEZONE" envDefault:"America/New_York"`
}

// ErrMissingSecret is returned when a required secret is unset outside debug mode.
var ErrMissingSecret = errors.New("missing required secret")

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// validate enforces the secrets that production deployments must set.
// In debug mode missing secrets are tolerated; the caller generates
// ephemeral ones.
func (c *Config) validate() error {
	if c.Debug {
		return nil
	}
	if c.Security.SecretKey == "" {
		return fmt.Errorf("%w: SECRET_KEY", ErrMissingSecret)
	}
	if c.Security.CronSecret == "" {
		return fmt.Errorf("%w: CRON_SECRET", ErrMissingSecret)
	}
	return nil
}
