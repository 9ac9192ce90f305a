package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the application configuration
type Config struct {
	Port           int           `env:"DASHBOARD_PORT" envDefault:"8080"`
	PortAttempts   int           `env:"DASHBOARD_PORT_ATTEMPTS" envDefault:"10"`
	PayloadPath    string        `env:"DASHBOARD_PAYLOAD" envDefault:"./data/recession_prediction_data.json"`
	DatabasePath   string        `env:"DASHBOARD_DB" envDefault:"./data/views.db"`
	StaticDir      string        `env:"DASHBOARD_STATIC_DIR"`
	Watch          bool          `env:"DASHBOARD_WATCH" envDefault:"true"`
	WatchDebounce  time.Duration `env:"DASHBOARD_WATCH_DEBOUNCE" envDefault:"250ms"`
	RateLimit      float64       `env:"DASHBOARD_RATE_LIMIT" envDefault:"20"`
	RateBurst      int           `env:"DASHBOARD_RATE_BURST" envDefault:"40"`
	AllowedOrigins []string      `env:"DASHBOARD_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"console"`
	Version        string        `env:"-"`
}

// Load reads configuration from the environment, after loading a .env
// file from the working directory when one exists
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.PortAttempts < 1 {
		return fmt.Errorf("port attempts must be at least 1, got %d", c.PortAttempts)
	}
	if c.PayloadPath == "" {
		return fmt.Errorf("payload path is required")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1 when rate limiting is enabled")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", c.LogFormat)
	}
	return nil
}
