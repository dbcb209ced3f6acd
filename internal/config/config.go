package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	BackendBaseURL string        `env:"BACKEND_BASE_URL,required" validate:"required,url"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`

	// Flat fee added once per checkout on top of the item subtotal. The
	// storefront historically shipped divergent hard-coded values per
	// surface; it is a single configurable value here.
	PlatformFee int `env:"PLATFORM_FEE" envDefault:"1" validate:"min=0"`

	// Spend tier used for the "add X more to reach the next tier" nudge.
	ThresholdStep int `env:"THRESHOLD_STEP" envDefault:"500" validate:"min=1"`

	// Optional override for the embedded product catalog.
	CatalogPath string `env:"CATALOG_PATH"`

	StoreName         string `env:"STORE_NAME" envDefault:"12 Crate Essentials"`
	GatewayThemeColor string `env:"GATEWAY_THEME_COLOR" envDefault:"#059669"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	SessionStoreProvider  string `env:"SESSION_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis,required_if=SessionStoreProvider redis"`

	CheckoutAttemptTTL time.Duration `env:"CHECKOUT_ATTEMPT_TTL" envDefault:"30m"`

	SentryDSN string `env:"SENTRY_DSN"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	parsed, err := url.Parse(strings.TrimSpace(c.BackendBaseURL))
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be a valid absolute URL")
	}
	if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("BACKEND_BASE_URL must use https outside local development")
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.CheckoutAttemptTTL <= 0 {
		return fmt.Errorf("CHECKOUT_ATTEMPT_TTL must be positive")
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
