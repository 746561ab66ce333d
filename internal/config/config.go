package config

import (
	"context"
	"fmt"
	"time"

	"excentrica/internal/auth"
	"excentrica/internal/cache"
	"excentrica/internal/database"
	"excentrica/internal/messaging"

	"github.com/sethvargo/go-envconfig"
)

// Хранилище данных
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string        `env:"PORT,default=8080"`
	GinMode        string        `env:"GIN_MODE,default=debug"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	LogFormat      string        `env:"LOG_FORMAT,default=json"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	StoreDriver    string        `env:"STORE_DRIVER,default=postgres"`

	Database      database.Config     `env:",prefix=DB_"`
	NATS          messaging.Config    `env:",prefix=NATS_"`
	Redis         cache.Config        `env:",prefix=REDIS_"`
	Elasticsearch ElasticsearchConfig `env:",prefix=ELASTICSEARCH_"`
	Auth          auth.Config         `env:",prefix=AUTH_"`
	RateLimit     RateLimitConfig     `env:",prefix=RATE_LIMIT_"`
}

// RateLimitConfig - ограничение частоты запросов на IP
type RateLimitConfig struct {
	Enabled bool    `env:"ENABLED,default=true"`
	RPS     float64 `env:"RPS,default=20"`
	Burst   int     `env:"BURST,default=40"`
}

// Load загружает конфигурацию из переменных окружения
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom загружает конфигурацию из произвольного источника
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые envconfig проверить не может
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must be set")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive RPS and BURST")
	}
	return nil
}
