package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// BaseURL is the public origin of the portal, used to resolve post-login redirects.
	BaseURL string `env:"BASE_URL,  default=http://localhost:3000"`

	Session SessionConfig
	Backend BackendConfig
	Query   QueryConfig
	Mongo   MongoConfig
	Redis   RedisConfig

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`
}

type SessionConfig struct {
	Secret       string        `env:"SESSION_SECRET, required"`
	TTL          time.Duration `env:"SESSION_TTL,    default=24h"`
	CookieName   string        `env:"SESSION_COOKIE, default=portal_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE, default=false"`
}

type BackendConfig struct {
	URL     string        `env:"API_URL,     default=http://localhost:8080/api/v1"`
	Timeout time.Duration `env:"API_TIMEOUT, default=10s"`
}

type QueryConfig struct {
	Debounce time.Duration `env:"CUSTOMER_FILTER_DEBOUNCE, default=300ms"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=customer_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// IsDevelopment reports whether the portal runs with developer conveniences
// (pretty logs).
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadFrom resolves the configuration through the given lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, errors.New("config: SESSION_SECRET must be at least 32 characters")
	}
	return &cfg, nil
}

// Load reads configuration from environment variables using go-envconfig.
// Startup only: it panics when the environment is unusable.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
