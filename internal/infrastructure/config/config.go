package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const EnvDevelopment = "development"

type Config struct {
	Port            string        `env:"PORT,             default=3000"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	JWTSecret       string        `env:"JWT_SECRET,       required"`
	FrontendURL     string        `env:"FRONTEND_URL,     default=http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`

	Mongo     MongoConfig
	Redis     RedisConfig
	ControlD  ControlDConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=profile_manager"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// ControlDConfig points at the external profile API.
type ControlDConfig struct {
	APIKey      string        `env:"CONTROLD_API_KEY,      required"`
	BaseURL     string        `env:"CONTROLD_BASE_URL,     default=https://api.controld.com"`
	Timeout     time.Duration `env:"CONTROLD_TIMEOUT,      default=10s"`
	ReadRetries int           `env:"CONTROLD_READ_RETRIES, default=2"`
}

type RateLimitConfig struct {
	Backend string        `env:"RATE_LIMIT_BACKEND, default=redis"` // redis | memory
	Window  time.Duration `env:"RATE_LIMIT_WINDOW,  default=15m"`
	Max     int           `env:"RATE_LIMIT_MAX,     default=100"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// StoreConfig is the subset needed by offline commands that only touch the
// credential store. It has no required secrets.
type StoreConfig struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo MongoConfig
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// LoadStore reads the credential-store configuration from the process
// environment.
func LoadStore(ctx context.Context) (*StoreConfig, error) {
	return LoadStoreFrom(ctx, envconfig.OsLookuper())
}

func LoadStoreFrom(ctx context.Context, l envconfig.Lookuper) (*StoreConfig, error) {
	var cfg StoreConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.RateLimit.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be redis or memory, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window and max must be positive")
	}
	if c.ControlD.ReadRetries < 0 {
		return fmt.Errorf("CONTROLD_READ_RETRIES must not be negative")
	}
	return nil
}
