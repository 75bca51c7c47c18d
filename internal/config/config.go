// Package config loads the catalog service configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML file (--config flag or CATALOG_CONFIG)
//  3. environment variables prefixed with CATALOG_, where a double
//     underscore separates nesting levels: CATALOG_STORE__DRIVER=sqlite
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"catalog-service/internal/api"
	"catalog-service/internal/cache"
	"catalog-service/internal/logging"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix     = "CATALOG_"
	ConfigPathEnv = "CATALOG_CONFIG"
)

type Config struct {
	HTTP      HTTPConfig          `koanf:"http"`
	GRPC      GRPCConfig          `koanf:"grpc"`
	Store     StoreConfig         `koanf:"store"`
	Cache     cache.Config        `koanf:"cache"`
	Log       logging.Config      `koanf:"log"`
	RateLimit api.RateLimitConfig `koanf:"rate_limit"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type GRPCConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
}

// StoreConfig selects the entity store backend. DSN is a file path or
// ":memory:" for sqlite and a connection string for postgres.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory sqlite postgres"`
	DSN    string `koanf:"dsn" validate:"required_unless=Driver memory"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		GRPC: GRPCConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "catalog.db",
		},
		Cache:     cache.DefaultConfig(),
		Log:       logging.DefaultConfig(),
		RateLimit: api.RateLimitConfig{Requests: 0, Window: time.Minute},
	}
}

// Load reads defaults, then the YAML file at path (or $CATALOG_CONFIG when
// path is empty), then CATALOG_ environment variables, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// envTransformFunc maps CATALOG_STORE__DSN to store.dsn.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
	})
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required when cache.backend is %q", cache.BackendRedis)
	}
	return nil
}

// SQLDriver returns the database/sql driver name for the store, or "" for the memory store.
func (s StoreConfig) SQLDriver() string {
	switch s.Driver {
	case "sqlite":
		return "sqlite3"
	case "postgres":
		return "postgres"
	default:
		return ""
	}
}
