package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/layer-3/ethauth/core"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	EnvProduction = "production"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Redis    RedisConfig
	Registry RegistryConfig
	Events   EventsConfig
}

type ServerConfig struct {
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"SERVER_PORT" default:"9000"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"development"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) Production() bool {
	return s.Environment == EnvProduction
}

type AuthConfig struct {
	Domain         string        `envconfig:"AUTH_DOMAIN"`
	Issuer         string        `envconfig:"AUTH_ISSUER" default:"dev"`
	PrivateKey     string        `envconfig:"JWT_PRIVATE_KEY"`
	PrivateKeyFile string        `envconfig:"JWT_PRIVATE_KEY_FILE"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
}

// PrivateKeyPEM returns the PEM encoded signing key, read from the file
// when JWT_PRIVATE_KEY_FILE is set.
func (a AuthConfig) PrivateKeyPEM() ([]byte, error) {
	if a.PrivateKeyFile != "" {
		data, err := os.ReadFile(a.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read private key: %w", core.ErrConfiguration, err)
		}
		return data, nil
	}
	if a.PrivateKey == "" {
		return nil, fmt.Errorf("%w: JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE is required", core.ErrConfiguration)
	}
	// Single-line env values commonly carry escaped newlines
	return []byte(strings.ReplaceAll(a.PrivateKey, `\n`, "\n")), nil
}

type SessionConfig struct {
	CookieName    string        `envconfig:"SESSION_COOKIE_NAME" default:"ledger-auth"`
	TTL           time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	Backend       string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

type RegistryConfig struct {
	File string `envconfig:"REGISTRY_FILE" default:"appRegistry.json"`
	DSN  string `envconfig:"REGISTRY_DSN"`
}

type EventsConfig struct {
	Enabled bool `envconfig:"EVENTS_ENABLED" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	switch {
	case c.Auth.Domain == "":
		return fmt.Errorf("%w: AUTH_DOMAIN is required", core.ErrConfiguration)
	case c.Auth.Issuer == "":
		return fmt.Errorf("%w: AUTH_ISSUER must not be empty", core.ErrConfiguration)
	case c.Auth.PrivateKey == "" && c.Auth.PrivateKeyFile == "":
		return fmt.Errorf("%w: JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE is required", core.ErrConfiguration)
	case c.Auth.TokenTTL <= 0:
		return fmt.Errorf("%w: TOKEN_TTL must be positive", core.ErrConfiguration)
	case c.Session.CookieName == "":
		return fmt.Errorf("%w: SESSION_COOKIE_NAME must not be empty", core.ErrConfiguration)
	case c.Session.TTL <= 0:
		return fmt.Errorf("%w: SESSION_TTL must be positive", core.ErrConfiguration)
	case c.Session.SweepInterval <= 0:
		return fmt.Errorf("%w: SESSION_SWEEP_INTERVAL must be positive", core.ErrConfiguration)
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: SERVER_PORT %d out of range", core.ErrConfiguration, c.Server.Port)
	}

	switch c.Session.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown SESSION_BACKEND %q", core.ErrConfiguration, c.Session.Backend)
	}

	if c.UsesRedis() && c.Redis.URL == "" {
		return fmt.Errorf("%w: REDIS_URL is required", core.ErrConfiguration)
	}
	if c.Registry.DSN == "" && c.Registry.File == "" {
		return fmt.Errorf("%w: REGISTRY_FILE or REGISTRY_DSN is required", core.ErrConfiguration)
	}

	return nil
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Session.Backend == BackendRedis || c.Events.Enabled
}
