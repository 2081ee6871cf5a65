// Package config loads the service configuration: a base config.toml, an
// optional per-environment overlay, and ARBITER_* environment variable
// overrides, finalized with defaults and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/arbiterhq/arbiter/internal/classifier"
	"github.com/arbiterhq/arbiter/internal/engine"
	"github.com/arbiterhq/arbiter/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvArbiterEnv             = "ARBITER_ENV"
	EnvArbiterShutdownTimeout = "ARBITER_SHUTDOWN_TIMEOUT"
	EnvArbiterVersion         = "ARBITER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ARBITER_DB_HOST",
	Port:            "ARBITER_DB_PORT",
	Name:            "ARBITER_DB_NAME",
	User:            "ARBITER_DB_USER",
	Password:        "ARBITER_DB_PASSWORD",
	SSLMode:         "ARBITER_DB_SSL_MODE",
	MaxOpenConns:    "ARBITER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ARBITER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ARBITER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ARBITER_DB_CONN_TIMEOUT",
}

var engineEnv = &engine.Env{
	AutoApplyThreshold: "ARBITER_ENGINE_AUTO_APPLY_THRESHOLD",
	BatchWorkers:       "ARBITER_ENGINE_BATCH_WORKERS",
}

var classifierEnv = &classifier.Env{
	Enabled:     "ARBITER_CLASSIFIER_ENABLED",
	Endpoint:    "ARBITER_CLASSIFIER_ENDPOINT",
	Model:       "ARBITER_CLASSIFIER_MODEL",
	APIKey:      "ARBITER_CLASSIFIER_API_KEY",
	Temperature: "ARBITER_CLASSIFIER_TEMPERATURE",
	MaxContent:  "ARBITER_CLASSIFIER_MAX_CONTENT",
}

// Config is the root configuration for the Arbiter service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	API             APIConfig         `toml:"api"`
	Engine          engine.Config     `toml:"engine"`
	Classifier      classifier.Config `toml:"classifier"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the ARBITER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvArbiterEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
	c.Classifier.Merge(&overlay.Classifier)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Engine.Finalize(engineEnv); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Classifier.Finalize(classifierEnv); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvArbiterShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvArbiterVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvArbiterEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
