package classifier

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds connection parameters for the OpenAI-compatible classifier
// endpoint. Enabled false disables the collaborator entirely; the engine
// then classifies from rules, extraction, and history alone.
type Config struct {
	Enabled     bool    `toml:"enabled"`
	Endpoint    string  `toml:"endpoint"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	Temperature float64 `toml:"temperature"`
	MaxContent  int     `toml:"max_content"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	Endpoint    string
	Model       string
	APIKey      string
	Temperature string
	MaxContent  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = overlay.Enabled
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.MaxContent != 0 {
		c.MaxContent = overlay.MaxContent
	}
}

func (c *Config) loadDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxContent == 0 {
		c.MaxContent = 8000
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.Enabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv(env.Endpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(env.Model); v != "" {
		c.Model = v
	}
	if v := os.Getenv(env.APIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(env.Temperature); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := os.Getenv(env.MaxContent); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxContent = n
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("classifier endpoint is required when enabled")
	}
	if c.Model == "" {
		return fmt.Errorf("classifier model is required when enabled")
	}
	if c.MaxContent < 0 {
		return fmt.Errorf("classifier max_content cannot be negative")
	}
	return nil
}
