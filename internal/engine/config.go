package engine

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds orchestration policy: the confidence threshold above which a
// generated suggestion may auto-apply, and the batch worker bound.
type Config struct {
	AutoApplyThreshold float64 `toml:"auto_apply_threshold"`
	BatchWorkers       int     `toml:"batch_workers"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	AutoApplyThreshold string
	BatchWorkers       string
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
	if overlay.AutoApplyThreshold != 0 {
		c.AutoApplyThreshold = overlay.AutoApplyThreshold
	}
	if overlay.BatchWorkers != 0 {
		c.BatchWorkers = overlay.BatchWorkers
	}
}

func (c *Config) loadDefaults() {
	if c.AutoApplyThreshold == 0 {
		c.AutoApplyThreshold = 0.9
	}
	if c.BatchWorkers == 0 {
		c.BatchWorkers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.AutoApplyThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.AutoApplyThreshold = f
		}
	}
	if v := os.Getenv(env.BatchWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchWorkers = n
		}
	}
}

func (c *Config) validate() error {
	if c.AutoApplyThreshold < 0 || c.AutoApplyThreshold > 1 {
		return fmt.Errorf("auto_apply_threshold must be within [0, 1]")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be positive")
	}
	return nil
}
