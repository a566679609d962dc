package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if TRIAGE_CONFIG is set
//  3. env (prefix TRIAGE_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TRIAGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRIAGE_ADDR, TRIAGE_TICK_SCHEDULE, ...
	// Map env keys like TRIAGE_TICK_SCHEDULE -> tick_schedule (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TRIAGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "triage_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.Mailbox == "" {
		return fmt.Errorf("%w: mailbox must not be empty", ErrInvalidConfig)
	}
	if c.TickTimeoutSec <= 0 {
		return fmt.Errorf("%w: tick_timeout_sec must be positive", ErrInvalidConfig)
	}
	if c.BurstWindowMin <= 0 {
		return fmt.Errorf("%w: burst_window_min must be positive", ErrInvalidConfig)
	}
	if c.BurstElevated > c.BurstThreshold {
		return fmt.Errorf("%w: burst_elevated must not exceed burst_threshold", ErrInvalidConfig)
	}
	if c.PoisonThreshold <= 0 {
		return fmt.Errorf("%w: poison_threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// RosterPath resolves the roster file against the data dir.
func (c *Config) RosterPath() string { return c.resolve(c.RosterFile) }

// PolicyPath resolves the policy file against the data dir.
func (c *Config) PolicyPath() string { return c.resolve(c.PolicyFile) }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
