// Package config reads runtime settings from the environment.
//
// Every command starts from Load and lets its flags override the values,
// so NOVEL_* variables (or a .env file loaded by main) act as defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the commands.
type Config struct {
	// Database is the SQLite file holding save slots.
	Database string `env:"NOVEL_DB" envDefault:"novel.db"`

	// RedisURL switches slot storage to Redis when set.
	RedisURL string `env:"NOVEL_REDIS_URL"`

	// RedisPrefix namespaces slot keys in Redis.
	RedisPrefix string `env:"NOVEL_REDIS_PREFIX" envDefault:"novel:"`

	// Slot is the save slot play resumes from and saves to.
	Slot string `env:"NOVEL_SLOT" envDefault:"autosave"`

	// Language selects a localization; empty plays the authored text.
	Language string `env:"NOVEL_LANG"`

	// LocalesDir holds localization files. Empty means "locales" next to
	// the scenario.
	LocalesDir string `env:"NOVEL_LOCALES"`

	// MaxHops bounds the jumps a single cursor walk may take.
	MaxHops int `env:"NOVEL_MAX_HOPS" envDefault:"1024"`

	// Workers bounds how many playthroughs test runs at once.
	Workers int `env:"NOVEL_WORKERS" envDefault:"4"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.MaxHops < 1 {
		errs = append(errs, fmt.Errorf("NOVEL_MAX_HOPS must be at least 1, got %d", c.MaxHops))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("NOVEL_WORKERS must be at least 1, got %d", c.Workers))
	}
	if c.Slot == "" {
		errs = append(errs, errors.New("NOVEL_SLOT must not be empty"))
	}
	return errors.Join(errs...)
}
