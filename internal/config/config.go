// Package config loads process-level configuration from the environment,
// grounded on ws/config.go: struct tags parsed by caarlos0/env/v11, an
// optional .env file loaded via joho/godotenv, validation, and a
// structured-logging dump.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds everything that is not part of the line-oriented server
// config file (see internal/serverconfig): process-level knobs that are
// naturally environment-variable driven, matching spec.md's split between
// "config file" (§6) and ambient process configuration.
type Config struct {
	Addr            string        `env:"KVDB_ADDR" envDefault:":8080"`
	DebugAddr       string        `env:"KVDB_DEBUG_ADDR" envDefault:":8081"`
	ConfigFile      string        `env:"KVDB_CONFIG_FILE" envDefault:""`
	ShardCount      int           `env:"KVDB_SHARD_COUNT" envDefault:"1000"`
	DatabaseCount   int           `env:"KVDB_DATABASES" envDefault:"16"`
	PurgeInterval   time.Duration `env:"KVDB_PURGE_INTERVAL" envDefault:"5s"`
	MaxConnections  int           `env:"KVDB_MAX_CONNECTIONS" envDefault:"10000"`
	CommandRateRPS  float64       `env:"KVDB_COMMAND_RATE_RPS" envDefault:"1000"`
	CommandBurst    int           `env:"KVDB_COMMAND_BURST" envDefault:"2000"`
	MetricsInterval time.Duration `env:"KVDB_METRICS_INTERVAL" envDefault:"15s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load reads configuration from a .env file (if present) and the
// environment, in that priority order, exactly as ws/config.go's
// LoadConfig does.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration for errors, matching the range/logical/enum
// check structure of ws/config.go's Validate.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("KVDB_ADDR is required")
	}
	if c.ShardCount < 1 {
		return fmt.Errorf("KVDB_SHARD_COUNT must be > 0, got %d", c.ShardCount)
	}
	if c.DatabaseCount < 1 {
		return fmt.Errorf("KVDB_DATABASES must be > 0, got %d", c.DatabaseCount)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("KVDB_MAX_CONNECTIONS must be > 0, got %d", c.MaxConnections)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "pretty": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, pretty (got: %s)", c.LogFormat)
	}
	return nil
}

// LogConfig emits the loaded configuration as a structured log line.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("environment", c.Environment).
		Str("addr", c.Addr).
		Str("debug_addr", c.DebugAddr).
		Int("shard_count", c.ShardCount).
		Int("database_count", c.DatabaseCount).
		Dur("purge_interval", c.PurgeInterval).
		Int("max_connections", c.MaxConnections).
		Float64("command_rate_rps", c.CommandRateRPS).
		Int("command_burst", c.CommandBurst).
		Dur("metrics_interval", c.MetricsInterval).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("configuration loaded")
}
