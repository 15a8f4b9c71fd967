// Package config holds the runtime configuration of the otp command.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Values are populated from
// .otp.yaml, OTP_* env vars and CLI flags.
type Config struct {
	PoolPath  string `mapstructure:"pool_path"`
	StorePath string `mapstructure:"store_path"`
	IndexPath string `mapstructure:"index_path"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	WatchPool bool   `mapstructure:"watch_pool"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment or flags.
func Load() (Config, error) {
	viper.SetDefault("pool_path", ".")
	viper.SetDefault("store_path", "pool.db")
	viper.SetDefault("index_path", "pool.bleve")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("watch_pool", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("config: unknown log_format %q", cfg.LogFormat)
	}
	return cfg, nil
}
