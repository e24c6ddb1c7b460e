// Package config loads runtime configuration for a magnetar invocation.
package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a magnetar invocation.
// Values are populated from .magnetar.yaml, MAGNETAR_* env vars, and CLI flags.
type Config struct {
	Database string `mapstructure:"database"`
	Arch     string `mapstructure:"arch"`
	Lint     bool   `mapstructure:"lint"`
	History  bool   `mapstructure:"history"`
	LogLevel string `mapstructure:"log_level"`
	Verbose  bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("database", ".")
	viper.SetDefault("arch", "x86_64")
	viper.SetDefault("lint", true)
	viper.SetDefault("history", true)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
