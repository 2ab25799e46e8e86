// Package config provides configuration management for the race scanner.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields. A missing config file is not an error; defaults and environment
// variables carry the run.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RACE_SCANNER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "race-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 4)
	v.SetDefault("http.retry_wait_min_millis", 1000)
	v.SetDefault("http.retry_wait_max_millis", 30000)
	v.SetDefault("http.rate_limit", 10)
	v.SetDefault("http.host_interval_millis", 250)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", ".cache/responses")
	v.SetDefault("cache.default_ttl_minutes", 30)
	v.SetDefault("cache.min_ttl_minutes", 1)
	v.SetDefault("cache.max_ttl_hours", 6)

	v.SetDefault("enrichment.enabled", true)

	v.SetDefault("scan.days_ahead", 2)

	v.SetDefault("filters.max_field_size", 10)
	v.SetDefault("filters.min_favorite_odds", 1.0)
	v.SetDefault("filters.min_second_favorite_odds", 3.0)

	v.SetDefault("scoring.field_size_weight", 0.3)
	v.SetDefault("scoring.odds_value_weight", 0.4)
	v.SetDefault("scoring.odds_spread_weight", 0.2)
	v.SetDefault("scoring.data_quality_weight", 0.1)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.formats", []string{"html"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("market_watch.interval_seconds", 300)
	v.SetDefault("market_watch.steam_threshold", 0.5)
	v.SetDefault("market_watch.drift_threshold", 0.5)
}
