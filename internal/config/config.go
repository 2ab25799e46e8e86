// Package config provides configuration management for the race scanner.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	HTTP        HTTPConfig        `mapstructure:"http" validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache" validate:"required"`
	Sources     []SourceConfig    `mapstructure:"sources" validate:"required,min=1,dive"`
	Enrichment  EnrichmentConfig  `mapstructure:"enrichment"`
	Scan        ScanConfig        `mapstructure:"scan" validate:"required"`
	Filters     FiltersConfig     `mapstructure:"filters"`
	Scoring     ScoringConfig     `mapstructure:"scoring" validate:"required"`
	Output      OutputConfig      `mapstructure:"output" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	MarketWatch MarketWatchConfig `mapstructure:"market_watch"`
	Timezones   TimezonesConfig   `mapstructure:"timezones"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// HTTPConfig represents the shared outbound HTTP client configuration
type HTTPConfig struct {
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries         int     `mapstructure:"max_retries" validate:"gte=0"`
	RetryWaitMinMillis int     `mapstructure:"retry_wait_min_millis" validate:"gte=0"`
	RetryWaitMaxMillis int     `mapstructure:"retry_wait_max_millis" validate:"gte=0"`
	RateLimit          float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	HostIntervalMillis int     `mapstructure:"host_interval_millis" validate:"gte=0"`
	UserAgent          string  `mapstructure:"user_agent"`
}

// CacheConfig represents the on-disk HTTP response cache configuration
type CacheConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Dir               string `mapstructure:"dir"`
	DefaultTTLMinutes int    `mapstructure:"default_ttl_minutes" validate:"gte=0"`
	MinTTLMinutes     int    `mapstructure:"min_ttl_minutes" validate:"gte=0"`
	MaxTTLHours       int    `mapstructure:"max_ttl_hours" validate:"gte=0"`
}

// SourceConfig represents a single data source adapter configuration
type SourceConfig struct {
	Name    string   `mapstructure:"name" validate:"required"`
	Enabled bool     `mapstructure:"enabled"`
	BaseURL string   `mapstructure:"base_url" validate:"omitempty,url"`
	Regions []string `mapstructure:"regions"`
	APIKey  string   `mapstructure:"api_key"`
}

// EnrichmentConfig represents the form guide directory configuration
type EnrichmentConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	FeedURL string `mapstructure:"feed_url" validate:"omitempty,url"`
}

// ScanConfig represents scan scheduling and range configuration
type ScanConfig struct {
	DaysAhead int    `mapstructure:"days_ahead" validate:"required,gte=1,lte=7"`
	Schedule  string `mapstructure:"schedule"`
}

// FiltersConfig represents the tipsheet selection thresholds
type FiltersConfig struct {
	MaxFieldSize          int     `mapstructure:"max_field_size" validate:"gte=0"`
	MinFavoriteOdds       float64 `mapstructure:"min_favorite_odds" validate:"gte=0"`
	MinSecondFavoriteOdds float64 `mapstructure:"min_second_favorite_odds" validate:"gte=0"`
}

// ScoringConfig represents the value score component weights
type ScoringConfig struct {
	FieldSizeWeight   float64 `mapstructure:"field_size_weight" validate:"gte=0,lte=1"`
	OddsValueWeight   float64 `mapstructure:"odds_value_weight" validate:"gte=0,lte=1"`
	OddsSpreadWeight  float64 `mapstructure:"odds_spread_weight" validate:"gte=0,lte=1"`
	DataQualityWeight float64 `mapstructure:"data_quality_weight" validate:"gte=0,lte=1"`
}

// OutputConfig represents report generation configuration
type OutputConfig struct {
	Dir     string   `mapstructure:"dir" validate:"required"`
	Formats []string `mapstructure:"formats" validate:"required,min=1,formats"`
	Title   string   `mapstructure:"title"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// MarketWatchConfig represents odds movement tracking configuration
type MarketWatchConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	IntervalSeconds int     `mapstructure:"interval_seconds" validate:"omitempty,gt=0"`
	SteamThreshold  float64 `mapstructure:"steam_threshold" validate:"gte=0"`
	DriftThreshold  float64 `mapstructure:"drift_threshold" validate:"gte=0"`
}

// TimezonesConfig carries optional overrides for the built-in track and
// country timezone tables.
type TimezonesConfig struct {
	Tracks    map[string]string `mapstructure:"tracks"`
	Countries map[string]string `mapstructure:"countries"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Source returns the configuration block for the named source, if present.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// HTTPTimeout returns the outbound request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// MarketWatchInterval returns the snapshot interval as a duration.
func (c *Config) MarketWatchInterval() time.Duration {
	return time.Duration(c.MarketWatch.IntervalSeconds) * time.Second
}
