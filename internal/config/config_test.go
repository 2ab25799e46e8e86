package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "race-scanner",
			Environment: "development",
			LogLevel:    "info",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds:     30,
			MaxRetries:         4,
			RetryWaitMinMillis: 1000,
			RetryWaitMaxMillis: 30000,
			RateLimit:          10,
			HostIntervalMillis: 250,
		},
		Cache: CacheConfig{
			Enabled:           true,
			Dir:               ".cache",
			DefaultTTLMinutes: 30,
			MinTTLMinutes:     1,
			MaxTTLHours:       6,
		},
		Sources: []SourceConfig{
			{Name: "attheraces", Enabled: true},
			{Name: "sportinglife", Enabled: false},
		},
		Scan: ScanConfig{DaysAhead: 2},
		Scoring: ScoringConfig{
			FieldSizeWeight:   0.3,
			OddsValueWeight:   0.4,
			OddsSpreadWeight:  0.2,
			DataQualityWeight: 0.1,
		},
		Output: OutputConfig{
			Dir:     "output",
			Formats: []string{"html", "json"},
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "sandbox"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "development, staging, production")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.App.LogLevel = "verbose"
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Output.Formats = []string{"pdf"}
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsWeightsNotSummingToOne(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.OddsValueWeight = 0.9
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidateRequiresAnEnabledSource(t *testing.T) {
	cfg := validConfig()
	for i := range cfg.Sources {
		cfg.Sources[i].Enabled = false
	}
	require.Error(t, Validate(cfg))
}

func TestValidateMarketWatchNeedsDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.MarketWatch.Enabled = true
	require.Error(t, Validate(cfg))

	cfg.Database = DatabaseConfig{
		Enabled:            true,
		Host:               "localhost",
		Port:               5432,
		Name:               "races",
		User:               "scanner",
		Password:           "secret",
		SSLMode:            "disable",
		MaxConnections:     10,
		MaxIdleConnections: 5,
	}
	require.NoError(t, Validate(cfg))
}

func TestValidateProductionRequiresSSL(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	cfg.Database = DatabaseConfig{
		Enabled:            true,
		Host:               "db",
		Port:               5432,
		Name:               "races",
		User:               "scanner",
		SSLMode:            "disable",
		MaxConnections:     10,
		MaxIdleConnections: 5,
	}
	require.Error(t, Validate(cfg))

	cfg.Database.SSLMode = "require"
	require.NoError(t, Validate(cfg))
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 2, cfg.Scan.DaysAhead)
	assert.Equal(t, 0.4, cfg.Scoring.OddsValueWeight)
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "hunter2")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: race-scanner
  environment: development
  log_level: info
database:
  password: ${TEST_DB_PASSWORD}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestSourceLookup(t *testing.T) {
	cfg := validConfig()
	src, ok := cfg.Source("attheraces")
	require.True(t, ok)
	assert.True(t, src.Enabled)

	_, ok = cfg.Source("mystery")
	assert.False(t, ok)
}
