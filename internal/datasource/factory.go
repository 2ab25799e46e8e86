package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/config"
	"github.com/yourusername/race-scanner/internal/models"
)

// Source names accepted in configuration.
const (
	sourceAttTheRaces  = "attheraces"
	sourceSportingLife = "sportinglife"
	sourceGreyhounds   = "greyhounds"
	sourceRPB2B        = "rpb2b"
	sourceHarness      = "harness"
)

// Factory creates Adapter implementations based on configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(logger *logrus.Logger) *Factory {
	return &Factory{logger: logger}
}

// NewAdapter creates a single adapter from its configuration block.
func (f *Factory) NewAdapter(cfg config.SourceConfig, httpClient *RateLimitedHTTPClient) (Adapter, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("HTTP client is required")
	}

	switch cfg.Name {
	case sourceAttTheRaces:
		return NewATRClient(httpClient, cfg.BaseURL, cfg.Regions, cfg.Enabled, f.logger), nil

	case sourceSportingLife:
		return NewSportingLifeClient(httpClient, cfg.BaseURL, cfg.Enabled, f.logger), nil

	case sourceGreyhounds:
		return NewGreyhoundsClient(httpClient, cfg.BaseURL, cfg.Enabled, f.logger), nil

	case sourceRPB2B:
		return NewRPB2BClient(httpClient, cfg.BaseURL, cfg.Enabled, f.logger), nil

	case sourceHarness:
		return NewHarnessClient(httpClient, cfg.BaseURL, cfg.Enabled, f.logger), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}
}

// NewAdapters creates all enabled adapters from configuration
func (f *Factory) NewAdapters(sources []config.SourceConfig, httpClient *RateLimitedHTTPClient) ([]Adapter, error) {
	var adapters []Adapter

	for _, srcCfg := range sources {
		if !srcCfg.Enabled {
			f.logger.WithField("source", srcCfg.Name).Debug("Skipping disabled data source")
			continue
		}

		adapter, err := f.NewAdapter(srcCfg, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create data source %s: %w", srcCfg.Name, err)
		}

		adapters = append(adapters, adapter)
		f.logger.WithField("source", srcCfg.Name).Info("Created data source")
	}

	if len(adapters) == 0 {
		return nil, models.ErrNoSourcesActive
	}

	return adapters, nil
}
