// Package main provides the entry point for the market watch daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-scanner/internal/aggregate"
	"github.com/yourusername/race-scanner/internal/config"
	"github.com/yourusername/race-scanner/internal/database"
	"github.com/yourusername/race-scanner/internal/datasource"
	"github.com/yourusername/race-scanner/internal/health"
	"github.com/yourusername/race-scanner/internal/logger"
	"github.com/yourusername/race-scanner/internal/metrics"
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/normalize"
	"github.com/yourusername/race-scanner/internal/repository"
	"github.com/yourusername/race-scanner/internal/score"
	"github.com/yourusername/race-scanner/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "market-watch",
	Short: "Track odds movement and flag steamers and drifters",
	Long: `Rescans the enabled sources on an interval, snapshots every
runner's current odds into the database and records an event whenever
a price moves sharply between snapshots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.MarketWatch.Enabled = true
	cfg.Database.Enabled = true

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logg := logger.NewLogger(cfg.App.LogLevel)
	logg.WithFields(logrus.Fields{
		"version":     Version,
		"environment": cfg.App.Environment,
		"interval":    cfg.MarketWatchInterval(),
	}).Info("Market watch starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	healthServer := health.NewServer(health.Config{
		ServiceName: "market-watch",
		Version:     Version,
		Logger:      logg,
		DB:          db,
	})
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg, logg)
	}

	scan, httpClient, err := buildScanService(cfg, logg)
	if err != nil {
		return err
	}
	defer httpClient.Close()

	watch := service.NewMarketWatchService(
		repository.NewPostgresOddsRepository(db),
		repository.NewPostgresMarketEventRepository(db),
		service.MarketWatchConfig{
			SteamThreshold: cfg.MarketWatch.SteamThreshold,
			DriftThreshold: cfg.MarketWatch.DriftThreshold,
		},
		logg,
	)

	healthServer.SetReady(true)

	scanToday := func(ctx context.Context) ([]*models.Race, error) {
		start := time.Now().UTC().Truncate(24 * time.Hour)
		result, err := scan.Run(ctx, start, start)
		if err != nil {
			return nil, err
		}
		healthServer.RecordScan(time.Now().UTC())
		return result.Races, nil
	}

	err = watch.Watch(ctx, cfg.MarketWatchInterval(), scanToday)
	if err == context.Canceled {
		logg.Info("Market watch stopped")
		return nil
	}
	return err
}

// buildScanService wires a scan pipeline without enrichment or reports;
// market watch only needs the merged, priced race set.
func buildScanService(cfg *config.Config, logg *logrus.Logger) (*service.ScanService, *datasource.RateLimitedHTTPClient, error) {
	var cache *datasource.ResponseCache
	if cfg.Cache.Enabled {
		var err error
		cache, err = datasource.NewResponseCache(datasource.ResponseCacheConfig{
			Dir:        cfg.Cache.Dir,
			DefaultTTL: time.Duration(cfg.Cache.DefaultTTLMinutes) * time.Minute,
			MinTTL:     time.Duration(cfg.Cache.MinTTLMinutes) * time.Minute,
			MaxTTL:     time.Duration(cfg.Cache.MaxTTLHours) * time.Hour,
		}, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open response cache: %w", err)
		}
	}

	httpClient := datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfig{
		Timeout:         cfg.HTTPTimeout(),
		MaxRetries:      cfg.HTTP.MaxRetries,
		RetryWaitMin:    time.Duration(cfg.HTTP.RetryWaitMinMillis) * time.Millisecond,
		RetryWaitMax:    time.Duration(cfg.HTTP.RetryWaitMaxMillis) * time.Millisecond,
		RateLimit:       cfg.HTTP.RateLimit,
		MinHostInterval: time.Duration(cfg.HTTP.HostIntervalMillis) * time.Millisecond,
		UserAgent:       cfg.HTTP.UserAgent,
	}, cache, logg)

	factory := datasource.NewFactory(logg)
	adapters, err := factory.NewAdapters(cfg.Sources, httpClient)
	if err != nil {
		httpClient.Close()
		return nil, nil, err
	}

	norm := normalize.New(normalize.WithTimezoneTables(cfg.Timezones.Tracks, cfg.Timezones.Countries))
	aggregator := aggregate.New(norm, logg)
	scorer := score.New(score.Weights{
		FieldSize:   cfg.Scoring.FieldSizeWeight,
		OddsValue:   cfg.Scoring.OddsValueWeight,
		OddsSpread:  cfg.Scoring.OddsSpreadWeight,
		DataQuality: cfg.Scoring.DataQualityWeight,
	})

	return service.NewScanService(adapters, aggregator, nil, nil, scorer, logg), httpClient, nil
}

func startMetricsServer(cfg *config.Config, logg *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logg.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.WithError(err).Error("Metrics server error")
		}
	}()
}
