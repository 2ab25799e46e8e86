// Package main provides the entry point for the race scanner CLI.
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
	"github.com/yourusername/race-scanner/internal/enrich"
	"github.com/yourusername/race-scanner/internal/logger"
	"github.com/yourusername/race-scanner/internal/metrics"
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/normalize"
	"github.com/yourusername/race-scanner/internal/report"
	"github.com/yourusername/race-scanner/internal/repository"
	"github.com/yourusername/race-scanner/internal/scheduler"
	"github.com/yourusername/race-scanner/internal/score"
	"github.com/yourusername/race-scanner/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var (
	configFile string
	days       int
	formats    []string
	outputDir  string
	noCache    bool
	daemonMode bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().IntVar(&days, "days", 0, "Days ahead to scan (overrides config)")
	rootCmd.Flags().StringSliceVar(&formats, "formats", nil, "Output formats: html, json, csv (overrides config)")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "Output directory (overrides config)")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the HTTP response cache")
	rootCmd.Flags().BoolVar(&daemonMode, "daemon", false, "Keep running and scan on the configured schedule")
}

var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Aggregate racing schedules and odds into a scored report",
	Long: `Fetches today's and upcoming races from every enabled source,
merges duplicate listings, attaches form guide links, scores each race
and writes HTML/JSON/CSV reports.`,
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
	applyOverrides(cfg)

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
	}).Info("Race scanner starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := buildPipeline(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg, logg)
	}

	if daemonMode {
		return runDaemon(ctx, cfg, pipeline, logg)
	}
	return pipeline.ScanOnce(ctx)
}

func applyOverrides(cfg *config.Config) {
	if days > 0 {
		cfg.Scan.DaysAhead = days
	}
	if len(formats) > 0 {
		cfg.Output.Formats = formats
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

// pipeline bundles the wired components of one scanner process.
type pipeline struct {
	scan       *service.ScanService
	generator  *report.Generator
	httpClient *datasource.RateLimitedHTTPClient
	db         *database.DB
	raceRepo   repository.RaceRepository
	daysAhead  int
	logger     *logrus.Logger
}

func buildPipeline(ctx context.Context, cfg *config.Config, logg *logrus.Logger) (*pipeline, error) {
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
			return nil, fmt.Errorf("failed to open response cache: %w", err)
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
		return nil, err
	}

	norm := normalize.New(normalize.WithTimezoneTables(cfg.Timezones.Tracks, cfg.Timezones.Countries))
	aggregator := aggregate.New(norm, logg)

	var directory *enrich.Provider
	var enricher *enrich.Enricher
	if cfg.Enrichment.Enabled {
		directory = enrich.NewProvider(httpClient, cfg.Enrichment.FeedURL, norm, logg)
		enricher = enrich.New(norm, logg)
	}

	scorer := score.New(score.Weights{
		FieldSize:   cfg.Scoring.FieldSizeWeight,
		OddsValue:   cfg.Scoring.OddsValueWeight,
		OddsSpread:  cfg.Scoring.OddsSpreadWeight,
		DataQuality: cfg.Scoring.DataQualityWeight,
	})

	scan := service.NewScanService(adapters, aggregator, enricher, directory, scorer, logg)

	filters := report.Filters{
		MaxFieldSize:          cfg.Filters.MaxFieldSize,
		MinFavoriteOdds:       cfg.Filters.MinFavoriteOdds,
		MinSecondFavoriteOdds: cfg.Filters.MinSecondFavoriteOdds,
	}
	generator, err := report.NewGenerator(cfg.Output.Dir, cfg.Output.Formats, cfg.Output.Title, filters, logg)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		scan:       scan,
		generator:  generator,
		httpClient: httpClient,
		daysAhead:  cfg.Scan.DaysAhead,
		logger:     logg,
	}

	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		p.db = db
		p.raceRepo = repository.NewPostgresRaceRepository(db)
	}

	return p, nil
}

// ScanOnce runs one scan, writes the reports, and persists the races when
// the database is configured.
func (p *pipeline) ScanOnce(ctx context.Context) error {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, p.daysAhead-1)

	result, err := p.scan.Run(ctx, start, end)
	if err != nil {
		return err
	}

	if _, err := p.generator.Generate(result); err != nil {
		return err
	}

	if p.raceRepo != nil {
		races := make([]models.Race, 0, len(result.Races))
		for _, r := range result.Races {
			races = append(races, *r)
		}
		if err := p.raceRepo.UpsertAll(ctx, races); err != nil {
			p.logger.WithError(err).Warn("Failed to persist races")
		}
	}

	return nil
}

func (p *pipeline) Close() {
	p.httpClient.Close()
	if p.db != nil {
		p.db.Close()
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, p *pipeline, logg *logrus.Logger) error {
	schedule := cfg.Scan.Schedule
	if schedule == "" {
		schedule = "0 * * * *"
	}

	sched := scheduler.NewScheduler(p.ScanOnce, logg)
	if err := sched.ScheduleScan(schedule); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// First scan immediately, then follow the schedule.
	if err := p.ScanOnce(ctx); err != nil {
		logg.WithError(err).Error("Initial scan failed")
	}

	<-ctx.Done()
	return nil
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
