// Package service orchestrates the scan pipeline and the market watch
// loop on top of the lower-level packages.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/aggregate"
	"github.com/yourusername/race-scanner/internal/datasource"
	"github.com/yourusername/race-scanner/internal/enrich"
	"github.com/yourusername/race-scanner/internal/metrics"
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/score"
)

// ScanResult is the complete output of one scan run.
type ScanResult struct {
	RunID             string         `json:"run_id"`
	GeneratedAt       time.Time      `json:"generated_at"`
	Start             time.Time      `json:"start"`
	End               time.Time      `json:"end"`
	Races             []*models.Race `json:"races"`
	Stats             aggregate.Stats
	SourceCounts      map[string]int    `json:"source_counts"`
	SourceErrors      map[string]string `json:"source_errors,omitempty"`
	EnrichmentMatches int               `json:"enrichment_matches"`
	Duration          time.Duration     `json:"duration"`
}

// ScanService runs the fetch, aggregate, enrich and score pipeline.
type ScanService struct {
	adapters   []datasource.Adapter
	aggregator *aggregate.Aggregator
	enricher   *enrich.Enricher
	directory  *enrich.Provider
	scorer     *score.Scorer
	logger     *logrus.Logger
}

// NewScanService creates the scan pipeline. directory may be nil to skip
// form guide enrichment.
func NewScanService(
	adapters []datasource.Adapter,
	aggregator *aggregate.Aggregator,
	enricher *enrich.Enricher,
	directory *enrich.Provider,
	scorer *score.Scorer,
	logger *logrus.Logger,
) *ScanService {
	return &ScanService{
		adapters:   adapters,
		aggregator: aggregator,
		enricher:   enricher,
		directory:  directory,
		scorer:     scorer,
		logger:     logger,
	}
}

// fetchOutcome carries one adapter's result across the fan-out channel.
type fetchOutcome struct {
	source   string
	races    []models.RawRace
	err      error
	duration time.Duration
}

// Run executes one full scan over [start, end]. Adapters run concurrently;
// a failing adapter is recorded and excluded, it never aborts the run. On
// context cancellation the results gathered so far still flow through the
// rest of the pipeline.
func (s *ScanService) Run(ctx context.Context, start, end time.Time) (*ScanResult, error) {
	runStart := time.Now()
	runID := uuid.New().String()

	log := s.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	})
	log.Info("Scan starting")

	active := 0
	outcomes := make(chan fetchOutcome, len(s.adapters))
	for _, adapter := range s.adapters {
		if !adapter.IsEnabled() {
			continue
		}
		active++
		go func(a datasource.Adapter) {
			fetchStart := time.Now()
			races, err := a.FetchRaces(ctx, start, end)
			outcomes <- fetchOutcome{
				source:   a.Name(),
				races:    races,
				err:      err,
				duration: time.Since(fetchStart),
			}
		}(adapter)
	}
	metrics.ActiveSources.Set(float64(active))
	if active == 0 {
		return nil, models.ErrNoSourcesActive
	}

	var raws []models.RawRace
	counts := make(map[string]int)
	errs := make(map[string]string)
	for i := 0; i < active; i++ {
		outcome := <-outcomes
		metrics.SourceFetchDuration.WithLabelValues(outcome.source).Observe(outcome.duration.Seconds())
		if outcome.err != nil {
			metrics.SourceFailuresTotal.WithLabelValues(outcome.source).Inc()
			errs[outcome.source] = outcome.err.Error()
			log.WithError(outcome.err).WithField("source", outcome.source).Warn("Source fetch failed")
		}
		// A partially failed adapter may still return races.
		counts[outcome.source] = len(outcome.races)
		if len(outcome.races) > 0 {
			metrics.RacesFetchedTotal.WithLabelValues(outcome.source).Add(float64(len(outcome.races)))
			raws = append(raws, outcome.races...)
		}
	}

	races, stats := s.aggregator.Aggregate(raws)
	metrics.MalformedRecordsTotal.Add(float64(stats.Malformed))
	metrics.RacesMergedTotal.Add(float64(stats.Merged))

	matches := 0
	if s.directory != nil && s.enricher != nil {
		dir, err := s.directory.Load(ctx)
		if err != nil {
			log.WithError(err).Warn("Form guide directory unavailable")
		} else {
			matches = s.enricher.Enrich(races, dir)
			metrics.EnrichmentMatchesTotal.Add(float64(matches))
		}
	}

	s.scorer.ScoreAll(races)
	sortRaces(races)

	metrics.LastScanRaces.Set(float64(len(races)))
	metrics.ScanDuration.Observe(time.Since(runStart).Seconds())

	result := &ScanResult{
		RunID:             runID,
		GeneratedAt:       time.Now().UTC(),
		Start:             start,
		End:               end,
		Races:             races,
		Stats:             stats,
		SourceCounts:      counts,
		SourceErrors:      errs,
		EnrichmentMatches: matches,
		Duration:          time.Since(runStart),
	}

	log.WithFields(logrus.Fields{
		"races":    len(races),
		"merged":   stats.Merged,
		"dropped":  stats.Malformed,
		"enriched": matches,
		"duration": result.Duration,
	}).Info("Scan complete")

	return result, nil
}

// sortRaces orders by value score descending, start time ascending as the
// tiebreak so the report reads top-down.
func sortRaces(races []*models.Race) {
	sort.SliceStable(races, func(i, j int) bool {
		if races[i].ValueScore != races[j].ValueScore {
			return races[i].ValueScore > races[j].ValueScore
		}
		return races[i].UTCDateTime.Before(races[j].UTCDateTime)
	})
}
