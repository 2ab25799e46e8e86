package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/metrics"
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/odds"
	"github.com/yourusername/race-scanner/internal/repository"
)

// MarketWatchConfig carries the movement thresholds. A runner whose odds
// shortened by at least SteamThreshold since the previous snapshot is a
// steamer; lengthened by DriftThreshold, a drifter.
type MarketWatchConfig struct {
	SteamThreshold float64
	DriftThreshold float64
}

// MarketWatchService snapshots runner odds between scans and flags sharp
// movements.
type MarketWatchService struct {
	oddsRepo  repository.OddsRepository
	eventRepo repository.MarketEventRepository
	cfg       MarketWatchConfig
	logger    *logrus.Logger
}

// NewMarketWatchService creates the market watch service.
func NewMarketWatchService(
	oddsRepo repository.OddsRepository,
	eventRepo repository.MarketEventRepository,
	cfg MarketWatchConfig,
	logger *logrus.Logger,
) *MarketWatchService {
	if cfg.SteamThreshold <= 0 {
		cfg.SteamThreshold = 0.5
	}
	if cfg.DriftThreshold <= 0 {
		cfg.DriftThreshold = 0.5
	}
	return &MarketWatchService{
		oddsRepo:  oddsRepo,
		eventRepo: eventRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// Snapshot records the current odds of every priced runner and emits
// steamer/drifter events against the previous snapshot. Returns the number
// of events detected.
func (s *MarketWatchService) Snapshot(ctx context.Context, races []*models.Race) (int, error) {
	now := time.Now().UTC()
	events := 0

	for _, race := range races {
		for i := range race.AllRunners {
			runner := &race.AllRunners[i]
			frac := odds.ToFractional(runner.OddsString)
			if !odds.IsKnown(frac) {
				continue
			}
			current := decimal.NewFromFloat(frac)

			prev, err := s.oddsRepo.Latest(ctx, race.ID, runner.Name)
			if err != nil && err != models.ErrNotFound {
				return events, err
			}

			if prev != nil && prev.Odds != nil {
				if event := s.classify(race.ID, runner.Name, *prev.Odds, current, now); event != nil {
					if err := s.eventRepo.Insert(ctx, event); err != nil {
						return events, err
					}
					metrics.MarketEventsTotal.WithLabelValues(string(event.Kind)).Inc()
					events++
					s.logger.WithFields(logrus.Fields{
						"race":   race.ID,
						"runner": runner.Name,
						"kind":   event.Kind,
						"from":   prev.Odds.String(),
						"to":     current.String(),
					}).Info("Market move detected")
				}
			}

			snapshot := &models.OddsSnapshot{
				RaceID:     race.ID,
				RunnerName: runner.Name,
				Odds:       &current,
				Time:       now,
			}
			if err := s.oddsRepo.Insert(ctx, snapshot); err != nil {
				return events, err
			}
		}
	}

	return events, nil
}

// classify compares consecutive snapshots against the thresholds.
func (s *MarketWatchService) classify(raceID, runner string, from, to decimal.Decimal, now time.Time) *models.MarketEvent {
	delta, _ := to.Sub(from).Float64()

	var kind models.MarketEventKind
	switch {
	case delta <= -s.cfg.SteamThreshold:
		kind = models.EventSteamer
	case delta >= s.cfg.DriftThreshold:
		kind = models.EventDrifter
	default:
		return nil
	}

	return &models.MarketEvent{
		RaceID:     raceID,
		RunnerName: runner,
		Kind:       kind,
		FromOdds:   &from,
		ToOdds:     &to,
		Time:       now,
	}
}

// Watch runs scan-and-snapshot on a fixed interval until the context is
// cancelled. scan produces the current race set; a failed cycle is logged
// and the loop continues.
func (s *MarketWatchService) Watch(ctx context.Context, interval time.Duration, scan func(context.Context) ([]*models.Race, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		races, err := scan(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Market watch scan failed")
		} else if _, err := s.Snapshot(ctx, races); err != nil {
			s.logger.WithError(err).Warn("Market watch snapshot failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
