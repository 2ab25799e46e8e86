package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-scanner/internal/models"
)

// memOddsRepo is an in-memory OddsRepository for tests.
type memOddsRepo struct {
	snapshots map[string][]*models.OddsSnapshot
}

func newMemOddsRepo() *memOddsRepo {
	return &memOddsRepo{snapshots: make(map[string][]*models.OddsSnapshot)}
}

func (m *memOddsRepo) key(raceID, runner string) string { return raceID + "|" + runner }

func (m *memOddsRepo) Insert(ctx context.Context, s *models.OddsSnapshot) error {
	k := m.key(s.RaceID, s.RunnerName)
	m.snapshots[k] = append(m.snapshots[k], s)
	return nil
}

func (m *memOddsRepo) Latest(ctx context.Context, raceID, runner string) (*models.OddsSnapshot, error) {
	history := m.snapshots[m.key(raceID, runner)]
	if len(history) == 0 {
		return nil, models.ErrNotFound
	}
	return history[len(history)-1], nil
}

func (m *memOddsRepo) History(ctx context.Context, raceID, runner string, since time.Time) ([]*models.OddsSnapshot, error) {
	return m.snapshots[m.key(raceID, runner)], nil
}

// memEventRepo is an in-memory MarketEventRepository for tests.
type memEventRepo struct {
	events []*models.MarketEvent
}

func (m *memEventRepo) Insert(ctx context.Context, e *models.MarketEvent) error {
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, e)
	return nil
}

func (m *memEventRepo) ForRace(ctx context.Context, raceID string) ([]*models.MarketEvent, error) {
	return m.events, nil
}

func watchRace(oddsString string) []*models.Race {
	return []*models.Race{{
		ID:     "abc123def456",
		Course: "Ascot",
		AllRunners: []models.Runner{
			{Name: "Front Runner", OddsString: oddsString},
		},
	}}
}

func newWatch(oddsRepo *memOddsRepo, eventRepo *memEventRepo) *MarketWatchService {
	return NewMarketWatchService(oddsRepo, eventRepo, MarketWatchConfig{
		SteamThreshold: 0.5,
		DriftThreshold: 0.5,
	}, testLogger())
}

func TestSnapshotFirstPassNoEvents(t *testing.T) {
	oddsRepo := newMemOddsRepo()
	eventRepo := &memEventRepo{}
	watch := newWatch(oddsRepo, eventRepo)

	events, err := watch.Snapshot(context.Background(), watchRace("3/1"))
	require.NoError(t, err)
	assert.Zero(t, events)
	assert.Len(t, oddsRepo.snapshots, 1)
}

func TestSnapshotDetectsSteamer(t *testing.T) {
	oddsRepo := newMemOddsRepo()
	eventRepo := &memEventRepo{}
	watch := newWatch(oddsRepo, eventRepo)

	_, err := watch.Snapshot(context.Background(), watchRace("3/1"))
	require.NoError(t, err)

	// 3.0 -> 2.0 is a full point in, well past the threshold
	events, err := watch.Snapshot(context.Background(), watchRace("2/1"))
	require.NoError(t, err)
	assert.Equal(t, 1, events)
	require.Len(t, eventRepo.events, 1)
	assert.Equal(t, models.EventSteamer, eventRepo.events[0].Kind)
	assert.True(t, eventRepo.events[0].Delta().IsNegative())
}

func TestSnapshotDetectsDrifter(t *testing.T) {
	oddsRepo := newMemOddsRepo()
	eventRepo := &memEventRepo{}
	watch := newWatch(oddsRepo, eventRepo)

	_, err := watch.Snapshot(context.Background(), watchRace("2/1"))
	require.NoError(t, err)

	events, err := watch.Snapshot(context.Background(), watchRace("3/1"))
	require.NoError(t, err)
	assert.Equal(t, 1, events)
	require.Len(t, eventRepo.events, 1)
	assert.Equal(t, models.EventDrifter, eventRepo.events[0].Kind)
}

func TestSnapshotIgnoresSmallMoves(t *testing.T) {
	oddsRepo := newMemOddsRepo()
	eventRepo := &memEventRepo{}
	watch := newWatch(oddsRepo, eventRepo)

	_, err := watch.Snapshot(context.Background(), watchRace("2/1"))
	require.NoError(t, err)

	// 2.0 -> 9/4 (2.25) stays inside the threshold
	events, err := watch.Snapshot(context.Background(), watchRace("9/4"))
	require.NoError(t, err)
	assert.Zero(t, events)
	assert.Empty(t, eventRepo.events)
}

func TestSnapshotSkipsUnpricedRunners(t *testing.T) {
	oddsRepo := newMemOddsRepo()
	eventRepo := &memEventRepo{}
	watch := newWatch(oddsRepo, eventRepo)

	events, err := watch.Snapshot(context.Background(), watchRace("SP"))
	require.NoError(t, err)
	assert.Zero(t, events)
	assert.Empty(t, oddsRepo.snapshots)
}
