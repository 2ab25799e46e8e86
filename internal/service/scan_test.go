package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-scanner/internal/aggregate"
	"github.com/yourusername/race-scanner/internal/datasource"
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/normalize"
	"github.com/yourusername/race-scanner/internal/score"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// stubAdapter is a canned data source for pipeline tests.
type stubAdapter struct {
	name    string
	races   []models.RawRace
	err     error
	enabled bool
}

func (s *stubAdapter) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	return s.races, s.err
}
func (s *stubAdapter) Name() string    { return s.name }
func (s *stubAdapter) IsEnabled() bool { return s.enabled }

func rawRace(course, hhmm, source string, fieldSize int) models.RawRace {
	return models.RawRace{
		Course:       course,
		Date:         time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		Time:         hhmm,
		TimezoneName: "Europe/London",
		FieldSize:    fieldSize,
		SourceID:     source,
		Country:      "GB",
		Runners: []models.Runner{
			{Name: "One", OddsString: "2/1"},
			{Name: "Two", OddsString: "7/2"},
		},
		DataSources: map[string]string{"course": source, "odds": source},
	}
}

func newScanService(adapters ...datasource.Adapter) *ScanService {
	norm := normalize.New()
	return NewScanService(
		adapters,
		aggregate.New(norm, testLogger()),
		nil,
		nil,
		score.New(score.DefaultWeights()),
		testLogger(),
	)
}

func TestRunMergesAcrossSources(t *testing.T) {
	a := &stubAdapter{name: "A", enabled: true, races: []models.RawRace{
		rawRace("Ascot", "14:05", "A", 5),
	}}
	b := &stubAdapter{name: "B", enabled: true, races: []models.RawRace{
		rawRace("ascot", "14:07", "B", 6),
		rawRace("Kempton", "15:00", "B", 8),
	}}

	svc := newScanService(a, b)
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	result, err := svc.Run(context.Background(), day, day)
	require.NoError(t, err)
	assert.Len(t, result.Races, 2)
	assert.Equal(t, 3, result.Stats.Input)
	assert.Equal(t, 1, result.Stats.Merged)
	assert.Equal(t, 1, result.SourceCounts["A"])
	assert.Equal(t, 2, result.SourceCounts["B"])
	assert.Empty(t, result.SourceErrors)
}

func TestRunIsolatesFailingSource(t *testing.T) {
	ok := &stubAdapter{name: "OK", enabled: true, races: []models.RawRace{
		rawRace("Ascot", "14:05", "OK", 5),
	}}
	broken := &stubAdapter{name: "Broken", enabled: true, err: errors.New("connection refused")}

	svc := newScanService(ok, broken)
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	result, err := svc.Run(context.Background(), day, day)
	require.NoError(t, err)
	assert.Len(t, result.Races, 1)
	assert.Contains(t, result.SourceErrors, "Broken")
}

func TestRunPartialResultsAlongsideError(t *testing.T) {
	// An adapter may return some races and an error together.
	partial := &stubAdapter{
		name:    "Partial",
		enabled: true,
		races:   []models.RawRace{rawRace("Ascot", "14:05", "Partial", 5)},
		err:     errors.New("second region timed out"),
	}

	svc := newScanService(partial)
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	result, err := svc.Run(context.Background(), day, day)
	require.NoError(t, err)
	assert.Len(t, result.Races, 1)
	assert.Contains(t, result.SourceErrors, "Partial")
}

// funcAdapter lets a test control fetch behavior per call.
type funcAdapter struct {
	name  string
	fetch func(ctx context.Context) ([]models.RawRace, error)
}

func (f *funcAdapter) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	return f.fetch(ctx)
}
func (f *funcAdapter) Name() string    { return f.name }
func (f *funcAdapter) IsEnabled() bool { return true }

func TestRunCancellationKeepsCollectedRaces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fast := &funcAdapter{name: "Fast", fetch: func(context.Context) ([]models.RawRace, error) {
		cancel()
		return []models.RawRace{rawRace("Ascot", "14:05", "Fast", 5)}, nil
	}}
	slow := &funcAdapter{name: "Slow", fetch: func(ctx context.Context) ([]models.RawRace, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	svc := newScanService(fast, slow)
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	result, err := svc.Run(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, result.Races, 1)
	assert.Equal(t, "Ascot", result.Races[0].Course)
	assert.Contains(t, result.SourceErrors, "Slow")
}

func TestRunNoActiveSources(t *testing.T) {
	svc := newScanService(&stubAdapter{name: "Off", enabled: false})
	day := time.Now()

	_, err := svc.Run(context.Background(), day, day)
	require.ErrorIs(t, err, models.ErrNoSourcesActive)
}

func TestRunSortsByScoreDescending(t *testing.T) {
	races := []models.RawRace{
		rawRace("Big Field", "14:00", "A", 16),
		rawRace("Small Field", "15:00", "A", 4),
	}
	svc := newScanService(&stubAdapter{name: "A", enabled: true, races: races})
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	result, err := svc.Run(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, result.Races, 2)
	assert.Equal(t, "Small Field", result.Races[0].Course)
	assert.GreaterOrEqual(t, result.Races[0].ValueScore, result.Races[1].ValueScore)
}

func TestRunSetsRunMetadata(t *testing.T) {
	svc := newScanService(&stubAdapter{name: "A", enabled: true, races: []models.RawRace{
		rawRace("Ascot", "14:05", "A", 5),
	}})
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	result, err := svc.Run(context.Background(), day, day)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.GeneratedAt.IsZero())
	assert.Positive(t, result.Duration)
}
