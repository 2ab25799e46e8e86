package aggregate

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/normalize"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestAggregator() *Aggregator {
	return New(normalize.New(), testLogger())
}

func rawRace(course, hhmm string, fieldSize int, sourceID string, sources map[string]string) models.RawRace {
	return models.RawRace{
		Course:      course,
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Time:        hhmm,
		FieldSize:   fieldSize,
		SourceID:    sourceID,
		Country:     "GB",
		Discipline:  models.DisciplineThoroughbred,
		DataSources: sources,
	}
}

func TestAggregateDedupAcrossTwoSources(t *testing.T) {
	agg := newTestAggregator()

	a := rawRace("Ascot", "14:05", 5, "ATR", map[string]string{"course": "ATR"})
	b := rawRace("ascot", "14:07", 6, "SL", map[string]string{"course": "SL", "odds": "SL"})

	races, stats := agg.Aggregate([]models.RawRace{a, b})

	require.Len(t, races, 1)
	assert.Equal(t, 1, stats.Merged)
	merged := races[0]
	// B has the richer data_sources map, so it is primary
	assert.Equal(t, 6, merged.FieldSize)
	assert.Equal(t, "ascot", merged.Course)
	assert.Equal(t, "SL", merged.DataSources["odds"])
	assert.Equal(t, "SL", merged.DataSources["course"])
}

func TestAggregateNoFalseMergeAcrossBuckets(t *testing.T) {
	agg := newTestAggregator()

	// 14:04 rounds to 14:00, 14:10 rounds to 14:10
	a := rawRace("Ascot", "14:04", 5, "ATR", nil)
	b := rawRace("Ascot", "14:10", 6, "SL", nil)

	races, stats := agg.Aggregate([]models.RawRace{a, b})
	assert.Len(t, races, 2)
	assert.Equal(t, 0, stats.Merged)
}

func TestMergeIdempotence(t *testing.T) {
	agg := newTestAggregator()

	raw := rawRace("Ascot", "14:05", 5, "ATR", map[string]string{"course": "ATR", "odds": "ATR"})
	raw.Runners = []models.Runner{
		{Name: "Alpha", OddsString: "5/2"},
		{Name: "Beta", OddsString: "EVS"},
	}
	raw.RaceURL = "https://example.com/race"

	single, _ := agg.Aggregate([]models.RawRace{raw})
	doubled, _ := agg.Aggregate([]models.RawRace{raw, raw})

	require.Len(t, single, 1)
	require.Len(t, doubled, 1)
	assert.Equal(t, single[0], doubled[0])
}

func TestMergeFieldSizeMonotonic(t *testing.T) {
	agg := newTestAggregator()
	for _, tt := range []struct{ a, b, want int }{
		{5, 6, 6}, {6, 5, 6}, {4, 4, 4}, {0, 3, 3},
	} {
		races, _ := agg.Aggregate([]models.RawRace{
			rawRace("Ascot", "14:05", tt.a, "ATR", nil),
			rawRace("Ascot", "14:06", tt.b, "SL", nil),
		})
		require.Len(t, races, 1)
		assert.Equal(t, tt.want, races[0].FieldSize)
	}
}

func TestMergeRunnerListWholesale(t *testing.T) {
	agg := newTestAggregator()

	a := rawRace("Ascot", "14:05", 3, "ATR", map[string]string{"course": "ATR", "odds": "ATR"})
	a.Runners = []models.Runner{{Name: "Alpha", OddsString: "2/1"}}
	b := rawRace("Ascot", "14:05", 3, "SL", map[string]string{"course": "SL"})
	b.Runners = []models.Runner{
		{Name: "Alpha", OddsString: "5/2"},
		{Name: "Beta", OddsString: "3/1"},
		{Name: "Gamma", OddsString: "10/1"},
	}

	races, _ := agg.Aggregate([]models.RawRace{a, b})
	require.Len(t, races, 1)
	// secondary's longer list wins wholesale, no interleaving
	require.Len(t, races[0].AllRunners, 3)
	assert.Equal(t, "Beta", races[0].AllRunners[1].Name)
	assert.Equal(t, 3, races[0].FieldSize)
}

func TestAggregateDropsMalformed(t *testing.T) {
	agg := newTestAggregator()

	noCourse := rawRace("", "14:05", 5, "ATR", nil)
	noDate := rawRace("Ascot", "14:05", 5, "ATR", nil)
	noDate.Date = time.Time{}
	good := rawRace("Ascot", "14:05", 5, "ATR", nil)

	races, stats := agg.Aggregate([]models.RawRace{noCourse, noDate, good})
	assert.Len(t, races, 1)
	assert.Equal(t, 2, stats.Malformed)
}

func TestFavoriteOrdering(t *testing.T) {
	runners := []models.Runner{
		{Name: "Alpha", OddsString: "5/2"},
		{Name: "Beta", OddsString: "EVS"},
		{Name: "Gamma", OddsString: "SP"},
		{Name: "Delta", OddsString: "10/1"},
	}

	fav, second := Favorites(runners)
	require.NotNil(t, fav)
	require.NotNil(t, second)
	assert.Equal(t, "Beta", fav.Name)
	assert.InDelta(t, 1.0, fav.OddsFractional, 1e-9)
	assert.Equal(t, "Alpha", second.Name)
	assert.InDelta(t, 2.5, second.OddsFractional, 1e-9)
	assert.LessOrEqual(t, fav.OddsFractional, second.OddsFractional)
}

func TestFavoritesTieBrokenByCardOrder(t *testing.T) {
	runners := []models.Runner{
		{Name: "First", OddsString: "2/1"},
		{Name: "Second", OddsString: "2/1"},
	}
	fav, second := Favorites(runners)
	require.NotNil(t, fav)
	require.NotNil(t, second)
	assert.Equal(t, "First", fav.Name)
	assert.Equal(t, "Second", second.Name)
}

func TestFavoritesAllUnpriced(t *testing.T) {
	fav, second := Favorites([]models.Runner{
		{Name: "Alpha", OddsString: "SP"},
		{Name: "Beta"},
	})
	assert.Nil(t, fav)
	assert.Nil(t, second)
}

func TestLiftComputesUTCFromTrackTimezone(t *testing.T) {
	agg := newTestAggregator()

	raw := rawRace("Ascot", "14:05", 5, "ATR", nil)
	races, _ := agg.Aggregate([]models.RawRace{raw})
	require.Len(t, races, 1)

	r := races[0]
	assert.Equal(t, "Europe/London", r.TimezoneName)
	// 2024-05-01 is BST (UTC+1)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 5, 0, 0, time.UTC), r.UTCDateTime)
	assert.Equal(t, "14:05", r.TimeLocal)
	assert.Len(t, r.ID, 12)
}
