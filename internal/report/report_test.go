package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-scanner/internal/aggregate"
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/service"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func pickRace() *models.Race {
	return &models.Race{
		ID:          "abc123def456",
		Course:      "Ascot",
		Country:     "GB",
		Discipline:  models.DisciplineThoroughbred,
		FieldSize:   6,
		TimeLocal:   "14:05",
		UTCDateTime: time.Date(2026, 8, 26, 13, 5, 0, 0, time.UTC),
		Favorite: &models.RunnerOdds{
			Name: "Front Runner", OddsString: "2/1", OddsFractional: 2.0,
		},
		SecondFavorite: &models.RunnerOdds{
			Name: "Chaser", OddsString: "4/1", OddsFractional: 4.0,
		},
		DataSources: map[string]string{"course": "ATR", "odds": "ATR"},
		RaceURL:     "https://example.com/racecard",
		ValueScore:  72.5,
	}
}

func sampleResult(races ...*models.Race) *service.ScanResult {
	return &service.ScanResult{
		RunID:        "run-1",
		GeneratedAt:  time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Races:        races,
		Stats:        aggregate.Stats{Input: 4, Merged: 1, Output: len(races)},
		SourceCounts: map[string]int{"ATR": 4},
	}
}

func TestFiltersMatch(t *testing.T) {
	filters := DefaultFilters()

	race := pickRace()
	assert.True(t, filters.Matches(race))

	big := pickRace()
	big.FieldSize = 14
	assert.False(t, filters.Matches(big))

	shortFav := pickRace()
	shortFav.Favorite.OddsFractional = 0.5
	assert.False(t, filters.Matches(shortFav))

	tightSecond := pickRace()
	tightSecond.SecondFavorite.OddsFractional = 2.0
	assert.False(t, filters.Matches(tightSecond))

	unpriced := pickRace()
	unpriced.Favorite = nil
	assert.False(t, filters.Matches(unpriced))
}

func TestHTMLWriter(t *testing.T) {
	writer := NewHTMLWriter("Test Card", DefaultFilters())
	var buf bytes.Buffer

	require.NoError(t, writer.Write(&buf, sampleResult(pickRace())))

	html := buf.String()
	assert.Contains(t, html, "Test Card")
	assert.Contains(t, html, "Ascot")
	assert.Contains(t, html, "Front Runner")
	assert.Contains(t, html, `class="badge"`)
	assert.Contains(t, html, "72.5")
}

func TestHTMLWriterEscapes(t *testing.T) {
	race := pickRace()
	race.Course = "<script>alert(1)</script>"

	writer := NewHTMLWriter("", DefaultFilters())
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, sampleResult(race)))
	assert.NotContains(t, buf.String(), "<script>alert")
}

func TestJSONWriter(t *testing.T) {
	writer := NewJSONWriter(DefaultFilters())
	var buf bytes.Buffer

	require.NoError(t, writer.Write(&buf, sampleResult(pickRace())))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.EqualValues(t, 1, doc["race_count"])
	assert.EqualValues(t, 1, doc["pick_count"])

	races := doc["races"].([]any)
	require.Len(t, races, 1)
	assert.Equal(t, true, races[0].(map[string]any)["pick"])
}

func TestCSVWriter(t *testing.T) {
	writer := NewCSVWriter(DefaultFilters())
	var buf bytes.Buffer

	require.NoError(t, writer.Write(&buf, sampleResult(pickRace())))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Ascot", rows[1][0])
	assert.Equal(t, "Front Runner", rows[1][7])
	assert.Equal(t, "true", rows[1][12])
}

func TestGeneratorWritesConfiguredFormats(t *testing.T) {
	logger := testLogger()
	dir := t.TempDir()

	gen, err := NewGenerator(dir, []string{"html", "csv"}, "", DefaultFilters(), logger)
	require.NoError(t, err)

	paths, err := gen.Generate(sampleResult(pickRace()))
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], ".html"))
	assert.True(t, strings.HasSuffix(paths[1], ".csv"))
}

func TestGeneratorRejectsUnknownFormat(t *testing.T) {
	_, err := NewGenerator(t.TempDir(), []string{"pdf"}, "", DefaultFilters(), testLogger())
	require.Error(t, err)
}
