package enrich

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

func raceAt(course string) *models.Race {
	return &models.Race{
		Course:       course,
		TimezoneName: "UTC",
		UTCDateTime:  time.Date(2024, 5, 1, 14, 5, 0, 0, time.UTC),
		DataSources:  map[string]string{"course": "ATR"},
	}
}

func TestEnrichExactMatch(t *testing.T) {
	norm := normalize.New()
	e := New(norm, testLogger())

	dir := Directory{
		{Course: "ascot", Date: "2024-05-01"}: {URL: "https://rs.example/ascot/2024-05-01", Source: SourceTag},
	}
	race := raceAt("Ascot")

	matched := e.Enrich([]*models.Race{race}, dir)
	assert.Equal(t, 1, matched)
	assert.Equal(t, "https://rs.example/ascot/2024-05-01", race.FormGuideURL)
	assert.Equal(t, SourceTag, race.DataSources["form"])
}

func TestEnrichSubstringFallback(t *testing.T) {
	norm := normalize.New()
	e := New(norm, testLogger())

	dir := Directory{
		{Course: "ascot racecourse", Date: "2024-05-01"}: {URL: "https://rs.example/ascot", Source: SourceTag},
	}
	race := raceAt("Ascot")

	matched := e.Enrich([]*models.Race{race}, dir)
	assert.Equal(t, 1, matched)
	assert.Equal(t, "https://rs.example/ascot", race.FormGuideURL)
}

func TestEnrichNoMatchOnDifferentDate(t *testing.T) {
	norm := normalize.New()
	e := New(norm, testLogger())

	dir := Directory{
		{Course: "ascot", Date: "2024-05-02"}: {URL: "https://rs.example/ascot", Source: SourceTag},
	}
	race := raceAt("Ascot")

	assert.Equal(t, 0, e.Enrich([]*models.Race{race}, dir))
	assert.Empty(t, race.FormGuideURL)
}

func TestEnrichAtMostOnce(t *testing.T) {
	norm := normalize.New()
	e := New(norm, testLogger())

	dir := Directory{
		{Course: "ascot", Date: "2024-05-01"}: {URL: "https://rs.example/first", Source: SourceTag},
	}
	race := raceAt("Ascot")

	e.Enrich([]*models.Race{race}, dir)
	require.Equal(t, "https://rs.example/first", race.FormGuideURL)

	// second pass with a different URL must not overwrite
	dir[DirectoryKey{Course: "ascot", Date: "2024-05-01"}] = Entry{URL: "https://rs.example/second", Source: SourceTag}
	matched := e.Enrich([]*models.Race{race}, dir)
	assert.Equal(t, 0, matched)
	assert.Equal(t, "https://rs.example/first", race.FormGuideURL)
}

func TestEnrichUsesRaceLocalDate(t *testing.T) {
	norm := normalize.New()
	e := New(norm, testLogger())

	// 23:30 UTC on April 30 is already May 1 in Sydney
	race := &models.Race{
		Course:       "Randwick",
		TimezoneName: "Australia/Sydney",
		UTCDateTime:  time.Date(2024, 4, 30, 23, 30, 0, 0, time.UTC),
		DataSources:  map[string]string{},
	}
	dir := Directory{
		{Course: "randwick", Date: "2024-05-01"}: {URL: "https://rs.example/randwick", Source: SourceTag},
	}

	assert.Equal(t, 1, e.Enrich([]*models.Race{race}, dir))
	assert.Equal(t, "https://rs.example/randwick", race.FormGuideURL)
}

func TestParseFeed(t *testing.T) {
	norm := normalize.New()
	payload := []byte(`[
		{"Countries": [
			{"Meetings": [
				{"Course": "Ascot", "PDFUrl": "https://rs.example/form/2024-05-01/ascot.pdf"},
				{"Course": "Epsom", "PDFUrl": "", "PreMeetingUrl": "https://rs.example/pre/2024-05-01/epsom"},
				{"Course": "Nowhere", "PDFUrl": "https://rs.example/undated"},
				{"Course": "", "PDFUrl": "https://rs.example/form/2024-05-01/blank.pdf"}
			]}
		]}
	]`)

	dir, err := ParseFeed(payload, norm)
	require.NoError(t, err)
	require.Len(t, dir, 2)

	entry, ok := dir[DirectoryKey{Course: "ascot", Date: "2024-05-01"}]
	require.True(t, ok)
	assert.Equal(t, "https://rs.example/form/2024-05-01/ascot.pdf", entry.URL)
	assert.Equal(t, SourceTag, entry.Source)

	_, ok = dir[DirectoryKey{Course: "epsom", Date: "2024-05-01"}]
	assert.True(t, ok)
}

func TestParseFeedMalformed(t *testing.T) {
	_, err := ParseFeed([]byte("not json"), normalize.New())
	assert.Error(t, err)
}
