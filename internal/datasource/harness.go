package datasource

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
)

// HarnessName is the provenance tag for Harness Racing Australia records.
const HarnessName = "HRA"

// Caption form: "Race 3 - 14:05 Pace MS"
var harnessCaptionRe = regexp.MustCompile(`Race\s+(\d+)\s*-\s*(\d{1,2}:\d{2})`)

// HarnessClient scrapes the Harness Racing Australia daily race fields
// page. One page lists every meeting of the day with its races and
// declared runners; prices are not published there, so records carry
// schedule and field data only.
type HarnessClient struct {
	client  *RateLimitedHTTPClient
	baseURL string
	enabled bool
	logger  *logrus.Logger
}

// NewHarnessClient creates the Harness Racing Australia adapter.
func NewHarnessClient(client *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *HarnessClient {
	if baseURL == "" {
		baseURL = "https://www.harness.org.au"
	}
	return &HarnessClient{client: client, baseURL: baseURL, enabled: enabled, logger: logger}
}

// Name returns the adapter's provenance tag.
func (c *HarnessClient) Name() string { return HarnessName }

// IsEnabled reports whether this adapter is currently enabled.
func (c *HarnessClient) IsEnabled() bool { return c.enabled }

// FetchRaces pulls the race fields page for each day of the range.
func (c *HarnessClient) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	if !c.enabled {
		return []models.RawRace{}, models.ErrSourceDisabled
	}

	var out []models.RawRace
	var lastErr error
	fetched := 0

	for _, day := range daysBetween(start, end) {
		url := fmt.Sprintf("%s/racing/fields/race-fields/?firstDate=%s", c.baseURL, day.Format("2006-01-02"))
		body, err := c.client.FetchText(ctx, url)
		if err != nil {
			lastErr = NewSourceError(HarnessName, ErrCodeNetworkError, "race fields fetch failed", err)
			c.logger.WithError(err).WithField("date", day.Format("2006-01-02")).Debug("HRA fetch failed")
			continue
		}
		fetched++

		races, err := c.parseDay(body, day)
		if err != nil {
			c.logger.WithError(err).Debug("HRA parse failed")
			continue
		}
		out = append(out, races...)
	}

	if fetched == 0 && lastErr != nil {
		return []models.RawRace{}, lastErr
	}
	return out, nil
}

// parseDay walks every meeting section; a race caption that fails to
// parse is skipped, never fatal.
func (c *HarnessClient) parseDay(body string, day time.Time) ([]models.RawRace, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, NewSourceError(HarnessName, ErrCodeInvalidData, "unparsable race fields page", err)
	}

	var races []models.RawRace
	doc.Find("div.meeting").Each(func(_ int, meeting *goquery.Selection) {
		course := strings.TrimSpace(meeting.Find("h2").First().Text())
		if course == "" {
			return
		}
		meeting.Find("table").Each(func(_ int, table *goquery.Selection) {
			if race, ok := c.parseRace(table, course, day); ok {
				races = append(races, race)
			}
		})
	})
	return races, nil
}

func (c *HarnessClient) parseRace(table *goquery.Selection, course string, day time.Time) (models.RawRace, bool) {
	caption := strings.TrimSpace(table.Find("caption").First().Text())
	m := harnessCaptionRe.FindStringSubmatch(caption)
	if m == nil {
		return models.RawRace{}, false
	}
	raceNumber, _ := strconv.Atoi(m[1])
	raceTime := m[2]
	if len(raceTime) == 4 {
		raceTime = "0" + raceTime
	}

	var runners []models.Runner
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(1).Text())
		if name == "" {
			return
		}
		runners = append(runners, models.Runner{Name: name})
	})
	if len(runners) == 0 {
		return models.RawRace{}, false
	}

	return models.RawRace{
		Course:     course,
		Date:       day,
		Time:       raceTime,
		FieldSize:  len(runners),
		Runners:    runners,
		SourceID:   HarnessName,
		Discipline: models.DisciplineHarness,
		Country:    "AU",
		RaceNumber: raceNumber,
		RaceURL:    fmt.Sprintf("%s/racing/fields/race-fields/?firstDate=%s", c.baseURL, day.Format("2006-01-02")),
		DataSources: map[string]string{
			"course":  HarnessName,
			"runners": HarnessName,
		},
	}, true
}
