package datasource

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
)

// ATRName is the provenance tag for At The Races records.
const ATRName = "ATR"

var atrTimeRe = regexp.MustCompile(`^(\d{2}:\d{2})`)

// atrRegionCountries maps ATR region slugs to ISO-ish country codes.
var atrRegionCountries = map[string]string{
	"uk":      "GB",
	"ireland": "IE",
	"usa":     "US",
	"france":  "FR",
	"saf":     "ZA",
	"aus":     "AU",
}

// ATRClient scrapes the At The Races market movers endpoint, which lists
// every race of the day per region with current odds.
type ATRClient struct {
	client  *RateLimitedHTTPClient
	baseURL string
	regions []string
	enabled bool
	logger  *logrus.Logger
}

// NewATRClient creates the At The Races adapter. Empty regions default to
// the full set the endpoint serves.
func NewATRClient(client *RateLimitedHTTPClient, baseURL string, regions []string, enabled bool, logger *logrus.Logger) *ATRClient {
	if baseURL == "" {
		baseURL = "https://www.attheraces.com"
	}
	if len(regions) == 0 {
		regions = []string{"uk", "ireland", "usa", "france", "saf", "aus"}
	}
	return &ATRClient{client: client, baseURL: baseURL, regions: regions, enabled: enabled, logger: logger}
}

// Name returns the adapter's provenance tag.
func (c *ATRClient) Name() string { return ATRName }

// IsEnabled reports whether this adapter is currently enabled.
func (c *ATRClient) IsEnabled() bool { return c.enabled }

// FetchRaces pulls the market movers page per region per day and parses
// each race table. A failed region is skipped; only a run with zero
// successful regions reports an error.
func (c *ATRClient) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	if !c.enabled {
		return []models.RawRace{}, models.ErrSourceDisabled
	}

	var out []models.RawRace
	var lastErr error
	fetched := 0

	for _, day := range daysBetween(start, end) {
		for _, region := range c.regions {
			url := fmt.Sprintf("%s/ajax/marketmovers/tabs/%s/%s", c.baseURL, region, day.Format("20060102"))
			body, err := c.client.FetchText(ctx, url)
			if err != nil {
				lastErr = NewSourceError(ATRName, ErrCodeNetworkError, "region fetch failed", err)
				c.logger.WithError(err).WithField("region", region).Debug("ATR region fetch failed")
				continue
			}
			fetched++
			races, err := c.parseRegion(body, region, day)
			if err != nil {
				c.logger.WithError(err).WithField("region", region).Debug("ATR region parse failed")
				continue
			}
			out = append(out, races...)
		}
	}

	if fetched == 0 && lastErr != nil {
		return []models.RawRace{}, lastErr
	}
	return out, nil
}

// parseRegion walks every race caption in a region page. A caption that
// fails to parse is skipped, never fatal.
func (c *ATRClient) parseRegion(body, region string, day time.Time) ([]models.RawRace, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, NewSourceError(ATRName, ErrCodeInvalidData, "unparsable region page", err)
	}

	var races []models.RawRace
	doc.Find("caption").Each(func(_ int, caption *goquery.Selection) {
		if race, ok := c.parseCaption(caption, region, day); ok {
			races = append(races, race)
		}
	})
	return races, nil
}

func (c *ATRClient) parseCaption(caption *goquery.Selection, region string, day time.Time) (models.RawRace, bool) {
	m := atrTimeRe.FindStringSubmatch(strings.TrimSpace(caption.Text()))
	if m == nil {
		return models.RawRace{}, false
	}
	raceTime := m[1]

	panel := caption.Closest("div.panel")
	if panel.Length() == 0 {
		panel = caption.Closest("div")
	}
	course := strings.TrimSpace(panel.Find("h2").First().Text())
	if course == "" {
		return models.RawRace{}, false
	}

	table := caption.Parent()
	var runners []models.Runner
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		if name == "" {
			return
		}
		runners = append(runners, models.Runner{
			Name:       name,
			OddsString: strings.TrimSpace(cells.Eq(1).Text()),
		})
	})
	if len(runners) == 0 {
		return models.RawRace{}, false
	}

	country := atrRegionCountries[region]
	if country == "" {
		country = "GB"
	}

	courseSlug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(course)), " ", "-")
	raceURL := fmt.Sprintf("%s/racecard/%s/%s/%s",
		c.baseURL, courseSlug, day.Format("2006-01-02"), strings.ReplaceAll(raceTime, ":", ""))

	return models.RawRace{
		Course:     course,
		Date:       day,
		Time:       raceTime,
		FieldSize:  len(runners),
		Runners:    runners,
		SourceID:   ATRName,
		Discipline: models.DisciplineThoroughbred,
		Country:    country,
		RaceURL:    raceURL,
		DataSources: map[string]string{
			"course":  ATRName,
			"runners": ATRName,
			"odds":    ATRName,
		},
	}, true
}
