package datasource

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
)

// GreyhoundsName is the provenance tag for the UK greyhound racecards.
const GreyhoundsName = "GBGreyhounds"

var (
	greyMeetingRe = regexp.MustCompile(`^/greyhounds/racecards/[a-z0-9\-]+/\d{4}-\d{2}-\d{2}$`)
	greyRaceRe    = regexp.MustCompile(`^/greyhounds/racecards/([a-z0-9\-]+)/(\d{4}-\d{2}-\d{2})/(\d{3,4})$`)
)

// GreyhoundsClient crawls the Sporting Life greyhound racecard pages:
// the meeting index links to per-meeting pages, which link to per-race
// pages carrying the traps and prices.
type GreyhoundsClient struct {
	client  *RateLimitedHTTPClient
	baseURL string
	enabled bool
	logger  *logrus.Logger
}

// NewGreyhoundsClient creates the greyhound adapter.
func NewGreyhoundsClient(client *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *GreyhoundsClient {
	if baseURL == "" {
		baseURL = "https://www.sportinglife.com"
	}
	return &GreyhoundsClient{client: client, baseURL: baseURL, enabled: enabled, logger: logger}
}

// Name returns the adapter's provenance tag.
func (c *GreyhoundsClient) Name() string { return GreyhoundsName }

// IsEnabled reports whether this adapter is currently enabled.
func (c *GreyhoundsClient) IsEnabled() bool { return c.enabled }

// FetchRaces crawls index -> meetings -> races. The index page only lists
// the current day, so the date range is not expanded here. Any page that
// fails to fetch or parse is skipped.
func (c *GreyhoundsClient) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	if !c.enabled {
		return []models.RawRace{}, models.ErrSourceDisabled
	}

	index, err := c.client.FetchText(ctx, c.baseURL+"/greyhounds/racecards")
	if err != nil {
		return []models.RawRace{}, NewSourceError(GreyhoundsName, ErrCodeNetworkError, "meeting index fetch failed", err)
	}

	var out []models.RawRace
	for _, meetingURL := range c.collectLinks(index, greyMeetingRe) {
		body, err := c.client.FetchText(ctx, meetingURL)
		if err != nil {
			c.logger.WithError(err).WithField("url", meetingURL).Debug("Greyhound meeting fetch failed")
			continue
		}
		for _, raceURL := range c.collectLinks(body, greyRaceRe) {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			race, ok := c.fetchRace(ctx, raceURL)
			if ok {
				out = append(out, race)
			}
		}
	}
	return out, nil
}

// collectLinks extracts matching hrefs from a page, absolutized and
// deduplicated, in sorted order for deterministic crawling.
func (c *GreyhoundsClient) collectLinks(body string, re *regexp.Regexp) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if re.MatchString(href) {
			seen[c.baseURL+href] = struct{}{}
		}
	})
	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

// courseFromSlug turns a URL slug like "monmore-green" into "Monmore
// Green". Slugs are ASCII by the link patterns above.
func courseFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (c *GreyhoundsClient) fetchRace(ctx context.Context, raceURL string) (models.RawRace, bool) {
	m := greyRaceRe.FindStringSubmatch(strings.TrimPrefix(raceURL, c.baseURL))
	if m == nil {
		return models.RawRace{}, false
	}
	courseSlug, dateStr, hhmm := m[1], m[2], m[3]

	body, err := c.client.FetchText(ctx, raceURL)
	if err != nil {
		c.logger.WithError(err).WithField("url", raceURL).Debug("Greyhound race fetch failed")
		return models.RawRace{}, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return models.RawRace{}, false
	}

	var runners []models.Runner
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(1).Text())
		if name == "" {
			return
		}
		oddsStr := ""
		if cells.Length() >= 3 {
			oddsStr = strings.TrimSpace(cells.Eq(cells.Length() - 1).Text())
		}
		runners = append(runners, models.Runner{Name: name, OddsString: oddsStr})
	})
	if len(runners) == 0 {
		return models.RawRace{}, false
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return models.RawRace{}, false
	}
	if len(hhmm) == 3 {
		hhmm = "0" + hhmm
	}

	course := courseFromSlug(courseSlug)

	return models.RawRace{
		Course:       course,
		Date:         date,
		Time:         hhmm[:2] + ":" + hhmm[2:],
		TimezoneName: "Europe/London",
		FieldSize:    len(runners),
		Runners:      runners,
		SourceID:     GreyhoundsName,
		Discipline:   models.DisciplineGreyhound,
		Country:      "GB",
		RaceURL:      raceURL,
		DataSources: map[string]string{
			"course":  GreyhoundsName,
			"runners": GreyhoundsName,
			"odds":    GreyhoundsName,
		},
	}, true
}
