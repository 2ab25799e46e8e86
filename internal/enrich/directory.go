package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/normalize"
)

// SourceTag is the provenance tag recorded for directory-sourced links.
const SourceTag = "R&S"

// DefaultFeedURL is the Racing & Sports daily meeting directory.
const DefaultFeedURL = "https://www.racingandsports.com.au/todays-racing-json-v2"

var linkDateRe = regexp.MustCompile(`/(\d{4}-\d{2}-\d{2})`)

// feed JSON shape: a list of disciplines, each with countries and meetings.
type feedDiscipline struct {
	Countries []feedCountry `json:"Countries"`
}

type feedCountry struct {
	Meetings []feedMeeting `json:"Meetings"`
}

type feedMeeting struct {
	Course        string `json:"Course"`
	PDFUrl        string `json:"PDFUrl"`
	PreMeetingUrl string `json:"PreMeetingUrl"`
}

// ParseFeed builds a Directory from the raw Racing & Sports JSON payload.
// Meetings without a course, link, or dated link are skipped. The supplied
// normalizer must be the one the Enricher will match with.
func ParseFeed(data []byte, norm *normalize.Normalizer) (Directory, error) {
	var disciplines []feedDiscipline
	if err := json.Unmarshal(data, &disciplines); err != nil {
		return nil, fmt.Errorf("failed to parse form guide feed: %w", err)
	}

	dir := make(Directory)
	for _, disc := range disciplines {
		for _, country := range disc.Countries {
			for _, meeting := range country.Meetings {
				link := meeting.PDFUrl
				if link == "" {
					link = meeting.PreMeetingUrl
				}
				if meeting.Course == "" || link == "" {
					continue
				}
				m := linkDateRe.FindStringSubmatch(link)
				if m == nil {
					continue
				}
				key := DirectoryKey{
					Course: norm.NormalizeCourse(meeting.Course),
					Date:   m[1],
				}
				dir[key] = Entry{URL: link, Source: SourceTag}
			}
		}
	}
	return dir, nil
}

// Fetcher is the fetch capability the directory provider needs; satisfied
// by the datasource HTTP client.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Provider fetches and parses the directory feed once per scan run.
type Provider struct {
	fetcher Fetcher
	feedURL string
	norm    *normalize.Normalizer
	logger  *logrus.Logger
}

// NewProvider creates a directory provider. An empty feedURL selects the
// default Racing & Sports endpoint.
func NewProvider(fetcher Fetcher, feedURL string, norm *normalize.Normalizer, logger *logrus.Logger) *Provider {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Provider{fetcher: fetcher, feedURL: feedURL, norm: norm, logger: logger}
}

// Load fetches the feed and builds the directory. Failures are reported
// as an empty directory plus the error; enrichment is best-effort and the
// caller proceeds without links.
func (p *Provider) Load(ctx context.Context) (Directory, error) {
	body, err := p.fetcher.FetchText(ctx, p.feedURL)
	if err != nil {
		return Directory{}, fmt.Errorf("failed to fetch form guide feed: %w", err)
	}
	dir, err := ParseFeed([]byte(body), p.norm)
	if err != nil {
		return Directory{}, err
	}
	p.logger.WithField("entries", len(dir)).Debug("Built form guide directory")
	return dir, nil
}
