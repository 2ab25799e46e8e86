package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
)

// RPB2BName is the provenance tag for the North American racecards API.
const RPB2BName = "RPB2B"

// rpMeeting is one meeting in the daily racecards payload. The endpoint
// covers USA/Canada only and carries no odds, which makes it the
// schedule-of-record fallback when the odds-bearing sources are down.
type rpMeeting struct {
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Races       []rpRace `json:"races"`
}

type rpRace struct {
	DatetimeUTC     string `json:"datetimeUtc"`
	NumberOfRunners *int   `json:"numberOfRunners"`
	RaceNumber      int    `json:"raceNumber"`
}

// RPB2BClient consumes the rpb2b.com daily racecards JSON API.
type RPB2BClient struct {
	client  *RateLimitedHTTPClient
	baseURL string
	enabled bool
	logger  *logrus.Logger
}

// NewRPB2BClient creates the North American racecards adapter.
func NewRPB2BClient(client *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *RPB2BClient {
	if baseURL == "" {
		baseURL = "https://backend-us-racecards.widget.rpb2b.com/v2/racecards/daily"
	}
	return &RPB2BClient{client: client, baseURL: baseURL, enabled: enabled, logger: logger}
}

// Name returns the adapter's provenance tag.
func (c *RPB2BClient) Name() string { return RPB2BName }

// IsEnabled reports whether this adapter is currently enabled.
func (c *RPB2BClient) IsEnabled() bool { return c.enabled }

// FetchRaces requests one daily payload per day of the range.
func (c *RPB2BClient) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	if !c.enabled {
		return []models.RawRace{}, models.ErrSourceDisabled
	}

	var out []models.RawRace
	var lastErr error
	fetched := 0

	for _, day := range daysBetween(start, end) {
		url := fmt.Sprintf("%s/%s", c.baseURL, day.Format("2006-01-02"))
		body, err := c.client.FetchText(ctx, url)
		if err != nil {
			lastErr = NewSourceError(RPB2BName, ErrCodeNetworkError, "daily racecards fetch failed", err)
			c.logger.WithError(err).WithField("date", day.Format("2006-01-02")).Debug("RPB2B fetch failed")
			continue
		}
		fetched++

		races, err := c.parseDay([]byte(body), day)
		if err != nil {
			c.logger.WithError(err).Debug("RPB2B parse failed")
			continue
		}
		out = append(out, races...)
	}

	if fetched == 0 && lastErr != nil {
		return []models.RawRace{}, lastErr
	}
	return out, nil
}

func (c *RPB2BClient) parseDay(body []byte, day time.Time) ([]models.RawRace, error) {
	var meetings []rpMeeting
	if err := json.Unmarshal(body, &meetings); err != nil {
		return nil, NewSourceError(RPB2BName, ErrCodeInvalidData, "unparsable racecards payload", err)
	}

	var out []models.RawRace
	for _, meeting := range meetings {
		if meeting.Name == "" || meeting.CountryCode == "" {
			continue
		}
		slug := strings.ReplaceAll(strings.ToLower(meeting.Name), " ", "-")
		meetingURL := fmt.Sprintf("https://www.skysports.com/racing/racecards/%s/%s", slug, day.Format("2006-01-02"))

		for _, race := range meeting.Races {
			if race.DatetimeUTC == "" || race.NumberOfRunners == nil {
				continue
			}
			utc, err := time.Parse(time.RFC3339, race.DatetimeUTC)
			if err != nil {
				continue
			}
			out = append(out, models.RawRace{
				Course:       meeting.Name,
				Date:         utc.Truncate(24 * time.Hour),
				Time:         utc.Format("15:04"),
				TimezoneName: "UTC",
				FieldSize:    *race.NumberOfRunners,
				SourceID:     RPB2BName,
				Discipline:   models.DisciplineThoroughbred,
				Country:      meeting.CountryCode,
				RaceNumber:   race.RaceNumber,
				RaceURL:      meetingURL,
				DataSources: map[string]string{
					"course": RPB2BName,
					"size":   RPB2BName,
				},
			})
		}
	}
	return out, nil
}
