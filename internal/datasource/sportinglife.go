package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
)

// SportingLifeName is the provenance tag for Sporting Life records.
const SportingLifeName = "SportingLife"

// slRaceDay is the daily racecard payload from the Sporting Life horse
// racing API.
type slRaceDay struct {
	Races []slRace `json:"races"`
}

type slRace struct {
	RaceSummary slRaceSummary `json:"race_summary"`
	Rides       []slRide      `json:"rides"`
}

type slRaceSummary struct {
	CourseName  string `json:"course_name"`
	CountryCode string `json:"country_code"`
	Date        string `json:"date"` // "2006-01-02"
	Time        string `json:"time"` // "15:04"
	RaceNumber  int    `json:"race_number"`
	RideCount   int    `json:"ride_count"`
	URL         string `json:"race_url"`
}

type slRide struct {
	Horse   slHorse `json:"horse"`
	Betting slOdds  `json:"betting"`
	Jockey  slName  `json:"jockey"`
	Trainer slName  `json:"trainer"`
}

type slHorse struct {
	Name string `json:"name"`
}

type slName struct {
	Name string `json:"name"`
}

type slOdds struct {
	CurrentOdds string           `json:"current_odds"` // fractional, e.g. "5/2"
	Decimal     *decimal.Decimal `json:"decimal_odds"` // quoted by some feeds instead
}

// SportingLifeClient consumes the Sporting Life horse racing JSON API,
// one request per day.
type SportingLifeClient struct {
	client  *RateLimitedHTTPClient
	baseURL string
	enabled bool
	logger  *logrus.Logger
}

// NewSportingLifeClient creates the Sporting Life adapter.
func NewSportingLifeClient(client *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *SportingLifeClient {
	if baseURL == "" {
		baseURL = "https://www.sportinglife.com/api/horse-racing/race"
	}
	return &SportingLifeClient{client: client, baseURL: baseURL, enabled: enabled, logger: logger}
}

// Name returns the adapter's provenance tag.
func (c *SportingLifeClient) Name() string { return SportingLifeName }

// IsEnabled reports whether this adapter is currently enabled.
func (c *SportingLifeClient) IsEnabled() bool { return c.enabled }

// FetchRaces requests the daily racecard payload for each day of the
// range. A race entry missing its course or date is skipped.
func (c *SportingLifeClient) FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error) {
	if !c.enabled {
		return []models.RawRace{}, models.ErrSourceDisabled
	}

	var out []models.RawRace
	var lastErr error
	fetched := 0

	for _, day := range daysBetween(start, end) {
		url := fmt.Sprintf("%s/racecards/%s", c.baseURL, day.Format("2006-01-02"))
		body, err := c.client.FetchText(ctx, url)
		if err != nil {
			lastErr = NewSourceError(SportingLifeName, ErrCodeNetworkError, "daily racecards fetch failed", err)
			c.logger.WithError(err).WithField("date", day.Format("2006-01-02")).Debug("Sporting Life fetch failed")
			continue
		}
		fetched++

		races, err := c.parseDay([]byte(body), day)
		if err != nil {
			c.logger.WithError(err).Debug("Sporting Life parse failed")
			continue
		}
		out = append(out, races...)
	}

	if fetched == 0 && lastErr != nil {
		return []models.RawRace{}, lastErr
	}
	return out, nil
}

func (c *SportingLifeClient) parseDay(body []byte, day time.Time) ([]models.RawRace, error) {
	var payload slRaceDay
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, NewSourceError(SportingLifeName, ErrCodeInvalidData, "unparsable racecards payload", err)
	}

	races := make([]models.RawRace, 0, len(payload.Races))
	for _, sr := range payload.Races {
		summary := sr.RaceSummary
		if summary.CourseName == "" || summary.Time == "" {
			continue
		}

		date := day
		if summary.Date != "" {
			if d, err := time.Parse("2006-01-02", summary.Date); err == nil {
				date = d
			}
		}

		runners := make([]models.Runner, 0, len(sr.Rides))
		for _, ride := range sr.Rides {
			if ride.Horse.Name == "" {
				continue
			}
			runners = append(runners, models.Runner{
				Name:        ride.Horse.Name,
				OddsString:  ride.Betting.CurrentOdds,
				DecimalOdds: ride.Betting.Decimal,
				Jockey:      ride.Jockey.Name,
				Trainer:     ride.Trainer.Name,
			})
		}

		fieldSize := summary.RideCount
		if fieldSize < len(runners) {
			fieldSize = len(runners)
		}

		races = append(races, models.RawRace{
			Course:     summary.CourseName,
			Date:       date,
			Time:       summary.Time,
			FieldSize:  fieldSize,
			Runners:    runners,
			SourceID:   SportingLifeName,
			Discipline: models.DisciplineThoroughbred,
			Country:    summary.CountryCode,
			RaceNumber: summary.RaceNumber,
			RaceURL:    summary.URL,
			DataSources: map[string]string{
				"course":  SportingLifeName,
				"runners": SportingLifeName,
				"odds":    SportingLifeName,
			},
		})
	}
	return races, nil
}
