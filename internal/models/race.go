package models

import (
	"time"
)

// Discipline identifies the racing code a race belongs to.
type Discipline string

const (
	DisciplineThoroughbred Discipline = "thoroughbred"
	DisciplineGreyhound    Discipline = "greyhound"
	DisciplineHarness      Discipline = "harness"
)

// RawRace is a single source's view of one race, prior to dedup/merge.
// Instances are created fresh per fetch and discarded after aggregation.
type RawRace struct {
	Course       string            `json:"course"`
	Date         time.Time         `json:"date"`
	Time         string            `json:"time"` // local "HH:MM"
	TimezoneName string            `json:"timezone_name"`
	FieldSize    int               `json:"field_size"`
	Runners      []Runner          `json:"runners"`
	SourceID     string            `json:"source_id"`
	Discipline   Discipline        `json:"discipline"`
	Country      string            `json:"country"`
	RaceNumber   int               `json:"race_number,omitempty"` // 0 = unknown
	RaceURL      string            `json:"race_url"`
	DataSources  map[string]string `json:"data_sources"` // field group -> source id
}

// Race is the canonical merged race the rest of the pipeline operates on.
type Race struct {
	ID             string            `json:"id" db:"id"`
	Course         string            `json:"course" db:"course"`
	Country        string            `json:"country" db:"country"`
	Discipline     Discipline        `json:"discipline" db:"discipline"`
	FieldSize      int               `json:"field_size" db:"field_size"`
	TimeLocal      string            `json:"time_local" db:"local_time"`
	TimezoneName   string            `json:"timezone_name" db:"timezone_name"`
	UTCDateTime    time.Time         `json:"utc_datetime" db:"utc_datetime"`
	RaceNumber     int               `json:"race_number,omitempty"`
	Favorite       *RunnerOdds       `json:"favorite,omitempty"`
	SecondFavorite *RunnerOdds       `json:"second_favorite,omitempty"`
	AllRunners     []Runner          `json:"all_runners"`
	DataSources    map[string]string `json:"data_sources"`
	RaceURL        string            `json:"race_url"`
	FormGuideURL   string            `json:"form_guide_url,omitempty"`
	ValueScore     float64           `json:"value_score" db:"value_score"`
}

// RunnerOdds is a runner paired with its market position at scan time.
type RunnerOdds struct {
	Name           string  `json:"name"`
	OddsString     string  `json:"odds_string"`
	OddsFractional float64 `json:"odds_fractional"`
}

// LocalDate returns the race's calendar date in its own timezone,
// formatted "2006-01-02". Falls back to the UTC date when the timezone
// name does not resolve.
func (r *Race) LocalDate() string {
	if r.TimezoneName != "" {
		if loc, err := time.LoadLocation(r.TimezoneName); err == nil {
			return r.UTCDateTime.In(loc).Format("2006-01-02")
		}
	}
	return r.UTCDateTime.Format("2006-01-02")
}
