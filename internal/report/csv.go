package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/yourusername/race-scanner/internal/service"
)

// CSVWriter renders the flat spreadsheet export.
type CSVWriter struct {
	filters Filters
}

// NewCSVWriter creates the CSV report writer.
func NewCSVWriter(filters Filters) *CSVWriter {
	return &CSVWriter{filters: filters}
}

// Extension returns the file extension for this format.
func (w *CSVWriter) Extension() string { return "csv" }

var csvHeader = []string{
	"course", "country", "discipline", "date", "time", "race_number",
	"field_size", "favorite", "favorite_odds", "second_favorite",
	"second_favorite_odds", "value_score", "pick", "sources", "race_url", "form_url",
}

// Write renders one row per race.
func (w *CSVWriter) Write(out io.Writer, result *service.ScanResult) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, race := range result.Races {
		favName, favOdds := "", ""
		if race.Favorite != nil {
			favName, favOdds = race.Favorite.Name, race.Favorite.OddsString
		}
		secName, secOdds := "", ""
		if race.SecondFavorite != nil {
			secName, secOdds = race.SecondFavorite.Name, race.SecondFavorite.OddsString
		}

		row := []string{
			race.Course,
			race.Country,
			string(race.Discipline),
			race.LocalDate(),
			race.TimeLocal,
			strconv.Itoa(race.RaceNumber),
			strconv.Itoa(race.FieldSize),
			favName,
			favOdds,
			secName,
			secOdds,
			strconv.FormatFloat(race.ValueScore, 'f', 1, 64),
			strconv.FormatBool(w.filters.Matches(race)),
			strconv.Itoa(len(race.DataSources)),
			race.RaceURL,
			race.FormGuideURL,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
