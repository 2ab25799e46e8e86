package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/service"
)

// JSONWriter renders the machine-readable report.
type JSONWriter struct {
	filters Filters
}

// NewJSONWriter creates the JSON report writer.
func NewJSONWriter(filters Filters) *JSONWriter {
	return &JSONWriter{filters: filters}
}

// Extension returns the file extension for this format.
func (w *JSONWriter) Extension() string { return "json" }

type jsonRace struct {
	*models.Race
	Pick bool `json:"pick"`
}

type jsonReport struct {
	RunID             string            `json:"run_id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	RaceCount         int               `json:"race_count"`
	PickCount         int               `json:"pick_count"`
	SourceCounts      map[string]int    `json:"source_counts"`
	SourceErrors      map[string]string `json:"source_errors,omitempty"`
	InputRecords      int               `json:"input_records"`
	MergedRecords     int               `json:"merged_records"`
	MalformedRecords  int               `json:"malformed_records"`
	EnrichmentMatches int               `json:"enrichment_matches"`
	Races             []jsonRace        `json:"races"`
}

// Write renders the result with run statistics and a per-race pick flag.
func (w *JSONWriter) Write(out io.Writer, result *service.ScanResult) error {
	doc := jsonReport{
		RunID:             result.RunID,
		GeneratedAt:       result.GeneratedAt,
		RaceCount:         len(result.Races),
		SourceCounts:      result.SourceCounts,
		SourceErrors:      result.SourceErrors,
		InputRecords:      result.Stats.Input,
		MergedRecords:     result.Stats.Merged,
		MalformedRecords:  result.Stats.Malformed,
		EnrichmentMatches: result.EnrichmentMatches,
	}

	for _, race := range result.Races {
		pick := w.filters.Matches(race)
		if pick {
			doc.PickCount++
		}
		doc.Races = append(doc.Races, jsonRace{Race: race, Pick: pick})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
