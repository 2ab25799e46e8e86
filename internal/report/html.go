package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/service"
)

// HTMLWriter renders the race card page.
type HTMLWriter struct {
	title   string
	filters Filters
	tmpl    *template.Template
}

// NewHTMLWriter creates the HTML report writer.
func NewHTMLWriter(title string, filters Filters) *HTMLWriter {
	if title == "" {
		title = "Race Scanner"
	}
	return &HTMLWriter{
		title:   title,
		filters: filters,
		tmpl:    template.Must(template.New("report").Parse(htmlTemplate)),
	}
}

// Extension returns the file extension for this format.
func (w *HTMLWriter) Extension() string { return "html" }

type htmlRace struct {
	*models.Race
	LocalTime string
	Pick      bool
	Sources   int
}

type htmlPage struct {
	Title        string
	GeneratedAt  string
	RunID        string
	Races        []htmlRace
	Picks        []htmlRace
	SourceCounts map[string]int
	SourceErrors map[string]string
	Stats        string
}

// Write renders the full page: the tipsheet picks up top, the complete
// scored card below.
func (w *HTMLWriter) Write(out io.Writer, result *service.ScanResult) error {
	page := htmlPage{
		Title:        w.title,
		GeneratedAt:  result.GeneratedAt.Format("Mon 2 Jan 2006 15:04 MST"),
		RunID:        result.RunID,
		SourceCounts: result.SourceCounts,
		SourceErrors: result.SourceErrors,
		Stats: fmt.Sprintf("%d raw records, %d merged, %d dropped, %d races",
			result.Stats.Input, result.Stats.Merged, result.Stats.Malformed, result.Stats.Output),
	}

	for _, race := range result.Races {
		hr := htmlRace{
			Race:      race,
			LocalTime: formatLocalTime(race),
			Pick:      w.filters.Matches(race),
			Sources:   len(race.DataSources),
		}
		page.Races = append(page.Races, hr)
		if hr.Pick {
			page.Picks = append(page.Picks, hr)
		}
	}

	return w.tmpl.Execute(out, page)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1a1a2e; }
h1 { font-size: 1.5rem; }
.meta { color: #666; font-size: 0.85rem; margin-bottom: 1.5rem; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin-bottom: 0.75rem; }
.card.pick { border-color: #2a9d8f; background: #f0faf8; }
.card h3 { margin: 0 0 0.25rem; font-size: 1.05rem; }
.score { float: right; font-weight: 600; color: #e76f51; }
.row { color: #444; font-size: 0.9rem; }
.badge { display: inline-block; background: #2a9d8f; color: white; border-radius: 4px; padding: 0 0.4rem; font-size: 0.75rem; margin-left: 0.5rem; }
.sources { color: #999; font-size: 0.8rem; }
a { color: #264653; }
.errors { color: #b00020; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated {{.GeneratedAt}} · run {{.RunID}} · {{.Stats}}</p>
{{if .SourceErrors}}<p class="errors">{{range $src, $err := .SourceErrors}}{{$src}}: {{$err}}<br>{{end}}</p>{{end}}

{{if .Picks}}
<h2>Picks ({{len .Picks}})</h2>
{{range .Picks}}{{template "race" .}}{{end}}
{{end}}

<h2>All races ({{len .Races}})</h2>
{{range .Races}}{{template "race" .}}{{end}}

{{define "race"}}
<div class="card{{if .Pick}} pick{{end}}">
  <span class="score">{{printf "%.1f" .ValueScore}}</span>
  <h3>{{.LocalTime}} {{.Course}}{{if .RaceNumber}} (R{{.RaceNumber}}){{end}}{{if .Pick}}<span class="badge">pick</span>{{end}}</h3>
  <div class="row">
    {{.Country}} · {{.Discipline}} · {{.FieldSize}} runners
    {{if .Favorite}} · Fav: {{.Favorite.Name}} {{.Favorite.OddsString}}{{end}}
    {{if .SecondFavorite}} · 2nd: {{.SecondFavorite.Name}} {{.SecondFavorite.OddsString}}{{end}}
  </div>
  <div class="sources">
    {{len .DataSources}} field groups
    {{if .RaceURL}} · <a href="{{.RaceURL}}">racecard</a>{{end}}
    {{if .FormGuideURL}} · <a href="{{.FormGuideURL}}">form guide</a>{{end}}
  </div>
</div>
{{end}}
</body>
</html>
`
