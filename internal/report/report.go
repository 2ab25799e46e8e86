// Package report renders scan results to HTML, JSON and CSV.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/odds"
	"github.com/yourusername/race-scanner/internal/service"
)

// Filters holds the tipsheet selection thresholds. A race passing all of
// them is flagged as a pick in every output format.
type Filters struct {
	MaxFieldSize          int
	MinFavoriteOdds       float64
	MinSecondFavoriteOdds float64
}

// DefaultFilters returns the standard small-field value thresholds.
func DefaultFilters() Filters {
	return Filters{
		MaxFieldSize:          10,
		MinFavoriteOdds:       1.0,
		MinSecondFavoriteOdds: 3.0,
	}
}

// Matches reports whether a race passes every threshold. Races without a
// priced favorite and second favorite never match.
func (f Filters) Matches(r *models.Race) bool {
	if f.MaxFieldSize > 0 && r.FieldSize > f.MaxFieldSize {
		return false
	}
	if r.Favorite == nil || !odds.IsKnown(r.Favorite.OddsFractional) {
		return false
	}
	if r.Favorite.OddsFractional < f.MinFavoriteOdds {
		return false
	}
	if r.SecondFavorite == nil || !odds.IsKnown(r.SecondFavorite.OddsFractional) {
		return false
	}
	return r.SecondFavorite.OddsFractional >= f.MinSecondFavoriteOdds
}

// Writer renders one scan result to a stream.
type Writer interface {
	Write(w io.Writer, result *service.ScanResult) error
	Extension() string
}

// Generator writes a scan result to disk in each configured format.
type Generator struct {
	dir     string
	writers []Writer
	logger  *logrus.Logger
}

// NewGenerator creates a report generator for the given output directory.
func NewGenerator(dir string, formats []string, title string, filters Filters, logger *logrus.Logger) (*Generator, error) {
	var writers []Writer
	for _, format := range formats {
		switch format {
		case "html":
			writers = append(writers, NewHTMLWriter(title, filters))
		case "json":
			writers = append(writers, NewJSONWriter(filters))
		case "csv":
			writers = append(writers, NewCSVWriter(filters))
		default:
			return nil, fmt.Errorf("unknown output format: %s", format)
		}
	}
	return &Generator{dir: dir, writers: writers, logger: logger}, nil
}

// Generate writes one file per format and returns their paths.
func (g *Generator) Generate(result *service.ScanResult) ([]string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	stamp := result.GeneratedAt.Format("2006-01-02_1504")
	var paths []string
	for _, writer := range g.writers {
		path := filepath.Join(g.dir, fmt.Sprintf("races_%s.%s", stamp, writer.Extension()))
		if err := g.writeFile(path, writer, result); err != nil {
			return paths, err
		}
		g.logger.WithField("path", path).Info("Report written")
		paths = append(paths, path)
	}
	return paths, nil
}

func (g *Generator) writeFile(path string, writer Writer, result *service.ScanResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := writer.Write(f, result); err != nil {
		return fmt.Errorf("failed to render %s report: %w", writer.Extension(), err)
	}
	return nil
}

// formatLocalTime renders a race's start in its own timezone for display.
func formatLocalTime(r *models.Race) string {
	if r.TimezoneName != "" {
		if loc, err := time.LoadLocation(r.TimezoneName); err == nil {
			return r.UTCDateTime.In(loc).Format("15:04 MST")
		}
	}
	return r.TimeLocal
}
