// Package enrich attaches secondary-source form-guide links to merged
// races by matching against a per-day course directory.
package enrich

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/normalize"
)

// DirectoryKey identifies one meeting in the enrichment directory.
type DirectoryKey struct {
	Course string // normalized course name
	Date   string // "2006-01-02", meeting-local
}

// Entry is one directory value: the external link plus its source tag.
type Entry struct {
	URL    string
	Source string
}

// Directory maps (normalized course, date) to a form-guide link. It is
// built once per run from a single external feed using the same
// Normalizer the Enricher matches with.
type Directory map[DirectoryKey]Entry

// Enricher sets FormGuideURL on races that match the directory. It must
// share its Normalizer instance with whatever built the directory;
// divergent normalization silently breaks matching.
type Enricher struct {
	norm   *normalize.Normalizer
	logger *logrus.Logger
}

// New creates an Enricher.
func New(norm *normalize.Normalizer, logger *logrus.Logger) *Enricher {
	return &Enricher{norm: norm, logger: logger}
}

// Enrich mutates races in place, setting FormGuideURL at most once per
// race. A link already present is never overwritten, so repeated calls
// are idempotent. Returns the number of races that gained a link.
func (e *Enricher) Enrich(races []*models.Race, dir Directory) int {
	if len(dir) == 0 {
		return 0
	}

	matched := 0
	for _, race := range races {
		if race.FormGuideURL != "" {
			continue
		}
		entry, ok := e.lookup(race, dir)
		if !ok {
			continue
		}
		race.FormGuideURL = entry.URL
		if race.DataSources == nil {
			race.DataSources = make(map[string]string)
		}
		race.DataSources["form"] = entry.Source
		matched++
	}

	e.logger.WithFields(logrus.Fields{
		"races":   len(races),
		"matched": matched,
		"entries": len(dir),
	}).Debug("Enrichment pass complete")

	return matched
}

// lookup tries the exact key first, then falls back to a substring
// containment scan over same-date entries. The fallback is linear and
// first-match-wins in map iteration order; acceptable because the
// directory holds at most a few hundred entries per day.
func (e *Enricher) lookup(race *models.Race, dir Directory) (Entry, bool) {
	course := e.norm.NormalizeCourse(race.Course)
	date := race.LocalDate()

	if entry, ok := dir[DirectoryKey{Course: course, Date: date}]; ok {
		return entry, true
	}

	for key, entry := range dir {
		if key.Date != date {
			continue
		}
		if normalize.SubstringMatch(course, key.Course) {
			return entry, true
		}
	}
	return Entry{}, false
}
