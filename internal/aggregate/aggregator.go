// Package aggregate merges raw race records from independent sources into
// a single canonical race list keyed by the fuzzy dedup key.
package aggregate

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/normalize"
	"github.com/yourusername/race-scanner/internal/odds"
)

// Stats summarizes one aggregation pass.
type Stats struct {
	Input     int `json:"input"`
	Malformed int `json:"malformed"`
	Merged    int `json:"merged"` // records folded into an existing bucket
	Output    int `json:"output"`
}

// Aggregator groups raw records by dedup key and folds colliding records
// into one Race per key.
type Aggregator struct {
	norm   *normalize.Normalizer
	logger *logrus.Logger
}

// New creates an Aggregator sharing the given normalizer. The enricher
// must use the same normalizer instance or key matching silently breaks.
func New(norm *normalize.Normalizer, logger *logrus.Logger) *Aggregator {
	return &Aggregator{norm: norm, logger: logger}
}

// Aggregate runs the full grouping and merge pass. Records missing a
// course or date are dropped and counted, never surfaced as errors.
// Output order follows first arrival of each key; callers re-sort by score.
func (a *Aggregator) Aggregate(raws []models.RawRace) ([]*models.Race, Stats) {
	stats := Stats{Input: len(raws)}

	byKey := make(map[normalize.Key]*models.Race, len(raws))
	order := make([]normalize.Key, 0, len(raws))

	for i := range raws {
		raw := &raws[i]
		if raw.Course == "" || raw.Date.IsZero() {
			stats.Malformed++
			continue
		}
		key := a.norm.BuildKey(raw.Course, raw.Date, raw.Time, raw.RaceNumber)
		race := a.lift(raw)

		existing, ok := byKey[key]
		if !ok {
			byKey[key] = race
			order = append(order, key)
			continue
		}
		byKey[key] = merge(existing, race)
		stats.Merged++
	}

	out := make([]*models.Race, 0, len(order))
	for _, key := range order {
		race := byKey[key]
		finalize(race)
		out = append(out, race)
	}
	stats.Output = len(out)

	if stats.Malformed > 0 {
		a.logger.WithField("skipped", stats.Malformed).Warn("Dropped malformed race records")
	}
	a.logger.WithFields(logrus.Fields{
		"input":  stats.Input,
		"merged": stats.Merged,
		"output": stats.Output,
	}).Debug("Aggregation pass complete")

	return out, stats
}

// lift converts a single raw record into a Race with no merge logic.
func (a *Aggregator) lift(raw *models.RawRace) *models.Race {
	tz := raw.TimezoneName
	if tz == "" {
		tz = a.norm.TimezoneFor(raw.Course, raw.Country)
	}

	sources := raw.DataSources
	if len(sources) == 0 && raw.SourceID != "" {
		sources = map[string]string{"course": raw.SourceID}
	}

	return &models.Race{
		ID:           a.norm.RaceID(raw.Course, raw.Date, raw.Time, raw.RaceNumber),
		Course:       raw.Course,
		Country:      raw.Country,
		Discipline:   raw.Discipline,
		FieldSize:    raw.FieldSize,
		TimeLocal:    raw.Time,
		TimezoneName: tz,
		UTCDateTime:  toUTC(raw.Date, raw.Time, tz),
		RaceNumber:   raw.RaceNumber,
		AllRunners:   raw.Runners,
		DataSources:  cloneSources(sources),
		RaceURL:      raw.RaceURL,
	}
}

// merge folds b into a. The side with the richer DataSources map becomes
// primary; on a tie the earlier-arrived side (a) wins. Primary selection
// is fold-order dependent for buckets of three or more records, which is
// deterministic for a fixed input order but not globally stable.
func merge(a, b *models.Race) *models.Race {
	primary, secondary := a, b
	if len(b.DataSources) > len(a.DataSources) {
		primary, secondary = b, a
	}

	sources := cloneSources(secondary.DataSources)
	for k, v := range primary.DataSources {
		sources[k] = v
	}

	runners := primary.AllRunners
	if len(secondary.AllRunners) > len(runners) {
		runners = secondary.AllRunners
	}

	return &models.Race{
		ID:           primary.ID,
		Course:       firstNonEmpty(primary.Course, secondary.Course),
		Country:      firstNonEmpty(primary.Country, secondary.Country),
		Discipline:   models.Discipline(firstNonEmpty(string(primary.Discipline), string(secondary.Discipline))),
		FieldSize:    max(primary.FieldSize, secondary.FieldSize),
		TimeLocal:    firstNonEmpty(primary.TimeLocal, secondary.TimeLocal),
		TimezoneName: firstNonEmpty(primary.TimezoneName, secondary.TimezoneName),
		UTCDateTime:  firstNonZeroTime(primary.UTCDateTime, secondary.UTCDateTime),
		RaceNumber:   firstNonZero(primary.RaceNumber, secondary.RaceNumber),
		AllRunners:   runners,
		DataSources:  sources,
		RaceURL:      firstNonEmpty(primary.RaceURL, secondary.RaceURL),
		FormGuideURL: firstNonEmpty(primary.FormGuideURL, secondary.FormGuideURL),
	}
}

// finalize derives favorite and second favorite from the surviving runner
// list and reconciles the field-size invariant.
func finalize(r *models.Race) {
	if len(r.AllRunners) == 0 {
		return
	}
	if len(r.AllRunners) > r.FieldSize {
		r.FieldSize = len(r.AllRunners)
	}
	r.Favorite, r.SecondFavorite = Favorites(r.AllRunners)
}

// Favorites returns the two most backed runners by fractional odds,
// ascending, with ties broken by original card order. Runners without a
// known price sort last and are never promoted over priced runners.
func Favorites(runners []models.Runner) (*models.RunnerOdds, *models.RunnerOdds) {
	type priced struct {
		idx  int
		frac float64
	}
	ranked := make([]priced, 0, len(runners))
	for i := range runners {
		ranked = append(ranked, priced{idx: i, frac: runnerFractional(&runners[i])})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].frac < ranked[j].frac })

	pick := func(p priced) *models.RunnerOdds {
		if !odds.IsKnown(p.frac) {
			return nil
		}
		rn := runners[p.idx]
		return &models.RunnerOdds{Name: rn.Name, OddsString: rn.OddsString, OddsFractional: p.frac}
	}

	var fav, second *models.RunnerOdds
	if len(ranked) > 0 {
		fav = pick(ranked[0])
	}
	if fav != nil && len(ranked) > 1 {
		second = pick(ranked[1])
	}
	return fav, second
}

func runnerFractional(r *models.Runner) float64 {
	if r.OddsString != "" {
		return odds.ToFractional(r.OddsString)
	}
	if r.DecimalOdds != nil {
		return odds.FromDecimal(*r.DecimalOdds)
	}
	return odds.Unknown
}

func toUTC(date time.Time, hhmm, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc).UTC()
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc).UTC()
}

func cloneSources(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstNonZeroTime(a, b time.Time) time.Time {
	if !a.IsZero() {
		return a
	}
	return b
}
