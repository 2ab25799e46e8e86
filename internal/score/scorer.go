// Package score ranks merged races with a weighted value score. The score
// orders report output only; it never gates inclusion.
package score

import (
	"github.com/yourusername/race-scanner/internal/models"
	"github.com/yourusername/race-scanner/internal/odds"
)

// Weights control the blend of the four sub-scores. They must sum to 1.0;
// config validation enforces this before a scorer is built.
type Weights struct {
	FieldSize   float64 `mapstructure:"field_size"`
	OddsValue   float64 `mapstructure:"odds_value"`
	OddsSpread  float64 `mapstructure:"odds_spread"`
	DataQuality float64 `mapstructure:"data_quality"`
}

// DefaultWeights mirrors the long-standing production blend.
func DefaultWeights() Weights {
	return Weights{FieldSize: 0.3, OddsValue: 0.4, OddsSpread: 0.2, DataQuality: 0.1}
}

// fieldSizeCap is the field size at which the attractiveness sub-score
// reaches zero; smaller fields score higher.
const fieldSizeCap = 12.0

// Scorer computes value scores from a race's already-derived fields.
type Scorer struct {
	weights Weights
}

// New creates a Scorer. Zero weights fall back to the defaults.
func New(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score returns a value in [0,100]. Missing inputs (no favorite, no
// second favorite, unknown odds) contribute zero to their sub-score
// rather than erroring. Pure and deterministic.
func (s *Scorer) Score(race *models.Race) float64 {
	total := s.weights.FieldSize * fieldScore(race.FieldSize)

	favFrac, secFrac := odds.Unknown, odds.Unknown
	if race.Favorite != nil {
		favFrac = race.Favorite.OddsFractional
	}
	if race.SecondFavorite != nil {
		secFrac = race.SecondFavorite.OddsFractional
	}

	if odds.IsKnown(favFrac) {
		total += s.weights.OddsValue * oddsValueScore(favFrac)
	}
	if odds.IsKnown(favFrac) && odds.IsKnown(secFrac) && secFrac > favFrac {
		total += s.weights.OddsSpread * spreadScore(secFrac - favFrac)
	}

	total += s.weights.DataQuality * qualityScore(len(race.DataSources))

	return clamp(total)
}

// ScoreAll assigns scores in place.
func (s *Scorer) ScoreAll(races []*models.Race) {
	for _, r := range races {
		r.ValueScore = s.Score(r)
	}
}

// fieldScore: smaller fields are more attractive, scaled linearly against
// the cap.
func fieldScore(fieldSize int) float64 {
	if fieldSize < 0 {
		fieldSize = 0
	}
	return clamp((fieldSizeCap - float64(fieldSize)) / fieldSizeCap * 100)
}

// oddsValueScore: mid-range favorites score higher than extreme ones.
func oddsValueScore(frac float64) float64 {
	return clamp((frac - 0.5) / 3.5 * 100)
}

// spreadScore: a wide favorite/second-favorite gap signals a clear market.
func spreadScore(spread float64) float64 {
	return clamp(spread / 5 * 100)
}

// qualityScore: each corroborating field group is worth 25 points, capped.
func qualityScore(sourceCount int) float64 {
	return clamp(float64(sourceCount) * 25)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
