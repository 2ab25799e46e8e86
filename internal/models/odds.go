package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OddsSnapshot is a point-in-time record of one runner's fractional odds,
// written by the market-watch subsystem.
type OddsSnapshot struct {
	RaceID     string           `db:"race_id" json:"race_id" validate:"required"`
	RunnerName string           `db:"runner_name" json:"runner_name" validate:"required"`
	Odds       *decimal.Decimal `db:"odds" json:"odds"`
	Time       time.Time        `db:"ts" json:"ts" validate:"required"`
}

// MarketEventKind classifies a detected odds movement.
type MarketEventKind string

const (
	// EventSteamer marks a runner whose odds shortened sharply between snapshots.
	EventSteamer MarketEventKind = "steamer"
	// EventDrifter marks a runner whose odds lengthened sharply between snapshots.
	EventDrifter MarketEventKind = "drifter"
)

// MarketEvent records a steamer/drifter detection for a runner.
type MarketEvent struct {
	ID         int64            `db:"id" json:"id"`
	RaceID     string           `db:"race_id" json:"race_id" validate:"required"`
	RunnerName string           `db:"runner_name" json:"runner_name" validate:"required"`
	Kind       MarketEventKind  `db:"kind" json:"kind" validate:"required,oneof=steamer drifter"`
	FromOdds   *decimal.Decimal `db:"from_odds" json:"from_odds"`
	ToOdds     *decimal.Decimal `db:"to_odds" json:"to_odds"`
	Time       time.Time        `db:"ts" json:"ts" validate:"required"`
}

// Delta returns the signed odds movement (to - from), or zero when either
// side is missing.
func (e *MarketEvent) Delta() decimal.Decimal {
	if e.FromOdds == nil || e.ToOdds == nil {
		return decimal.Zero
	}
	return e.ToOdds.Sub(*e.FromOdds)
}
