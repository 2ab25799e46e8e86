package models

import (
	"github.com/shopspring/decimal"
)

// Runner represents a single runner as reported by a source. Order within
// a race's runner slice is the source's card order and is preserved
// through aggregation.
type Runner struct {
	Name        string           `json:"name"`
	OddsString  string           `json:"odds_string,omitempty"`
	DecimalOdds *decimal.Decimal `json:"decimal_odds,omitempty"` // set only by JSON sources that quote decimals
	Trainer     string           `json:"trainer,omitempty"`
	Jockey      string           `json:"jockey,omitempty"`
}

// HasOdds reports whether the runner carries any odds information at all.
func (r *Runner) HasOdds() bool {
	return r.OddsString != "" || r.DecimalOdds != nil
}
