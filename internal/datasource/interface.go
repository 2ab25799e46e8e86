// Package datasource defines the adapter interface for external racing
// data providers plus the shared rate-limited fetch layer.
package datasource

import (
	"context"
	"time"

	"github.com/yourusername/race-scanner/internal/models"
)

// Adapter is the capability every source implements: turn a date range
// into zero or more raw race records.
//
// Contract: a malformed fragment is skipped, never fatal; a wholly
// unreachable source returns an empty slice together with an error so the
// aggregator can route around it. The returned error is a side channel,
// not a veto; records returned alongside it are still usable.
type Adapter interface {
	// FetchRaces retrieves races whose local date falls inside [start, end].
	FetchRaces(ctx context.Context, start, end time.Time) ([]models.RawRace, error)

	// Name returns the adapter's provenance tag (e.g. "ATR").
	Name() string

	// IsEnabled reports whether this adapter is currently enabled.
	IsEnabled() bool
}

// SourceError represents errors from data source operations.
type SourceError struct {
	Source  string // adapter name
	Code    string // error code (e.g. "network_error")
	Message string
	Err     error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error { return e.Err }

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

// NewSourceError creates a new source error.
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{Source: source, Code: code, Message: message, Err: err}
}

// daysBetween yields each calendar day of the range, inclusive.
func daysBetween(start, end time.Time) []time.Time {
	cur := start.Truncate(24 * time.Hour)
	last := end.Truncate(24 * time.Hour)
	var days []time.Time
	for !cur.After(last) {
		days = append(days, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return days
}
