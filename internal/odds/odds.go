// Package odds converts bookmaker odds notations into fractional-odds
// floats, the internal representation used for all odds comparisons.
package odds

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Unknown is the sentinel returned for SP, non-runners, empty or
// unparsable input. It is large so unknown prices sort last.
const Unknown = 999.0

// ToFractional parses an odds string into a fractional-odds float.
//
// Accepted notations: fractional ("5/2", also "5-2"), "EVS"/"EVENS",
// bare decimal odds (converted to fractional, so "3.5" -> 2.5), and the
// sentinels "SP"/"NR" which map to Unknown. Anything else is Unknown.
func ToFractional(s string) float64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Unknown
	}
	s = strings.ReplaceAll(s, "-", "/")
	switch s {
	case "SP", "NR":
		return Unknown
	case "EVS", "EVENS":
		return 1.0
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d <= 0 {
			return Unknown
		}
		return n / d
	}

	dec, err := strconv.ParseFloat(s, 64)
	if err != nil || dec <= 1 {
		return Unknown
	}
	return dec - 1.0
}

// FromDecimal converts decimal odds to fractional odds. Decimal odds at
// or below 1.0 carry no profit and map to Unknown.
func FromDecimal(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	if f <= 1 {
		return Unknown
	}
	return f - 1.0
}

// IsKnown reports whether f is a real price rather than the Unknown sentinel.
func IsKnown(f float64) bool {
	return f < Unknown
}
