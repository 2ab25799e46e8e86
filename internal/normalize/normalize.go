// Package normalize canonicalizes course names and derives the composite
// dedup key used to decide whether two independently sourced race records
// describe the same real-world race.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultBucketMinutes is the time-bucket width for key rounding. Sources
// disagree on off-post time by a few minutes; 5-minute buckets absorb the
// noise without merging genuinely different races on the same card.
const DefaultBucketMinutes = 5

var (
	parenRe      = regexp.MustCompile(`\s*\([^)]*\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	digitsRe     = regexp.MustCompile(`[^\d]`)
)

// Key is the composite dedup key. Two RawRace records describing the same
// race should produce equal Keys with high probability; this is a
// best-effort heuristic, not a guarantee.
type Key struct {
	Course     string // normalized course name
	Date       string // "2006-01-02"
	Time       string // "HH:MM" floored to the bucket
	RaceNumber string // "" when unknown
}

// String renders the key in a stable pipe-delimited form.
func (k Key) String() string {
	return strings.Join([]string{k.Course, k.Date, k.Time, k.RaceNumber}, "|")
}

// Normalizer canonicalizes course names and resolves track timezones.
// The timezone and noise-token tables are injected at construction so
// tests can substitute small fixtures.
type Normalizer struct {
	bucketMinutes int
	noiseTokens   []string
	trackTZ       map[string]string
	countryTZ     map[string]string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithBucketMinutes overrides the time-bucket width used by RoundTime.
func WithBucketMinutes(m int) Option {
	return func(n *Normalizer) {
		if m > 0 {
			n.bucketMinutes = m
		}
	}
}

// WithNoiseTokens overrides the substrings stripped from course names.
func WithNoiseTokens(tokens []string) Option {
	return func(n *Normalizer) { n.noiseTokens = tokens }
}

// WithTimezoneTables overrides the track and country timezone lookups.
func WithTimezoneTables(tracks, countries map[string]string) Option {
	return func(n *Normalizer) {
		if tracks != nil {
			n.trackTZ = tracks
		}
		if countries != nil {
			n.countryTZ = countries
		}
	}
}

// New creates a Normalizer with the built-in timezone tables and noise
// token list unless overridden by options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		bucketMinutes: DefaultBucketMinutes,
		noiseTokens:   defaultNoiseTokens,
		trackTZ:       defaultTrackTimezones,
		countryTZ:     defaultCountryTimezones,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeCourse canonicalizes a raw course name: lowercase, trimmed,
// parenthetical qualifiers such as "(AW)" dropped, known noise tokens
// removed, and hyphens/underscores/runs of whitespace collapsed to single
// spaces. Pure and idempotent.
func (n *Normalizer) NormalizeCourse(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	s = parenRe.ReplaceAllString(s, "")
	for _, tok := range n.noiseTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// RoundTime floors an "HH:MM" string to the nearest lower multiple of the
// configured bucket width. Input that does not parse is returned unchanged
// so a malformed time degrades to exact-match keying rather than an error.
func (n *Normalizer) RoundTime(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), (t.Minute()/n.bucketMinutes)*n.bucketMinutes)
}

// BuildKey composes the composite dedup key for a race observation.
func (n *Normalizer) BuildKey(course string, date time.Time, hhmm string, raceNumber int) Key {
	num := ""
	if raceNumber > 0 {
		num = fmt.Sprintf("%d", raceNumber)
	}
	return Key{
		Course:     n.NormalizeCourse(course),
		Date:       date.Format("2006-01-02"),
		Time:       n.RoundTime(hhmm),
		RaceNumber: num,
	}
}

// RaceID derives a short stable identifier from the pre-rounding race
// coordinates, used as the persistence key for the race.
func (n *Normalizer) RaceID(course string, date time.Time, hhmm string, raceNumber int) string {
	parts := []string{
		n.NormalizeCourse(course),
		date.Format("2006-01-02"),
		digitsRe.ReplaceAllString(hhmm, ""),
	}
	if raceNumber > 0 {
		parts = append(parts, fmt.Sprintf("%d", raceNumber))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:12]
}

// TimezoneFor resolves a track timezone: exact track match on the
// hyphen-slugged normalized course, then country default, then UTC.
func (n *Normalizer) TimezoneFor(course, country string) string {
	slug := strings.ReplaceAll(n.NormalizeCourse(course), " ", "-")
	if tz, ok := n.trackTZ[slug]; ok {
		return tz
	}
	if tz, ok := n.countryTZ[strings.ToUpper(country)]; ok {
		return tz
	}
	return "UTC"
}

// SubstringMatch reports whether either normalized course name contains
// the other. Used by the enrichment fallback.
func SubstringMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
