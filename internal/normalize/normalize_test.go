package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCourse(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  Ascot  ", "ascot"},
		{"parenthetical dropped", "Lingfield (AW)", "lingfield"},
		{"july course dropped", "Newmarket (July)", "newmarket"},
		{"hyphens collapsed", "Ffos-Las", "ffos las"},
		{"underscores collapsed", "ffos_las", "ffos las"},
		{"internal whitespace", "ffos   las", "ffos las"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeCourse(tt.in))
		})
	}
}

func TestNormalizeCourseIdempotent(t *testing.T) {
	n := New()
	for _, in := range []string{"Ffos-Las", "Newmarket (July)", "  ASCOT acton ", "sha tin", ""} {
		once := n.NormalizeCourse(in)
		assert.Equal(t, once, n.NormalizeCourse(once), "input %q", in)
	}
}

func TestRoundTime(t *testing.T) {
	n := New()
	assert.Equal(t, "14:05", n.RoundTime("14:05"))
	assert.Equal(t, "14:05", n.RoundTime("14:07"))
	assert.Equal(t, "14:05", n.RoundTime("14:09"))
	assert.Equal(t, "14:10", n.RoundTime("14:10"))
	assert.Equal(t, "14:00", n.RoundTime("14:04"))
	// unparsable input passes through for exact-match keying
	assert.Equal(t, "late", n.RoundTime("late"))
}

func TestRoundTimeCustomBucket(t *testing.T) {
	n := New(WithBucketMinutes(10))
	assert.Equal(t, "14:00", n.RoundTime("14:09"))
	assert.Equal(t, "14:10", n.RoundTime("14:10"))
}

func TestBuildKeyStableUnderCasingAndSpacing(t *testing.T) {
	n := New()
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := n.BuildKey("Ffos Las", d, "14:05", 0)
	b := n.BuildKey("ffos-las", d, "14:07", 0)
	assert.Equal(t, a, b)
	assert.Equal(t, "ffos las|2024-05-01|14:05|", a.String())
}

func TestBuildKeyDistinguishesRaceNumber(t *testing.T) {
	n := New()
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t, n.BuildKey("Ascot", d, "14:05", 1), n.BuildKey("Ascot", d, "14:05", 2))
}

func TestRaceIDStable(t *testing.T) {
	n := New()
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	id1 := n.RaceID("Ascot", d, "14:05", 0)
	id2 := n.RaceID("ascot", d, "14:05", 0)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 12)

	// pre-rounding times stay distinct
	assert.NotEqual(t, id1, n.RaceID("Ascot", d, "14:07", 0))
}

func TestTimezoneFor(t *testing.T) {
	n := New()
	assert.Equal(t, "Europe/London", n.TimezoneFor("Ascot", "GB"))
	assert.Equal(t, "Australia/Perth", n.TimezoneFor("Gloucester Park", "AU"))
	assert.Equal(t, "Europe/Dublin", n.TimezoneFor("Some Unknown Track", "IE"))
	assert.Equal(t, "UTC", n.TimezoneFor("Some Unknown Track", "XX"))
}

func TestTimezoneForInjectedTables(t *testing.T) {
	n := New(WithTimezoneTables(
		map[string]string{"testville": "Europe/Madrid"},
		map[string]string{"ES": "Europe/Madrid"},
	))
	assert.Equal(t, "Europe/Madrid", n.TimezoneFor("Testville", "GB"))
	assert.Equal(t, "UTC", n.TimezoneFor("Elsewhere", "GB"))
}

func TestSubstringMatch(t *testing.T) {
	assert.True(t, SubstringMatch("ascot", "ascot racecourse"))
	assert.True(t, SubstringMatch("ascot racecourse", "ascot"))
	assert.False(t, SubstringMatch("ascot", "epsom"))
	assert.False(t, SubstringMatch("", "ascot"))
}
