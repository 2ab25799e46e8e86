package normalize

// Default lookup tables. Keys in defaultTrackTimezones are hyphen-slugged
// normalized course names. Both tables can be replaced through
// WithTimezoneTables, typically from configuration.

// defaultNoiseTokens are substrings some sources append to course names
// that others do not, breaking cross-source matching.
var defaultNoiseTokens = []string{"acton"}

var defaultTrackTimezones = map[string]string{
	// UK & Ireland
	"ayr":            "Europe/London",
	"ascot":          "Europe/London",
	"cheltenham":     "Europe/London",
	"kempton-park":   "Europe/London",
	"newmarket":      "Europe/London",
	"windsor":        "Europe/London",
	"ffos-las":       "Europe/London",
	"leopardstown":   "Europe/Dublin",
	"curragh":        "Europe/Dublin",
	"ballinrobe":     "Europe/Dublin",
	// North America
	"belmont":             "America/New_York",
	"churchill":           "America/New_York",
	"saratoga":            "America/New_York",
	"finger-lakes":        "America/New_York",
	"thistledown":         "America/New_York",
	"mountaineer":         "America/New_York",
	"mountaineer-park":    "America/New_York",
	"presque-isle-downs":  "America/New_York",
	"ellis-park":          "America/Chicago",
	"santa-anita":         "America/Los_Angeles",
	"del-mar":             "America/Los_Angeles",
	"fort-erie":           "America/Toronto",
	// France
	"longchamp":           "Europe/Paris",
	"clairefontaine":      "Europe/Paris",
	"la-teste-de-buch":    "Europe/Paris",
	"divonne-les-bains":   "Europe/Paris",
	"saint-malo":          "Europe/Paris",
	"cagnes-sur-mer-midi": "Europe/Paris",
	// Australia & NZ
	"flemington":      "Australia/Melbourne",
	"randwick":        "Australia/Sydney",
	"menangle":        "Australia/Sydney",
	"eagle-farm":      "Australia/Brisbane",
	"albion-park":     "Australia/Brisbane",
	"redcliffe":       "Australia/Brisbane",
	"gloucester-park": "Australia/Perth",
	// Rest of world
	"fairview": "Africa/Johannesburg",
	"gavea":    "America/Sao_Paulo",
	"sha-tin":  "Asia/Hong_Kong",
	"tokyo":    "Asia/Tokyo",
}

var defaultCountryTimezones = map[string]string{
	"GB": "Europe/London",
	"UK": "Europe/London",
	"IE": "Europe/Dublin",
	"US": "America/New_York",
	"CA": "America/Toronto",
	"FR": "Europe/Paris",
	"AU": "Australia/Sydney",
	"NZ": "Pacific/Auckland",
	"HK": "Asia/Hong_Kong",
	"JP": "Asia/Tokyo",
	"ZA": "Africa/Johannesburg",
	"BR": "America/Sao_Paulo",
}
