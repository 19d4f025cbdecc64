// internal/service/scouting/filters.go

package scouting

import (
	"strings"
	"time"
)

// excludedNameKeywords marks names that are compilations, labels or
// channels rather than artists.
var excludedNameKeywords = []string{
	"official", "records", "music", "label", "compilation",
	"various artists", "soundtrack", "ost", "tribute",
}

// genericNameKeywords are individually harmless words; a name hitting
// two or more of them is almost always a playlist channel.
var genericNameKeywords = []string{
	"beats", "instrumental", "playlist", "channel",
	"nation", "united", "official", "music", "factory",
}

// isExcludedName reports whether the artist name matches the exclusion
// list or accumulates two generic channel keywords.
func isExcludedName(name string, blacklist []string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))

	for _, keyword := range excludedNameKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	for _, keyword := range blacklist {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	hits := 0
	for _, keyword := range genericNameKeywords {
		if strings.Contains(lower, keyword) {
			hits++
		}
	}
	return hits >= 2
}

// parseReleaseDate parses the release date formats the platform APIs
// return: full dates, year-month, or a bare year. A bare year resolves
// to January 1st. Returns the zero time when the value is empty or
// unparseable.
func parseReleaseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// releasedWithin reports whether the release date falls inside the
// recent-activity window. An unknown date counts as recent so that a
// missing field never disqualifies an artist on its own.
func releasedWithin(release time.Time, months int, now time.Time) bool {
	if release.IsZero() {
		return true
	}
	return release.After(now.AddDate(0, -months, 0))
}
