// internal/domain/scoring/spotify.go

package scoring

import (
	"soundscout/internal/domain/metric"
)

// Spotify sub-score weights. They sum to 100.
const (
	spotifyPopularityMax = 30
	spotifyTrackMax      = 20
	spotifyAudienceMax   = 25
	spotifyGrowthMax     = 15
	spotifyRecencyMax    = 10

	// Scraper windows the proportional branches are scaled against.
	spotifyMaxPopularity = 60
	spotifyMaxFollowers  = 50000
)

// spotifyScore sums the five Spotify sub-scores for one snapshot.
// currentYear anchors the release recency sub-score.
func spotifyScore(s metric.Snapshot, currentYear int) float64 {
	return spotifyPopularityScore(s.Popularity) +
		spotifyTrackScore(s.AvgTrackPopularity) +
		spotifyAudienceScore(s.Followers) +
		spotifyGrowthScore(s.GrowthIndicator) +
		spotifyRecencyScore(s, currentYear)
}

// spotifyPopularityScore rewards the 30-50 plateau with the full 30
// points. Just below it (20-29) is worth 25; anything else scales
// proportionally against the scouting ceiling.
func spotifyPopularityScore(popularity int) float64 {
	switch {
	case popularity >= 30 && popularity <= 50:
		return spotifyPopularityMax
	case popularity >= 20 && popularity < 30:
		return 25
	default:
		return clamp(float64(popularity)/spotifyMaxPopularity*20, 0, spotifyPopularityMax)
	}
}

func spotifyTrackScore(avgTrackPopularity float64) float64 {
	return clamp(avgTrackPopularity/100*spotifyTrackMax, 0, spotifyTrackMax)
}

// spotifyAudienceScore gives the full 25 points to the 5k-20k follower
// sweet spot: large enough to matter, small enough to still be
// undiscovered. Outside it the score is proportional to the follower
// ceiling.
func spotifyAudienceScore(followers int) float64 {
	if followers >= 5000 && followers <= 20000 {
		return spotifyAudienceMax
	}
	return clamp(float64(followers)/spotifyMaxFollowers*20, 0, spotifyAudienceMax)
}

// spotifyGrowthScore converts the growth indicator (artist popularity
// minus average top-track popularity) into at most 15 points. Negative
// indicators score zero.
func spotifyGrowthScore(growthIndicator float64) float64 {
	return clamp(growthIndicator*0.5, 0, spotifyGrowthMax)
}

// spotifyRecencyScore rates release freshness by year: 10 for a release
// this year, 7 for last year, 4 for anything older. An unknown release
// date scores zero.
func spotifyRecencyScore(s metric.Snapshot, currentYear int) float64 {
	if s.LastRelease.IsZero() {
		return 0
	}
	switch s.LastRelease.Year() {
	case currentYear:
		return spotifyRecencyMax
	case currentYear - 1:
		return 7
	default:
		return 4
	}
}
