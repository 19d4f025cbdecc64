// internal/domain/scoring/scoring.go

// Package scoring computes the potential score of an artist snapshot.
//
// The score is a deterministic, rule-based rating in [0,100] built from
// independently bounded sub-scores. Each sub-score is a piecewise
// function of one or more raw metrics, clamped to its maximum before
// summation; the total is clamped to [0,100] and rounded to two decimal
// places, half away from zero. Scoring is pure computation with no I/O.
package scoring

import (
	"math"
	"time"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// DeezerProfile names one generation of the Deezer formula.
type DeezerProfile string

const (
	// DeezerBalanced is the later, more granular curve set. Default.
	DeezerBalanced DeezerProfile = "balanced"

	// DeezerStrict is the earlier generation, kept for compatibility:
	// coarser curves, a radio sub-score, a +5 bonus in the 5k-15k fan
	// range and a x0.85 malus above 40k fans.
	DeezerStrict DeezerProfile = "strict"
)

// Engine scores metric snapshots. The zero value is not usable; use
// NewEngine.
type Engine struct {
	deezerProfile DeezerProfile
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDeezerProfile selects the Deezer formula generation.
func WithDeezerProfile(p DeezerProfile) Option {
	return func(e *Engine) { e.deezerProfile = p }
}

// WithClock overrides the clock used for release recency. Intended for
// tests; scoring stays deterministic for a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine using the balanced Deezer profile and the
// system clock.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		deezerProfile: DeezerBalanced,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the potential score for one snapshot. It validates the
// snapshot first and never mutates it; calling Score twice with the same
// snapshot yields the same value.
func (e *Engine) Score(s metric.Snapshot) (float64, error) {
	if err := Validate(s); err != nil {
		return 0, err
	}

	var total float64
	switch s.Platform {
	case artist.PlatformSpotify:
		total = spotifyScore(s, e.now().Year())
	case artist.PlatformDeezer:
		if e.deezerProfile == DeezerStrict {
			total = deezerStrictScore(s)
		} else {
			total = deezerBalancedScore(s)
		}
	}

	return round2(clamp(total, 0, 100)), nil
}

// Validate checks that a snapshot is well-formed for scoring. Inputs are
// rejected, never clamped: a negative count or an out-of-range rate is an
// InvalidMetricError, an unidentifiable snapshot a MissingFieldError.
func Validate(s metric.Snapshot) error {
	if s.ArtistID == "" {
		return &metric.MissingFieldError{Field: "artist_id"}
	}
	if s.Platform == "" {
		return &metric.MissingFieldError{Field: "platform"}
	}
	if !s.Platform.Valid() {
		return &metric.InvalidMetricError{Field: "platform", Reason: "unknown platform"}
	}

	switch s.Platform {
	case artist.PlatformSpotify:
		if s.Followers < 0 {
			return &metric.InvalidMetricError{Field: "followers", Value: float64(s.Followers), Reason: "negative count"}
		}
		if s.Popularity < 0 || s.Popularity > 100 {
			return &metric.InvalidMetricError{Field: "popularity", Value: float64(s.Popularity), Reason: "outside 0-100"}
		}
		if s.AvgTrackPopularity < 0 || s.AvgTrackPopularity > 100 {
			return &metric.InvalidMetricError{Field: "avg_track_popularity", Value: s.AvgTrackPopularity, Reason: "outside 0-100"}
		}
	case artist.PlatformDeezer:
		if s.Fans < 0 {
			return &metric.InvalidMetricError{Field: "fans", Value: float64(s.Fans), Reason: "negative count"}
		}
		if s.TotalAlbums < 0 {
			return &metric.InvalidMetricError{Field: "total_albums", Value: float64(s.TotalAlbums), Reason: "negative count"}
		}
		if s.EngagementRate < 0 || s.EngagementRate > 100 {
			return &metric.InvalidMetricError{Field: "engagement_rate", Value: s.EngagementRate, Reason: "outside 0-100"}
		}
	}

	return nil
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
