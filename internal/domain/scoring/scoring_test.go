// internal/domain/scoring/scoring_test.go

package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// fixedClock pins the recency sub-score to mid-2025.
func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithClock(fixedClock)}, opts...)...)
}

func spotifySnapshot() metric.Snapshot {
	return metric.Snapshot{
		ArtistID:           "spotify-123",
		Platform:           artist.PlatformSpotify,
		Followers:          10000,
		Popularity:         40,
		AvgTrackPopularity: 50,
		GrowthIndicator:    10,
		LastRelease:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func deezerSnapshot() metric.Snapshot {
	return metric.Snapshot{
		ArtistID:       "deezer-456",
		Platform:       artist.PlatformDeezer,
		Fans:           10000,
		EngagementRate: 75,
		TotalAlbums:    5,
	}
}

func TestScoreSpotify(t *testing.T) {
	engine := newTestEngine()

	// 30 (popularity plateau) + 10 (tracks) + 25 (follower sweet spot)
	// + 5 (growth) + 10 (release this year)
	score, err := engine.Score(spotifySnapshot())
	require.NoError(t, err)
	assert.Equal(t, 80.0, score)
}

func TestScoreSpotifyPopularityPlateau(t *testing.T) {
	engine := newTestEngine()

	scoreAt := func(popularity int) float64 {
		s := spotifySnapshot()
		s.Popularity = popularity
		score, err := engine.Score(s)
		require.NoError(t, err)
		return score
	}

	// Both plateau edges earn the full popularity sub-score.
	assert.Equal(t, scoreAt(30), scoreAt(50))
	assert.Equal(t, scoreAt(30), scoreAt(40))

	// Just above the plateau the sub-score falls back to proportional,
	// well below the plateau value.
	assert.Less(t, scoreAt(51), scoreAt(50))
	assert.InDelta(t, 17.0, scoreAt(51)-scoreAt(50)+30, 0.01)

	// The 20-29 band is worth 25.
	assert.Equal(t, scoreAt(20), scoreAt(29))
	assert.Equal(t, 5.0, scoreAt(30)-scoreAt(29))
}

func TestScoreSpotifyFollowerSweetSpot(t *testing.T) {
	engine := newTestEngine()

	scoreAt := func(followers int) float64 {
		s := spotifySnapshot()
		s.Followers = followers
		score, err := engine.Score(s)
		require.NoError(t, err)
		return score
	}

	// Full audience sub-score across the 5k-20k window.
	assert.Equal(t, scoreAt(5000), scoreAt(20000))

	// Entering the window jumps the score; leaving it drops it.
	assert.Greater(t, scoreAt(5000), scoreAt(4999))
	assert.Less(t, scoreAt(20001), scoreAt(20000))
}

func TestScoreSpotifyGrowth(t *testing.T) {
	engine := newTestEngine()

	base := spotifySnapshot()
	base.GrowthIndicator = 0
	baseScore, err := engine.Score(base)
	require.NoError(t, err)

	// Negative growth never subtracts.
	negative := base
	negative.GrowthIndicator = -20
	negScore, err := engine.Score(negative)
	require.NoError(t, err)
	assert.Equal(t, baseScore, negScore)

	// Growth caps at 15 points.
	capped := base
	capped.GrowthIndicator = 100
	cappedScore, err := engine.Score(capped)
	require.NoError(t, err)
	assert.Equal(t, baseScore+15, cappedScore)
}

func TestScoreSpotifyRecency(t *testing.T) {
	engine := newTestEngine()

	scoreAt := func(release time.Time) float64 {
		s := spotifySnapshot()
		s.LastRelease = release
		score, err := engine.Score(s)
		require.NoError(t, err)
		return score
	}

	thisYear := scoreAt(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	lastYear := scoreAt(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	older := scoreAt(time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC))
	unknown := scoreAt(time.Time{})

	assert.Equal(t, 3.0, thisYear-lastYear)
	assert.Equal(t, 6.0, thisYear-older)
	assert.Equal(t, 10.0, thisYear-unknown)
}

func TestScoreDeezerBalanced(t *testing.T) {
	engine := newTestEngine()

	// 20 (fans) + 21.25 (engagement) + 25 (albums, clamped) + 15 (ratio)
	score, err := engine.Score(deezerSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 81.25, score)
}

func TestScoreDeezerNoAlbums(t *testing.T) {
	engine := newTestEngine()

	s := deezerSnapshot()
	s.TotalAlbums = 0

	// Both the discography and the ratio sub-scores resolve to zero.
	score, err := engine.Score(s)
	require.NoError(t, err)
	assert.Equal(t, 41.25, score)
}

func TestScoreDeezerStrict(t *testing.T) {
	engine := newTestEngine(WithDeezerProfile(DeezerStrict))

	// 25 + 20 + 20 + 15 (radio) + 15 (ratio), then the emerging-range
	// bonus caps at 100.
	s := deezerSnapshot()
	s.HasRadio = true
	score, err := engine.Score(s)
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestScoreDeezerStrictMalus(t *testing.T) {
	engine := newTestEngine(WithDeezerProfile(DeezerStrict))

	// 20 + 20 + 20 + 8 + 12 = 80, then the >40k fans malus.
	s := deezerSnapshot()
	s.Fans = 50000
	score, err := engine.Score(s)
	require.NoError(t, err)
	assert.Equal(t, 68.0, score)
}

func TestScoreBounds(t *testing.T) {
	engine := newTestEngine()

	maxed := metric.Snapshot{
		ArtistID:           "spotify-max",
		Platform:           artist.PlatformSpotify,
		Followers:          10000,
		Popularity:         40,
		AvgTrackPopularity: 100,
		GrowthIndicator:    1000,
		LastRelease:        fixedClock(),
	}
	score, err := engine.Score(maxed)
	require.NoError(t, err)
	assert.LessOrEqual(t, score, 100.0)

	empty := metric.Snapshot{
		ArtistID: "deezer-empty",
		Platform: artist.PlatformDeezer,
	}
	score, err = engine.Score(empty)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestScoreIsDeterministic(t *testing.T) {
	engine := newTestEngine()

	s := spotifySnapshot()
	first, err := engine.Score(s)
	require.NoError(t, err)
	second, err := engine.Score(s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*metric.Snapshot)
		wantErr interface{}
	}{
		{
			name:    "missing artist id",
			mutate:  func(s *metric.Snapshot) { s.ArtistID = "" },
			wantErr: &metric.MissingFieldError{},
		},
		{
			name:    "missing platform",
			mutate:  func(s *metric.Snapshot) { s.Platform = "" },
			wantErr: &metric.MissingFieldError{},
		},
		{
			name:    "unknown platform",
			mutate:  func(s *metric.Snapshot) { s.Platform = "YouTube" },
			wantErr: &metric.InvalidMetricError{},
		},
		{
			name:    "negative followers",
			mutate:  func(s *metric.Snapshot) { s.Followers = -1 },
			wantErr: &metric.InvalidMetricError{},
		},
		{
			name:    "popularity above 100",
			mutate:  func(s *metric.Snapshot) { s.Popularity = 101 },
			wantErr: &metric.InvalidMetricError{},
		},
		{
			name: "negative fans",
			mutate: func(s *metric.Snapshot) {
				s.Platform = artist.PlatformDeezer
				s.Fans = -5
			},
			wantErr: &metric.InvalidMetricError{},
		},
		{
			name: "engagement above 100",
			mutate: func(s *metric.Snapshot) {
				s.Platform = artist.PlatformDeezer
				s.EngagementRate = 100.5
			},
			wantErr: &metric.InvalidMetricError{},
		},
	}

	engine := newTestEngine()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spotifySnapshot()
			tt.mutate(&s)

			_, err := engine.Score(s)
			require.Error(t, err)
			assert.IsType(t, tt.wantErr, err)
		})
	}
}
