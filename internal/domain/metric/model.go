// internal/domain/metric/model.go

package metric

import (
	"time"

	"soundscout/internal/domain/artist"
)

// Snapshot is one immutable observation of an artist's audience metrics
// on one platform. Snapshots are append-only; a given
// (artist_id, platform, collected_at) triple is unique, and ordering for
// latest/previous is strictly by CollectedAt descending.
type Snapshot struct {
	ArtistID    string
	Platform    artist.Platform
	CollectedAt time.Time

	// Spotify fields.
	Followers          int
	Popularity         int
	AvgTrackPopularity float64
	// GrowthIndicator is popularity minus average top-track popularity.
	GrowthIndicator float64
	// LastRelease is the most recent release date. The zero value means
	// the release date is unknown.
	LastRelease time.Time

	// Deezer fields.
	Fans           int
	TotalAlbums    int
	EngagementRate float64
	HasRadio       bool

	// ScorePotential is computed by the scoring engine, never supplied
	// as input. Bounded to [0,100] with 2-decimal precision.
	ScorePotential float64
}

// Key returns the artist identity this snapshot belongs to.
func (s Snapshot) Key() artist.Key {
	return artist.Key{ArtistID: s.ArtistID, Platform: s.Platform}
}

// Audience returns the primary audience metric for the snapshot's
// platform: followers on Spotify, fans on Deezer.
func (s Snapshot) Audience() int {
	if s.Platform == artist.PlatformDeezer {
		return s.Fans
	}
	return s.Followers
}
