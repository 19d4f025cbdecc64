// internal/domain/artist/model.go

package artist

import (
	"time"
)

// Platform identifies the streaming platform an artist record belongs to.
// An artist present on both platforms has two independent records that
// are never merged.
type Platform string

const (
	PlatformSpotify Platform = "Spotify"
	PlatformDeezer  Platform = "Deezer"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformSpotify || p == PlatformDeezer
}

// Artist is an identity record for one artist on one platform.
// Created on first observation; immutable except LastUpdated.
type Artist struct {
	ArtistID    string
	Name        string
	Platform    Platform
	URL         string
	ImageURL    string
	Genres      string
	FirstSeen   time.Time
	LastUpdated time.Time
}

// Key returns the (artist_id, platform) identity used throughout the
// system to address an artist.
func (a Artist) Key() Key {
	return Key{ArtistID: a.ArtistID, Platform: a.Platform}
}

// Key uniquely identifies an artist record.
type Key struct {
	ArtistID string
	Platform Platform
}

// Filter defines criteria for listing artists.
type Filter struct {
	Platform Platform
	MinScore float64
	Limit    int
	Offset   int
}
