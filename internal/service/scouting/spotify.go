// internal/service/scouting/spotify.go

package scouting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// SpotifyConfig contains the Spotify scraper configuration.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string

	// SearchQueries drive playlist discovery; playlists whose names
	// carry discovery keywords are mined for candidate artists.
	SearchQueries []string

	// Market restricts searches and top tracks, e.g. "FR".
	Market string

	// Emerging-artist windows. Candidates outside them are rejected.
	MinFollowers  int
	MaxFollowers  int
	MinPopularity int
	MaxPopularity int

	// MaxReleaseAgeMonths rejects artists without a release within the
	// window.
	MaxReleaseAgeMonths int

	// MaxCandidates bounds how many candidates get the detailed lookup.
	MaxCandidates int
}

// DefaultSpotifyConfig returns the scouting defaults for the French
// rap/hip-hop emerging scene.
func DefaultSpotifyConfig() SpotifyConfig {
	return SpotifyConfig{
		SearchQueries: []string{
			"rap français nouveauté découverte",
			"hip hop français émergent",
			"rap français underground indépendant",
			"nouveauté rap france",
			"découverte hip hop français",
			"nouveau rappeur français",
			"rap français indé",
			"rnb français nouveauté",
			"soul français émergent",
		},
		Market:              "FR",
		MinFollowers:        1000,
		MaxFollowers:        50000,
		MinPopularity:       10,
		MaxPopularity:       60,
		MaxReleaseAgeMonths: 24,
		MaxCandidates:       1000,
	}
}

// discoveryPlaylistKeywords select playlists worth mining.
var discoveryPlaylistKeywords = []string{
	"nouveauté", "découverte", "émergent", "underground",
	"indé", "nouveau", "fresh", "upcoming",
}

// SpotifyScraper discovers emerging artists through the Spotify Web API
// using client-credentials auth.
type SpotifyScraper struct {
	config     SpotifyConfig
	httpClient *http.Client
	logger     *zap.Logger

	baseURL  string
	tokenURL string

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyScraper creates a Spotify scraper.
func NewSpotifyScraper(config SpotifyConfig, logger *zap.Logger) *SpotifyScraper {
	return &SpotifyScraper{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		baseURL:    "https://api.spotify.com/v1",
		tokenURL:   "https://accounts.spotify.com/api/token",
	}
}

// Platform returns the platform this scraper collects from.
func (s *SpotifyScraper) Platform() artist.Platform {
	return artist.PlatformSpotify
}

type spotifyArtist struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Genres    []string `json:"genres"`
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	Popularity   int `json:"popularity"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type spotifySearchResponse struct {
	Playlists struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	} `json:"playlists"`
}

type spotifyPlaylistTracksResponse struct {
	Items []struct {
		Track struct {
			Artists []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"track"`
	} `json:"items"`
}

type spotifyTopTracksResponse struct {
	Tracks []struct {
		Popularity int `json:"popularity"`
	} `json:"tracks"`
}

type spotifyAlbumsResponse struct {
	Items []struct {
		ReleaseDate string `json:"release_date"`
	} `json:"items"`
}

// Scrape mines discovery playlists for candidates, then applies the
// emerging-artist filters and builds one snapshot per validated artist.
func (s *SpotifyScraper) Scrape(ctx context.Context) ([]Discovery, error) {
	candidates, err := s.findCandidates(ctx)
	if err != nil {
		return nil, err
	}

	if len(candidates) > s.config.MaxCandidates {
		candidates = candidates[:s.config.MaxCandidates]
	}

	now := time.Now()
	var discoveries []Discovery

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return discoveries, ctx.Err()
		}

		d, err := s.inspect(ctx, candidate.id, now)
		if err != nil {
			s.logger.Debug("spotify candidate lookup failed",
				zap.String("artist_id", candidate.id), zap.Error(err))
			continue
		}
		if d != nil {
			discoveries = append(discoveries, *d)
		}
	}

	return discoveries, nil
}

type spotifyCandidate struct {
	id   string
	name string
}

// findCandidates searches discovery playlists and collects the unique
// artists appearing in them.
func (s *SpotifyScraper) findCandidates(ctx context.Context) ([]spotifyCandidate, error) {
	seen := make(map[string]bool)
	var candidates []spotifyCandidate

	for _, query := range s.config.SearchQueries {
		var search spotifySearchResponse
		params := url.Values{
			"q":      {query},
			"type":   {"playlist"},
			"limit":  {"15"},
			"market": {s.config.Market},
		}
		if err := s.getJSON(ctx, s.baseURL+"/search?"+params.Encode(), &search); err != nil {
			s.logger.Warn("spotify playlist search failed",
				zap.String("query", query), zap.Error(err))
			continue
		}

		for _, playlist := range search.Playlists.Items {
			if playlist.ID == "" || !isDiscoveryPlaylist(playlist.Name) {
				continue
			}

			var tracks spotifyPlaylistTracksResponse
			tracksURL := fmt.Sprintf("%s/playlists/%s/tracks?limit=100", s.baseURL, playlist.ID)
			if err := s.getJSON(ctx, tracksURL, &tracks); err != nil {
				s.logger.Debug("spotify playlist tracks failed",
					zap.String("playlist_id", playlist.ID), zap.Error(err))
				continue
			}

			for _, item := range tracks.Items {
				for _, a := range item.Track.Artists {
					if a.ID == "" || seen[a.ID] || isExcludedName(a.Name, nil) {
						continue
					}
					seen[a.ID] = true
					candidates = append(candidates, spotifyCandidate{id: a.ID, name: a.Name})
				}
			}
		}
	}

	return candidates, nil
}

// inspect fetches full artist details and applies the strict emerging
// filters. Returns (nil, nil) when the artist is filtered out.
func (s *SpotifyScraper) inspect(ctx context.Context, artistID string, now time.Time) (*Discovery, error) {
	var a spotifyArtist
	if err := s.getJSON(ctx, s.baseURL+"/artists/"+artistID, &a); err != nil {
		return nil, err
	}

	if a.Popularity < s.config.MinPopularity || a.Popularity > s.config.MaxPopularity {
		return nil, nil
	}
	if a.Followers.Total < s.config.MinFollowers || a.Followers.Total > s.config.MaxFollowers {
		return nil, nil
	}

	lastRelease, err := s.lastRelease(ctx, artistID)
	if err != nil {
		return nil, err
	}
	// No known release, or one outside the activity window, means the
	// artist is not currently active.
	if lastRelease.IsZero() || !releasedWithin(lastRelease, s.config.MaxReleaseAgeMonths, now) {
		return nil, nil
	}

	var top spotifyTopTracksResponse
	topURL := fmt.Sprintf("%s/artists/%s/top-tracks?market=%s", s.baseURL, artistID, s.config.Market)
	if err := s.getJSON(ctx, topURL, &top); err != nil {
		return nil, err
	}
	if len(top.Tracks) == 0 {
		return nil, nil
	}

	sum := 0
	for _, t := range top.Tracks {
		sum += t.Popularity
	}
	avgTrackPopularity := float64(sum) / float64(len(top.Tracks))

	imageURL := ""
	if len(a.Images) > 0 {
		imageURL = a.Images[0].URL
	}

	return &Discovery{
		Artist: artist.Artist{
			ArtistID:    a.ID,
			Name:        a.Name,
			Platform:    artist.PlatformSpotify,
			URL:         a.ExternalURLs.Spotify,
			ImageURL:    imageURL,
			Genres:      strings.Join(a.Genres, ", "),
			FirstSeen:   now,
			LastUpdated: now,
		},
		Snapshot: metric.Snapshot{
			ArtistID:           a.ID,
			Platform:           artist.PlatformSpotify,
			CollectedAt:        now,
			Followers:          a.Followers.Total,
			Popularity:         a.Popularity,
			AvgTrackPopularity: avgTrackPopularity,
			GrowthIndicator:    float64(a.Popularity) - avgTrackPopularity,
			LastRelease:        lastRelease,
		},
	}, nil
}

// lastRelease returns the most recent release date, zero when unknown.
func (s *SpotifyScraper) lastRelease(ctx context.Context, artistID string) (time.Time, error) {
	var albums spotifyAlbumsResponse
	albumsURL := fmt.Sprintf("%s/artists/%s/albums?limit=10&include_groups=album,single", s.baseURL, artistID)
	if err := s.getJSON(ctx, albumsURL, &albums); err != nil {
		return time.Time{}, err
	}
	if len(albums.Items) == 0 {
		return time.Time{}, nil
	}
	return parseReleaseDate(albums.Items[0].ReleaseDate), nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (s *SpotifyScraper) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spotify API returned status code %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// token returns a valid client-credentials access token, refreshing it
// when close to expiry.
func (s *SpotifyScraper) token(ctx context.Context) (string, error) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-30*time.Second)) {
		return s.accessToken, nil
	}

	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return "", fmt.Errorf("spotify client credentials not configured")
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token endpoint returned status code %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return s.accessToken, nil
}

// isDiscoveryPlaylist reports whether a playlist name carries one of the
// discovery keywords.
func isDiscoveryPlaylist(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range discoveryPlaylistKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
