// internal/service/scouting/deezer.go

package scouting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// DeezerConfig contains the Deezer scraper configuration.
type DeezerConfig struct {
	// SeedArtists are well-known acts used as graph entry points; their
	// related artists form the candidate pool. Seeds themselves are
	// excluded from results.
	SeedArtists []string

	// Blacklist rejects candidate names in addition to the shared
	// exclusion keywords.
	Blacklist []string

	// Emerging-artist windows.
	MinFans int
	MaxFans int

	// MaxAlbums rejects catalog accounts with implausibly large
	// discographies.
	MaxAlbums int

	// MaxReleaseAgeMonths is the recent-activity window. An unknown
	// release date counts as recent.
	MaxReleaseAgeMonths int
}

// DefaultDeezerConfig returns the scouting defaults.
func DefaultDeezerConfig() DeezerConfig {
	return DeezerConfig{
		SeedArtists: []string{
			"ninho", "jul", "sch", "booba", "pnl", "naps", "niska",
			"freeze corleone", "laylow", "zola", "tiakola", "leto",
			"gazo", "koba lad", "soolking", "damso", "hamza", "josman",
			"dinos", "lomepal", "nekfeu", "orelsan", "alpha wann",
			"vald", "chilla", "shay", "aya nakamura", "meryl",
		},
		Blacklist: []string{
			"compilation", "various artists", "best of", "greatest",
			"lofi hip hop", "chill beats", "instrumental", "trap nation",
			"rap nation", "music factory", "dj", "orchestra", "orchestre",
			"symphony",
		},
		MinFans:             1000,
		MaxFans:             100000,
		MaxAlbums:           150,
		MaxReleaseAgeMonths: 24,
	}
}

// engagementRankCeiling is the Deezer track rank treated as 100%
// engagement.
const engagementRankCeiling = 100000

// DeezerScraper discovers emerging artists by walking the Deezer
// related-artists graph outward from known seeds. The public API needs
// no authentication.
type DeezerScraper struct {
	config     DeezerConfig
	httpClient *http.Client
	logger     *zap.Logger
	baseURL    string
}

// NewDeezerScraper creates a Deezer scraper.
func NewDeezerScraper(config DeezerConfig, logger *zap.Logger) *DeezerScraper {
	return &DeezerScraper{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		baseURL:    "https://api.deezer.com",
	}
}

// Platform returns the platform this scraper collects from.
func (s *DeezerScraper) Platform() artist.Platform {
	return artist.PlatformDeezer
}

type deezerArtist struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	Picture  string `json:"picture_medium"`
	NbFan    int    `json:"nb_fan"`
	NbAlbum  int    `json:"nb_album"`
	HasRadio bool   `json:"radio"`
}

type deezerListResponse struct {
	Data []deezerArtist `json:"data"`
}

type deezerTrackListResponse struct {
	Data []struct {
		Rank int `json:"rank"`
	} `json:"data"`
}

type deezerAlbumListResponse struct {
	Data []struct {
		ReleaseDate string `json:"release_date"`
	} `json:"data"`
}

// Scrape resolves the seed artists, explores their related-artist
// graphs, and returns one snapshot per validated emerging candidate.
func (s *DeezerScraper) Scrape(ctx context.Context) ([]Discovery, error) {
	seedIDs, err := s.resolveSeeds(ctx)
	if err != nil {
		return nil, err
	}
	if len(seedIDs) == 0 {
		return nil, fmt.Errorf("no seed artists resolved")
	}

	candidates := make(map[int64]bool)
	var order []int64

	for seedID := range seedIDs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var related deezerListResponse
		relatedURL := fmt.Sprintf("%s/artist/%d/related?limit=50", s.baseURL, seedID)
		if err := s.getJSON(ctx, relatedURL, &related); err != nil {
			s.logger.Debug("deezer related lookup failed",
				zap.Int64("seed_id", seedID), zap.Error(err))
			continue
		}

		for _, a := range related.Data {
			if !candidates[a.ID] {
				candidates[a.ID] = true
				order = append(order, a.ID)
			}
		}
	}

	now := time.Now()
	var discoveries []Discovery

	for _, id := range order {
		if ctx.Err() != nil {
			return discoveries, ctx.Err()
		}
		// Seeds are established acts, not candidates.
		if seedIDs[id] {
			continue
		}

		d, err := s.inspect(ctx, id, now)
		if err != nil {
			s.logger.Debug("deezer candidate lookup failed",
				zap.Int64("artist_id", id), zap.Error(err))
			continue
		}
		if d != nil {
			discoveries = append(discoveries, *d)
		}
	}

	return discoveries, nil
}

// resolveSeeds looks up each configured seed name and returns the found
// artist IDs.
func (s *DeezerScraper) resolveSeeds(ctx context.Context) (map[int64]bool, error) {
	ids := make(map[int64]bool)

	for _, name := range s.config.SeedArtists {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var result deezerListResponse
		searchURL := fmt.Sprintf("%s/search/artist?q=%s&limit=1", s.baseURL, url.QueryEscape(name))
		if err := s.getJSON(ctx, searchURL, &result); err != nil {
			s.logger.Debug("deezer seed search failed",
				zap.String("seed", name), zap.Error(err))
			continue
		}
		if len(result.Data) > 0 {
			ids[result.Data[0].ID] = true
		}
	}

	return ids, nil
}

// inspect fetches full details and applies the emerging filters. Returns
// (nil, nil) when the candidate is filtered out.
func (s *DeezerScraper) inspect(ctx context.Context, id int64, now time.Time) (*Discovery, error) {
	var a deezerArtist
	if err := s.getJSON(ctx, fmt.Sprintf("%s/artist/%d", s.baseURL, id), &a); err != nil {
		return nil, err
	}

	if isExcludedName(a.Name, s.config.Blacklist) {
		return nil, nil
	}
	if a.NbFan < s.config.MinFans || a.NbFan > s.config.MaxFans {
		return nil, nil
	}
	if a.NbAlbum > s.config.MaxAlbums {
		return nil, nil
	}

	var albums deezerAlbumListResponse
	albumsURL := fmt.Sprintf("%s/artist/%d/albums?limit=10", s.baseURL, id)
	if err := s.getJSON(ctx, albumsURL, &albums); err != nil {
		return nil, err
	}
	if len(albums.Data) > 0 {
		release := parseReleaseDate(albums.Data[0].ReleaseDate)
		if !releasedWithin(release, s.config.MaxReleaseAgeMonths, now) {
			return nil, nil
		}
	}

	var top deezerTrackListResponse
	topURL := fmt.Sprintf("%s/artist/%d/top?limit=10", s.baseURL, id)
	if err := s.getJSON(ctx, topURL, &top); err != nil {
		return nil, err
	}

	ranks := make([]int, 0, len(top.Data))
	for _, t := range top.Data {
		ranks = append(ranks, t.Rank)
	}
	engagement := engagementRate(ranks)

	artistID := fmt.Sprintf("%d", a.ID)

	return &Discovery{
		Artist: artist.Artist{
			ArtistID:    artistID,
			Name:        a.Name,
			Platform:    artist.PlatformDeezer,
			URL:         a.Link,
			ImageURL:    a.Picture,
			FirstSeen:   now,
			LastUpdated: now,
		},
		Snapshot: metric.Snapshot{
			ArtistID:       artistID,
			Platform:       artist.PlatformDeezer,
			CollectedAt:    now,
			Fans:           a.NbFan,
			TotalAlbums:    a.NbAlbum,
			EngagementRate: engagement,
			HasRadio:       a.HasRadio,
		},
	}, nil
}

/// engagementRate derives an engagement percentage from top-track ranks:
// the average rank against the rank ceiling, capped at 100. No tracks
// means zero engagement.
func engagementRate(ranks []int) float64 {
	if len(ranks) == 0 {
		return 0
	}

	sum := 0
	for _, r := range ranks {
		sum += r
	}
	avg := float64(sum) / float64(len(ranks))

	rate := math.Min(avg/engagementRankCeiling*100, 100)
	return math.Round(rate*100) / 100
}

// getJSON performs a GET against the public Deezer API and decodes the
// JSON response.
func (s *DeezerScraper) getJSON(ctx context.Context, rawURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deezer API returned status code %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
