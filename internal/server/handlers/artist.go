// internal/server/handlers/artist.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"soundscout/internal/adapter/storage"
	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// ArtistDirectory provides read access to tracked artists.
type ArtistDirectory interface {
	ListRanked(ctx context.Context, filter artist.Filter) ([]storage.RankedArtist, error)
	GetArtist(ctx context.Context, key artist.Key) (*artist.Artist, error)
	GetStats(ctx context.Context) (*storage.Stats, error)
}

// SnapshotHistory provides read access to an artist's metric history.
type SnapshotHistory interface {
	History(ctx context.Context, key artist.Key, limit int) ([]metric.Snapshot, error)
	LatestTwo(ctx context.Context, key artist.Key) (latest, previous *metric.Snapshot, err error)
}

// ArtistHandler handles artist-related HTTP requests.
type ArtistHandler struct {
	artists   ArtistDirectory
	snapshots SnapshotHistory
}

// NewArtistHandler creates a new artist handler.
func NewArtistHandler(artists ArtistDirectory, snapshots SnapshotHistory) *ArtistHandler {
	return &ArtistHandler{
		artists:   artists,
		snapshots: snapshots,
	}
}

type artistResponse struct {
	ArtistID    string    `json:"artist_id"`
	Name        string    `json:"name"`
	Platform    string    `json:"platform"`
	URL         string    `json:"url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Genres      string    `json:"genres,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

type snapshotResponse struct {
	CollectedAt        time.Time `json:"collected_at"`
	Followers          int       `json:"followers,omitempty"`
	Popularity         int       `json:"popularity,omitempty"`
	AvgTrackPopularity float64   `json:"avg_track_popularity,omitempty"`
	GrowthIndicator    float64   `json:"growth_indicator,omitempty"`
	LastRelease        string    `json:"last_release,omitempty"`
	Fans               int       `json:"fans,omitempty"`
	TotalAlbums        int       `json:"total_albums,omitempty"`
	EngagementRate     float64   `json:"engagement_rate,omitempty"`
	HasRadio           bool      `json:"has_radio,omitempty"`
	ScorePotential     float64   `json:"score_potential"`
}

type rankedArtistResponse struct {
	artistResponse
	Latest snapshotResponse `json:"latest"`
}

// ListArtists returns tracked artists ranked by latest potential score.
func (h *ArtistHandler) ListArtists(w http.ResponseWriter, r *http.Request) {
	filter := artist.Filter{}

	if platformParam := r.URL.Query().Get("platform"); platformParam != "" {
		platform, ok := parsePlatform(platformParam)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Unknown platform")
			return
		}
		filter.Platform = platform
	}

	filter.MinScore, _ = strconv.ParseFloat(r.URL.Query().Get("min_score"), 64)
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	ranked, err := h.artists.ListRanked(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list artists")
		return
	}

	response := make([]rankedArtistResponse, 0, len(ranked))
	for _, ra := range ranked {
		response = append(response, rankedArtistResponse{
			artistResponse: toArtistResponse(ra.Artist),
			Latest:         toSnapshotResponse(ra.Snapshot),
		})
	}

	respondWithJSON(w, http.StatusOK, response)
}

type artistDetailResponse struct {
	artistResponse
	Latest   *snapshotResponse `json:"latest,omitempty"`
	Previous *snapshotResponse `json:"previous,omitempty"`
}

// GetArtist returns one artist record with its two most recent
// snapshots, so the dashboard can show the current trend.
func (h *ArtistHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	key, ok := artistKeyFromRequest(w, r)
	if !ok {
		return
	}

	a, err := h.artists.GetArtist(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Artist not found")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get artist")
		}
		return
	}

	latest, previous, err := h.snapshots.LatestTwo(r.Context(), key)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get snapshots")
		return
	}

	detail := artistDetailResponse{artistResponse: toArtistResponse(*a)}
	if latest != nil {
		resp := toSnapshotResponse(*latest)
		detail.Latest = &resp
	}
	if previous != nil {
		resp := toSnapshotResponse(*previous)
		detail.Previous = &resp
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// GetArtistHistory returns an artist's snapshot history, newest first.
func (h *ArtistHandler) GetArtistHistory(w http.ResponseWriter, r *http.Request) {
	key, ok := artistKeyFromRequest(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.snapshots.History(r.Context(), key, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	response := make([]snapshotResponse, 0, len(history))
	for _, snap := range history {
		response = append(response, toSnapshotResponse(snap))
	}

	respondWithJSON(w, http.StatusOK, response)
}

// GetStats returns population summary statistics.
func (h *ArtistHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.artists.GetStats(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_artists":  stats.TotalArtists,
		"spotify_count":  stats.SpotifyCount,
		"deezer_count":   stats.DeezerCount,
		"average_score":  stats.AverageScore,
		"unseen_alerts":  stats.UnseenAlerts,
		"last_collected": stats.LastCollected,
	})
}

func artistKeyFromRequest(w http.ResponseWriter, r *http.Request) (artist.Key, bool) {
	platform, ok := parsePlatform(chi.URLParam(r, "platform"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown platform")
		return artist.Key{}, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing artist ID")
		return artist.Key{}, false
	}

	return artist.Key{ArtistID: id, Platform: platform}, true
}

func toArtistResponse(a artist.Artist) artistResponse {
	return artistResponse{
		ArtistID:    a.ArtistID,
		Name:        a.Name,
		Platform:    string(a.Platform),
		URL:         a.URL,
		ImageURL:    a.ImageURL,
		Genres:      a.Genres,
		FirstSeen:   a.FirstSeen,
		LastUpdated: a.LastUpdated,
	}
}

func toSnapshotResponse(s metric.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		CollectedAt:        s.CollectedAt,
		Followers:          s.Followers,
		Popularity:         s.Popularity,
		AvgTrackPopularity: s.AvgTrackPopularity,
		GrowthIndicator:    s.GrowthIndicator,
		Fans:               s.Fans,
		TotalAlbums:        s.TotalAlbums,
		EngagementRate:     s.EngagementRate,
		HasRadio:           s.HasRadio,
		ScorePotential:     s.ScorePotential,
	}
	if !s.LastRelease.IsZero() {
		resp.LastRelease = s.LastRelease.Format("2006-01-02")
	}
	return resp
}
