// internal/server/handlers/artist_test.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundscout/internal/adapter/storage"
	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

type stubDirectory struct {
	ranked   []storage.RankedArtist
	artists  map[artist.Key]*artist.Artist
	lastSeen artist.Filter
}

func (s *stubDirectory) ListRanked(ctx context.Context, filter artist.Filter) ([]storage.RankedArtist, error) {
	s.lastSeen = filter
	return s.ranked, nil
}

func (s *stubDirectory) GetArtist(ctx context.Context, key artist.Key) (*artist.Artist, error) {
	if a, ok := s.artists[key]; ok {
		return a, nil
	}
	return nil, storage.ErrNotFound
}

func (s *stubDirectory) GetStats(ctx context.Context) (*storage.Stats, error) {
	return &storage.Stats{TotalArtists: 3, SpotifyCount: 2, DeezerCount: 1, AverageScore: 61.5}, nil
}

type stubHistory struct {
	snapshots []metric.Snapshot
}

func (s *stubHistory) History(ctx context.Context, key artist.Key, limit int) ([]metric.Snapshot, error) {
	return s.snapshots, nil
}

func (s *stubHistory) LatestTwo(ctx context.Context, key artist.Key) (*metric.Snapshot, *metric.Snapshot, error) {
	if len(s.snapshots) == 0 {
		return nil, nil, nil
	}
	if len(s.snapshots) == 1 {
		return &s.snapshots[0], nil, nil
	}
	return &s.snapshots[0], &s.snapshots[1], nil
}

func newArtistRouter(dir *stubDirectory, hist *stubHistory) *chi.Mux {
	h := NewArtistHandler(dir, hist)
	r := chi.NewRouter()
	r.Get("/artists", h.ListArtists)
	r.Get("/artists/{platform}/{id}", h.GetArtist)
	r.Get("/artists/{platform}/{id}/history", h.GetArtistHistory)
	r.Get("/stats", h.GetStats)
	return r
}

func TestListArtists(t *testing.T) {
	dir := &stubDirectory{
		ranked: []storage.RankedArtist{
			{
				Artist:   artist.Artist{ArtistID: "a1", Name: "Zola", Platform: artist.PlatformSpotify},
				Snapshot: metric.Snapshot{ScorePotential: 80.5, Followers: 12000},
			},
		},
	}
	r := newArtistRouter(dir, &stubHistory{})

	req := httptest.NewRequest(http.MethodGet, "/artists?platform=deezer&min_score=70&limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, artist.PlatformDeezer, dir.lastSeen.Platform)
	assert.Equal(t, 70.0, dir.lastSeen.MinScore)
	assert.Equal(t, 10, dir.lastSeen.Limit)

	var resp []struct {
		Name   string `json:"name"`
		Latest struct {
			ScorePotential float64 `json:"score_potential"`
		} `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Zola", resp[0].Name)
	assert.Equal(t, 80.5, resp[0].Latest.ScorePotential)
}

func TestListArtistsRejectsUnknownPlatform(t *testing.T) {
	r := newArtistRouter(&stubDirectory{}, &stubHistory{})

	req := httptest.NewRequest(http.MethodGet, "/artists?platform=youtube", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArtist(t *testing.T) {
	key := artist.Key{ArtistID: "a1", Platform: artist.PlatformSpotify}
	dir := &stubDirectory{
		artists: map[artist.Key]*artist.Artist{
			key: {ArtistID: "a1", Name: "Zola", Platform: artist.PlatformSpotify},
		},
	}
	hist := &stubHistory{
		snapshots: []metric.Snapshot{
			{Followers: 12000, ScorePotential: 80.5},
			{Followers: 10000, ScorePotential: 74},
		},
	}
	r := newArtistRouter(dir, hist)

	req := httptest.NewRequest(http.MethodGet, "/artists/spotify/a1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name   string `json:"name"`
		Latest *struct {
			Followers int `json:"followers"`
		} `json:"latest"`
		Previous *struct {
			Followers int `json:"followers"`
		} `json:"previous"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Zola", resp.Name)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, 12000, resp.Latest.Followers)
	require.NotNil(t, resp.Previous)
	assert.Equal(t, 10000, resp.Previous.Followers)

	req = httptest.NewRequest(http.MethodGet, "/artists/spotify/missing", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetArtistHistory(t *testing.T) {
	hist := &stubHistory{
		snapshots: []metric.Snapshot{
			{
				CollectedAt:    time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
				Fans:           9000,
				ScorePotential: 72.25,
			},
			{
				CollectedAt:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				Fans:           7000,
				ScorePotential: 65,
			},
		},
	}
	r := newArtistRouter(&stubDirectory{}, hist)

	req := httptest.NewRequest(http.MethodGet, "/artists/deezer/42/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []struct {
		Fans           int     `json:"fans"`
		ScorePotential float64 `json:"score_potential"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, 9000, resp[0].Fans)
	assert.Equal(t, 72.25, resp[0].ScorePotential)
}

func TestGetStats(t *testing.T) {
	r := newArtistRouter(&stubDirectory{}, &stubHistory{})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["total_artists"])
	assert.Equal(t, 61.5, resp["average_score"])
}
