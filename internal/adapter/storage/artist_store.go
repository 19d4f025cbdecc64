// internal/adapter/storage/artist_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// RankedArtist is an artist joined with its most recent snapshot,
// ordered by potential score.
type RankedArtist struct {
	Artist   artist.Artist
	Snapshot metric.Snapshot
}

// Stats summarizes the tracked population for the dashboard.
type Stats struct {
	TotalArtists  int
	SpotifyCount  int
	DeezerCount   int
	AverageScore  float64
	UnseenAlerts  int
	LastCollected *time.Time
}

// ArtistStore implements storage for artist identity records.
type ArtistStore struct {
	db *pgxpool.Pool
}

// NewArtistStore creates a new artist store.
func NewArtistStore(db *pgxpool.Pool) *ArtistStore {
	return &ArtistStore{db: db}
}

// UpsertArtist inserts the identity record on first observation. An
// existing record only refreshes its mutable fields, never its identity
// or first_seen.
func (s *ArtistStore) UpsertArtist(ctx context.Context, a artist.Artist) error {
	query := `
		INSERT INTO artists (artist_id, name, platform, url, image_url, genres, first_seen, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (artist_id, platform) DO UPDATE
		SET name = $2,
			url = $4,
			image_url = $5,
			genres = $6,
			last_updated = $8
	`

	_, err := s.db.Exec(ctx, query,
		a.ArtistID, a.Name, a.Platform, a.URL, a.ImageURL, a.Genres,
		a.FirstSeen, a.LastUpdated)
	if err != nil {
		return fmt.Errorf("upserting artist: %w", err)
	}
	return nil
}

// GetArtist returns one artist record.
func (s *ArtistStore) GetArtist(ctx context.Context, key artist.Key) (*artist.Artist, error) {
	query := `
		SELECT artist_id, name, platform, COALESCE(url, ''), COALESCE(image_url, ''),
			COALESCE(genres, ''), first_seen, last_updated
		FROM artists
		WHERE artist_id = $1 AND platform = $2
	`

	var a artist.Artist
	err := s.db.QueryRow(ctx, query, key.ArtistID, key.Platform).Scan(
		&a.ArtistID, &a.Name, &a.Platform, &a.URL, &a.ImageURL,
		&a.Genres, &a.FirstSeen, &a.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying artist: %w", err)
	}
	return &a, nil
}

// ListRanked returns artists joined with their latest snapshot, ordered
// by potential score descending.
func (s *ArtistStore) ListRanked(ctx context.Context, filter artist.Filter) ([]RankedArtist, error) {
	query := `
		WITH ranked AS (
			SELECT m.*,
				ROW_NUMBER() OVER (PARTITION BY m.artist_id, m.platform ORDER BY m.collected_at DESC) AS rn
			FROM metric_history m
		)
		SELECT a.artist_id, a.name, a.platform, COALESCE(a.url, ''), COALESCE(a.image_url, ''),
			COALESCE(a.genres, ''), a.first_seen, a.last_updated,
			r.collected_at, r.followers, r.popularity, r.avg_track_popularity,
			r.growth_indicator, r.last_release, r.fans, r.total_albums,
			r.engagement_rate, r.has_radio, r.score_potential
		FROM ranked r
		JOIN artists a ON a.artist_id = r.artist_id AND a.platform = r.platform
		WHERE r.rn = 1 AND r.score_potential >= $1
	`

	args := []interface{}{filter.MinScore}
	argIndex := 2

	if filter.Platform != "" {
		query += fmt.Sprintf(" AND a.platform = $%d", argIndex)
		args = append(args, filter.Platform)
		argIndex++
	}

	query += " ORDER BY r.score_potential DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ranked artists: %w", err)
	}
	defer rows.Close()

	var ranked []RankedArtist
	for rows.Next() {
		var r RankedArtist
		if err := scanRankedArtist(rows, &r); err != nil {
			return nil, err
		}
		ranked = append(ranked, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ranked artists: %w", err)
	}

	return ranked, nil
}

// GetStats returns population summary statistics.
func (s *ArtistStore) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE platform = 'Spotify'),
			COUNT(*) FILTER (WHERE platform = 'Deezer')
		FROM artists
	`
	if err := s.db.QueryRow(ctx, query).Scan(
		&stats.TotalArtists, &stats.SpotifyCount, &stats.DeezerCount); err != nil {
		return nil, fmt.Errorf("querying artist counts: %w", err)
	}

	scoreQuery := `
		WITH ranked AS (
			SELECT score_potential,
				ROW_NUMBER() OVER (PARTITION BY artist_id, platform ORDER BY collected_at DESC) AS rn
			FROM metric_history
		)
		SELECT COALESCE(AVG(score_potential), 0) FROM ranked WHERE rn = 1
	`
	if err := s.db.QueryRow(ctx, scoreQuery).Scan(&stats.AverageScore); err != nil {
		return nil, fmt.Errorf("querying average score: %w", err)
	}

	alertQuery := `SELECT COUNT(*) FROM alerts WHERE seen = FALSE`
	if err := s.db.QueryRow(ctx, alertQuery).Scan(&stats.UnseenAlerts); err != nil {
		return nil, fmt.Errorf("querying unseen alerts: %w", err)
	}

	lastQuery := `SELECT MAX(collected_at) FROM metric_history`
	if err := s.db.QueryRow(ctx, lastQuery).Scan(&stats.LastCollected); err != nil {
		return nil, fmt.Errorf("querying last collection time: %w", err)
	}

	return &stats, nil
}

// scanRankedArtist scans one artist + latest snapshot row.
func scanRankedArtist(rows pgx.Rows, r *RankedArtist) error {
	var lastRelease *time.Time

	err := rows.Scan(
		&r.Artist.ArtistID, &r.Artist.Name, &r.Artist.Platform,
		&r.Artist.URL, &r.Artist.ImageURL, &r.Artist.Genres,
		&r.Artist.FirstSeen, &r.Artist.LastUpdated,
		&r.Snapshot.CollectedAt, &r.Snapshot.Followers, &r.Snapshot.Popularity,
		&r.Snapshot.AvgTrackPopularity, &r.Snapshot.GrowthIndicator,
		&lastRelease, &r.Snapshot.Fans, &r.Snapshot.TotalAlbums,
		&r.Snapshot.EngagementRate, &r.Snapshot.HasRadio, &r.Snapshot.ScorePotential)
	if err != nil {
		return fmt.Errorf("scanning ranked artist: %w", err)
	}

	r.Snapshot.ArtistID = r.Artist.ArtistID
	r.Snapshot.Platform = r.Artist.Platform
	if lastRelease != nil {
		r.Snapshot.LastRelease = *lastRelease
	}
	return nil
}
