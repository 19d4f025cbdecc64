// internal/adapter/storage/snapshot_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
	"soundscout/internal/service/alerting"
)

// SnapshotStore implements append-only storage for metric snapshots.
type SnapshotStore struct {
	db *pgxpool.Pool
}

// NewSnapshotStore creates a new snapshot store.
func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const snapshotColumns = `
	artist_id, platform, collected_at, followers, popularity,
	avg_track_popularity, growth_indicator, last_release, fans,
	total_albums, engagement_rate, has_radio, score_potential`

// InsertSnapshot appends one observation. A snapshot colliding on
// (artist_id, platform, collected_at) is ignored rather than updated;
// snapshots are immutable.
func (s *SnapshotStore) InsertSnapshot(ctx context.Context, snap metric.Snapshot) error {
	query := `
		INSERT INTO metric_history (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (artist_id, platform, collected_at) DO NOTHING
	`

	var lastRelease *time.Time
	if !snap.LastRelease.IsZero() {
		lastRelease = &snap.LastRelease
	}

	_, err := s.db.Exec(ctx, query,
		snap.ArtistID, snap.Platform, snap.CollectedAt,
		snap.Followers, snap.Popularity, snap.AvgTrackPopularity,
		snap.GrowthIndicator, lastRelease, snap.Fans,
		snap.TotalAlbums, snap.EngagementRate, snap.HasRadio,
		snap.ScorePotential)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	return nil
}

// LatestTwo returns the most recent snapshot and the one immediately
// preceding it. Either may be nil when fewer than two exist.
func (s *SnapshotStore) LatestTwo(ctx context.Context, key artist.Key) (latest, previous *metric.Snapshot, err error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM metric_history
		WHERE artist_id = $1 AND platform = $2
		ORDER BY collected_at DESC
		LIMIT 2
	`

	rows, err := s.db.Query(ctx, query, key.ArtistID, key.Platform)
	if err != nil {
		return nil, nil, fmt.Errorf("querying latest snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*metric.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating snapshots: %w", err)
	}

	if len(snaps) > 0 {
		latest = snaps[0]
	}
	if len(snaps) > 1 {
		previous = snaps[1]
	}
	return latest, previous, nil
}

// History returns up to limit snapshots for one artist, newest first.
func (s *SnapshotStore) History(ctx context.Context, key artist.Key, limit int) ([]metric.Snapshot, error) {
	if limit <= 0 {
		limit = 90
	}

	query := `
		SELECT ` + snapshotColumns + `
		FROM metric_history
		WHERE artist_id = $1 AND platform = $2
		ORDER BY collected_at DESC
		LIMIT $3
	`

	rows, err := s.db.Query(ctx, query, key.ArtistID, key.Platform, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot history: %w", err)
	}
	defer rows.Close()

	var history []metric.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		history = append(history, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot history: %w", err)
	}

	return history, nil
}

// ListPairs returns the latest/previous snapshot pair for every artist
// with at least two snapshots, joined with the identity record for
// denormalized alert fields.
func (s *SnapshotStore) ListPairs(ctx context.Context) ([]alerting.Pair, error) {
	query := `
		WITH ranked AS (
			SELECT ` + snapshotColumns + `,
				ROW_NUMBER() OVER (PARTITION BY artist_id, platform ORDER BY collected_at DESC) AS rn
			FROM metric_history
		)
		SELECT a.artist_id, a.name, a.platform,
			l.collected_at, l.followers, l.popularity, l.avg_track_popularity,
			l.growth_indicator, l.last_release, l.fans, l.total_albums,
			l.engagement_rate, l.has_radio, l.score_potential,
			p.collected_at, p.followers, p.popularity, p.avg_track_popularity,
			p.growth_indicator, p.last_release, p.fans, p.total_albums,
			p.engagement_rate, p.has_radio, p.score_potential
		FROM ranked l
		JOIN ranked p
			ON p.artist_id = l.artist_id AND p.platform = l.platform AND p.rn = 2
		JOIN artists a
			ON a.artist_id = l.artist_id AND a.platform = l.platform
		WHERE l.rn = 1
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot pairs: %w", err)
	}
	defer rows.Close()

	var pairs []alerting.Pair
	for rows.Next() {
		var (
			p                      alerting.Pair
			latest, previous       metric.Snapshot
			latestRel, previousRel *time.Time
		)

		err := rows.Scan(
			&p.Artist.ArtistID, &p.Artist.Name, &p.Artist.Platform,
			&latest.CollectedAt, &latest.Followers, &latest.Popularity,
			&latest.AvgTrackPopularity, &latest.GrowthIndicator, &latestRel,
			&latest.Fans, &latest.TotalAlbums, &latest.EngagementRate,
			&latest.HasRadio, &latest.ScorePotential,
			&previous.CollectedAt, &previous.Followers, &previous.Popularity,
			&previous.AvgTrackPopularity, &previous.GrowthIndicator, &previousRel,
			&previous.Fans, &previous.TotalAlbums, &previous.EngagementRate,
			&previous.HasRadio, &previous.ScorePotential)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot pair: %w", err)
		}

		latest.ArtistID = p.Artist.ArtistID
		latest.Platform = p.Artist.Platform
		previous.ArtistID = p.Artist.ArtistID
		previous.Platform = p.Artist.Platform
		if latestRel != nil {
			latest.LastRelease = *latestRel
		}
		if previousRel != nil {
			previous.LastRelease = *previousRel
		}

		p.Latest = &latest
		p.Previous = &previous
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot pairs: %w", err)
	}

	return pairs, nil
}

// scanSnapshot scans one full snapshot row.
func scanSnapshot(scan func(...interface{}) error) (*metric.Snapshot, error) {
	var snap metric.Snapshot
	var lastRelease *time.Time

	err := scan(
		&snap.ArtistID, &snap.Platform, &snap.CollectedAt,
		&snap.Followers, &snap.Popularity, &snap.AvgTrackPopularity,
		&snap.GrowthIndicator, &lastRelease, &snap.Fans,
		&snap.TotalAlbums, &snap.EngagementRate, &snap.HasRadio,
		&snap.ScorePotential)
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	if lastRelease != nil {
		snap.LastRelease = *lastRelease
	}
	return &snap, nil
}
