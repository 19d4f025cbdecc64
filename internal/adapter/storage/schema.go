// internal/adapter/storage/schema.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schema holds the DDL for all tables. Tables are append-mostly; only
// artists.last_updated and alerts.seen are ever mutated.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id SERIAL PRIMARY KEY,
		artist_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		platform VARCHAR(50) NOT NULL,
		url TEXT,
		image_url TEXT,
		genres TEXT,
		first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (artist_id, platform)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artists_artist_id ON artists (artist_id)`,

	`CREATE TABLE IF NOT EXISTS metric_history (
		id SERIAL PRIMARY KEY,
		artist_id VARCHAR(255) NOT NULL,
		platform VARCHAR(50) NOT NULL,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		followers INTEGER NOT NULL DEFAULT 0,
		popularity INTEGER NOT NULL DEFAULT 0,
		avg_track_popularity DECIMAL(5,2) NOT NULL DEFAULT 0,
		growth_indicator DECIMAL(6,2) NOT NULL DEFAULT 0,
		last_release DATE,
		fans INTEGER NOT NULL DEFAULT 0,
		total_albums INTEGER NOT NULL DEFAULT 0,
		engagement_rate DECIMAL(5,2) NOT NULL DEFAULT 0,
		has_radio BOOLEAN NOT NULL DEFAULT FALSE,
		score_potential DECIMAL(5,2) NOT NULL DEFAULT 0,
		UNIQUE (artist_id, platform, collected_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_metric_history_artist_platform
		ON metric_history (artist_id, platform)`,
	`CREATE INDEX IF NOT EXISTS idx_metric_history_collected_at
		ON metric_history (collected_at DESC)`,

	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY,
		artist_id VARCHAR(255) NOT NULL,
		artist_name VARCHAR(255),
		platform VARCHAR(50),
		alert_type VARCHAR(100),
		message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		seen BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_artist ON alerts (artist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_seen ON alerts (seen, created_at DESC)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement: %w", err)
		}
	}
	return nil
}
