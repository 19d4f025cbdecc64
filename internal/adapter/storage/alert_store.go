// internal/adapter/storage/alert_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"soundscout/internal/domain/alert"
)

// AlertStore implements storage for alerts.
type AlertStore struct {
	db *pgxpool.Pool
}

// NewAlertStore creates a new alert store.
func NewAlertStore(db *pgxpool.Pool) *AlertStore {
	return &AlertStore{db: db}
}

// SaveAlert appends one alert.
func (s *AlertStore) SaveAlert(ctx context.Context, a alert.Alert) error {
	query := `
		INSERT INTO alerts (id, artist_id, artist_name, platform, alert_type, message, created_at, seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.db.Exec(ctx, query,
		a.ID, a.ArtistID, a.ArtistName, a.Platform, a.Type,
		a.Message, a.CreatedAt, a.Seen)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts newest first. With unseenOnly set, seen
// alerts are excluded.
func (s *AlertStore) ListAlerts(ctx context.Context, unseenOnly bool, limit int) ([]alert.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, artist_id, COALESCE(artist_name, ''), COALESCE(platform, ''),
			COALESCE(alert_type, ''), COALESCE(message, ''), created_at, seen
		FROM alerts
	`
	if unseenOnly {
		query += " WHERE seen = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT $1"

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := rows.Scan(&a.ID, &a.ArtistID, &a.ArtistName, &a.Platform,
			&a.Type, &a.Message, &a.CreatedAt, &a.Seen); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}

	return alerts, nil
}

// MarkSeen marks one alert as seen.
func (s *AlertStore) MarkSeen(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE alerts SET seen = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("marking alert seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
