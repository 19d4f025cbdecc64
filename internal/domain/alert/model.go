// internal/domain/alert/model.go

package alert

import (
	"time"

	"soundscout/internal/domain/artist"
)

// Type classifies an alert.
type Type string

const (
	// TypeGrowth signals a sharp increase of the primary audience metric
	// between two consecutive snapshots.
	TypeGrowth Type = "FORTE_CROISSANCE"

	// TypeScoreImprovement signals a large potential-score increase
	// between two consecutive snapshots.
	TypeScoreImprovement Type = "AMELIORATION_SCORE"
)

// Alert is a notification generated by the growth detector. Alerts are
// append-only; the dashboard marks them seen but never deletes them.
type Alert struct {
	ID         string
	ArtistID   string
	ArtistName string
	Platform   artist.Platform
	Type       Type
	Message    string
	CreatedAt  time.Time
	Seen       bool
}
