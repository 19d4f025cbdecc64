// internal/server/handlers/alert.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"soundscout/internal/adapter/storage"
	"soundscout/internal/domain/alert"
)

// AlertFeed provides read/acknowledge access to growth alerts.
type AlertFeed interface {
	ListAlerts(ctx context.Context, unseenOnly bool, limit int) ([]alert.Alert, error)
	MarkSeen(ctx context.Context, id string) error
}

// AlertHandler handles alert-related HTTP requests.
type AlertHandler struct {
	alerts AlertFeed
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alerts AlertFeed) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

type alertResponse struct {
	ID         string    `json:"id"`
	ArtistID   string    `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	Platform   string    `json:"platform"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	Seen       bool      `json:"seen"`
}

// ListAlerts returns alerts newest first. ?unseen=true narrows the
// feed to unacknowledged alerts.
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	unseenOnly, _ := strconv.ParseBool(r.URL.Query().Get("unseen"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	alerts, err := h.alerts.ListAlerts(r.Context(), unseenOnly, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	response := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		response = append(response, alertResponse{
			ID:         a.ID,
			ArtistID:   a.ArtistID,
			ArtistName: a.ArtistName,
			Platform:   string(a.Platform),
			Type:       string(a.Type),
			Message:    a.Message,
			CreatedAt:  a.CreatedAt,
			Seen:       a.Seen,
		})
	}

	respondWithJSON(w, http.StatusOK, response)
}

// MarkAlertSeen acknowledges one alert.
func (h *AlertHandler) MarkAlertSeen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	if err := h.alerts.MarkSeen(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Alert not found")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to mark alert seen")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "seen"})
}
