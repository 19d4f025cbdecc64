// internal/server/handlers/alert_test.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundscout/internal/adapter/storage"
	"soundscout/internal/domain/alert"
)

type stubAlertFeed struct {
	alerts     []alert.Alert
	seen       []string
	unseenOnly bool
}

func (s *stubAlertFeed) ListAlerts(ctx context.Context, unseenOnly bool, limit int) ([]alert.Alert, error) {
	s.unseenOnly = unseenOnly
	return s.alerts, nil
}

func (s *stubAlertFeed) MarkSeen(ctx context.Context, id string) error {
	for _, a := range s.alerts {
		if a.ID == id {
			s.seen = append(s.seen, id)
			return nil
		}
	}
	return storage.ErrNotFound
}

func newAlertRouter(feed *stubAlertFeed) *chi.Mux {
	h := NewAlertHandler(feed)
	r := chi.NewRouter()
	r.Get("/alerts", h.ListAlerts)
	r.Post("/alerts/{id}/seen", h.MarkAlertSeen)
	return r
}

func TestListAlerts(t *testing.T) {
	feed := &stubAlertFeed{
		alerts: []alert.Alert{
			{
				ID:         uuid.New().String(),
				ArtistID:   "a1",
				ArtistName: "Zola",
				Type:       alert.TypeGrowth,
				Message:    "25.0% growth on Spotify (1000 -> 1250)",
				CreatedAt:  time.Now(),
			},
		},
	}
	r := newAlertRouter(feed)

	req := httptest.NewRequest(http.MethodGet, "/alerts?unseen=true", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, feed.unseenOnly)

	var resp []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "FORTE_CROISSANCE", resp[0].Type)
	assert.Equal(t, "25.0% growth on Spotify (1000 -> 1250)", resp[0].Message)
}

func TestMarkAlertSeen(t *testing.T) {
	id := uuid.New().String()
	feed := &stubAlertFeed{alerts: []alert.Alert{{ID: id}}}
	r := newAlertRouter(feed)

	req := httptest.NewRequest(http.MethodPost, "/alerts/"+id+"/seen", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{id}, feed.seen)
}

func TestMarkAlertSeenErrors(t *testing.T) {
	feed := &stubAlertFeed{}
	r := newAlertRouter(feed)

	// Malformed ID.
	req := httptest.NewRequest(http.MethodPost, "/alerts/not-a-uuid/seen", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown ID.
	req = httptest.NewRequest(http.MethodPost, "/alerts/"+uuid.New().String()+"/seen", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
