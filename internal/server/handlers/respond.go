// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"net/http"

	"soundscout/internal/domain/artist"
)

// respondWithJSON writes a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error response.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// parsePlatform normalizes a platform path or query value.
func parsePlatform(value string) (artist.Platform, bool) {
	switch value {
	case "spotify", "Spotify":
		return artist.PlatformSpotify, true
	case "deezer", "Deezer":
		return artist.PlatformDeezer, true
	default:
		return "", false
	}
}
