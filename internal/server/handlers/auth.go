// internal/server/handlers/auth.go

package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"soundscout/internal/config"
)

// AuthHandler handles dashboard login and token verification.
type AuthHandler struct {
	config config.AuthConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(config config.AuthConfig) *AuthHandler {
	return &AuthHandler{config: config}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies the admin credentials and issues a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if h.config.AdminPasswordHash == "" {
		respondWithError(w, http.StatusServiceUnavailable, "Login is not configured")
		return
	}

	hash := sha256.Sum256([]byte(req.Password))
	hashHex := hex.EncodeToString(hash[:])

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.config.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(hashHex), []byte(strings.ToLower(h.config.AdminPasswordHash))) == 1
	if !userOK || !passOK {
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	expiresAt := time.Now().Add(h.config.TokenExpiry)
	claims := jwt.RegisteredClaims{
		Subject:   req.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.config.TokenSecret))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to sign token")
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
	})
}

// RequireAuth validates the bearer token on protected routes. When no
// admin password hash is configured the API runs open; this keeps
// local development setups working without credentials.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.config.AdminPasswordHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.config.TokenSecret), nil
		})
		if err != nil || !token.Valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
