// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"soundscout/internal/config"
	"soundscout/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Stores bundles the storage dependencies the API serves from.
type Stores struct {
	Artists   handlers.ArtistDirectory
	Snapshots handlers.SnapshotHistory
	Alerts    handlers.AlertFeed
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	stores Stores,
	natsConn *nats.Conn,
	logger *zap.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	artistHandler := handlers.NewArtistHandler(stores.Artists, stores.Snapshots)
	alertHandler := handlers.NewAlertHandler(stores.Alerts)
	authHandler := handlers.NewAuthHandler(cfg.Auth)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Post("/auth/login", authHandler.Login)

			// Dashboard API
			r.Group(func(r chi.Router) {
				r.Use(authHandler.RequireAuth)

				// Artists API
				r.Route("/artists", func(r chi.Router) {
					r.Get("/", artistHandler.ListArtists)
					r.Get("/{platform}/{id}", artistHandler.GetArtist)
					r.Get("/{platform}/{id}/history", artistHandler.GetArtistHistory)
				})

				// Alerts API
				r.Route("/alerts", func(r chi.Router) {
					r.Get("/", alertHandler.ListAlerts)
					r.Post("/{id}/seen", alertHandler.MarkAlertSeen)
				})

				r.Get("/stats", artistHandler.GetStats)
			})
		})
	})

	// WebSocket endpoint for real-time alert and snapshot events
	streamTopics := []string{
		cfg.Alerting.EventsTopic + ".created",
		cfg.Scout.EventsTopic + ".collected",
	}
	router.Get("/ws/alerts", handlers.AlertStreamHandler(natsConn, streamTopics, logger))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
