// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"soundscout/internal/adapter/storage"
	"soundscout/internal/config"
	"soundscout/internal/domain/scoring"
	"soundscout/internal/server"
	"soundscout/internal/service/alerting"
	"soundscout/internal/service/scouting"
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		// The API and the collector both degrade gracefully without the
		// event bus; only the live stream goes dark.
		logger.Warn("Running without NATS", zap.Error(err))
	} else {
		defer natsConn.Close()
	}

	// Initialize storage adapters
	artistStore := storage.NewArtistStore(db)
	snapshotStore := storage.NewSnapshotStore(db)
	alertStore := storage.NewAlertStore(db)

	// Initialize scoring engine
	engine := scoring.NewEngine(
		scoring.WithDeezerProfile(scoring.DeezerProfile(cfg.Scout.DeezerProfile)),
	)

	// Initialize alert detector
	detector := alerting.NewDetector(
		snapshotStore,
		alertStore,
		natsConn,
		alerting.Config{
			GrowthPercentThreshold: cfg.Alerting.GrowthPercentThreshold,
			ScoreDeltaThreshold:    cfg.Alerting.ScoreDeltaThreshold,
			EventsTopic:            cfg.Alerting.EventsTopic,
		},
		logger,
	)

	// Initialize platform scrapers
	scrapers := buildScrapers(cfg.Scout, logger)

	// Initialize the collection loop
	collector := scouting.NewCollector(
		scrapers,
		engine,
		artistStore,
		snapshotStore,
		detector,
		natsConn,
		scouting.CollectorConfig{
			CollectInterval: cfg.Scout.CollectInterval,
			EventsTopic:     cfg.Scout.EventsTopic,
			CollectOnStart:  cfg.Scout.CollectOnStart,
		},
		logger,
	)

	if err := collector.Start(ctx); err != nil {
		logger.Fatal("Failed to start collector", zap.Error(err))
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg,
		server.Stores{
			Artists:   artistStore,
			Snapshots: snapshotStore,
			Alerts:    alertStore,
		},
		natsConn,
		logger,
	)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := collector.Stop(shutdownCtx); err != nil {
		logger.Error("Collector shutdown error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// newLogger builds the process logger for the environment.
func newLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildScrapers wires one scraper per configured platform. Deezer needs
// no credentials; Spotify is skipped without them.
func buildScrapers(cfg config.ScoutConfig, logger *zap.Logger) []scouting.Scraper {
	var scrapers []scouting.Scraper

	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		spotifyCfg := scouting.DefaultSpotifyConfig()
		spotifyCfg.ClientID = cfg.SpotifyClientID
		spotifyCfg.ClientSecret = cfg.SpotifyClientSecret
		if cfg.SpotifyMarket != "" {
			spotifyCfg.Market = cfg.SpotifyMarket
		}
		scrapers = append(scrapers, scouting.NewSpotifyScraper(spotifyCfg, logger))
	} else {
		logger.Warn("Spotify credentials not set, skipping Spotify collection")
	}

	scrapers = append(scrapers, scouting.NewDeezerScraper(scouting.DefaultDeezerConfig(), logger))

	return scrapers
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
