// cmd/import/main.go

// Command import backfills artists and metric snapshots from a CSV
// export. Rows are scored on the way in so historical data ranks the
// same way freshly collected data does.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"soundscout/internal/adapter/storage"
	"soundscout/internal/config"
	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
	"soundscout/internal/domain/scoring"
)

func main() {
	path := flag.String("file", "", "CSV file to import")
	flag.Parse()

	if *path == "" {
		log.Fatal("usage: import -file <export.csv>")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	file, err := os.Open(*path)
	if err != nil {
		logger.Fatal("Failed to open CSV file", zap.Error(err))
	}
	defer file.Close()

	engine := scoring.NewEngine(
		scoring.WithDeezerProfile(scoring.DeezerProfile(cfg.Scout.DeezerProfile)),
	)

	imported, skipped, err := importCSV(ctx, file,
		storage.NewArtistStore(db), storage.NewSnapshotStore(db), engine, logger)
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Import finished",
		zap.Int("imported", imported),
		zap.Int("skipped", skipped))
}

// importCSV reads the export row by row. Bad rows are logged and
// skipped; only I/O and header problems abort the run.
func importCSV(
	ctx context.Context,
	r io.Reader,
	artists *storage.ArtistStore,
	snapshots *storage.SnapshotStore,
	engine *scoring.Engine,
	logger *zap.Logger,
) (imported, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"artist_id", "name", "platform"} {
		if _, ok := columns[required]; !ok {
			return 0, 0, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("Skipping malformed row", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		a, snap, err := parseRow(record, columns)
		if err != nil {
			logger.Warn("Skipping row", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		score, err := engine.Score(snap)
		if err != nil {
			logger.Warn("Skipping unscorable row",
				zap.Int("line", line),
				zap.String("artist_id", snap.ArtistID),
				zap.Error(err))
			skipped++
			continue
		}
		snap.ScorePotential = score

		if err := artists.UpsertArtist(ctx, a); err != nil {
			return imported, skipped, fmt.Errorf("saving artist at line %d: %w", line, err)
		}
		if err := snapshots.InsertSnapshot(ctx, snap); err != nil {
			return imported, skipped, fmt.Errorf("saving snapshot at line %d: %w", line, err)
		}
		imported++
	}

	return imported, skipped, nil
}

// parseRow maps one CSV record onto the identity record and snapshot.
// Absent numeric columns default to zero.
func parseRow(record []string, columns map[string]int) (artist.Artist, metric.Snapshot, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	intField := func(name string) int {
		v, _ := strconv.Atoi(field(name))
		return v
	}
	floatField := func(name string) float64 {
		v, _ := strconv.ParseFloat(field(name), 64)
		return v
	}

	platform, ok := parsePlatform(field("platform"))
	if !ok {
		return artist.Artist{}, metric.Snapshot{}, fmt.Errorf("unknown platform %q", field("platform"))
	}

	now := time.Now().UTC()
	collectedAt := now
	if raw := field("collected_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return artist.Artist{}, metric.Snapshot{}, fmt.Errorf("bad collected_at %q", raw)
		}
		collectedAt = parsed
	}

	var lastRelease time.Time
	if raw := field("last_release"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return artist.Artist{}, metric.Snapshot{}, fmt.Errorf("bad last_release %q", raw)
		}
		lastRelease = parsed
	}

	a := artist.Artist{
		ArtistID:    field("artist_id"),
		Name:        field("name"),
		Platform:    platform,
		URL:         field("url"),
		ImageURL:    field("image_url"),
		Genres:      field("genres"),
		FirstSeen:   collectedAt,
		LastUpdated: now,
	}

	hasRadio, _ := strconv.ParseBool(field("has_radio"))
	snap := metric.Snapshot{
		ArtistID:           a.ArtistID,
		Platform:           platform,
		CollectedAt:        collectedAt,
		Followers:          intField("followers"),
		Popularity:         intField("popularity"),
		AvgTrackPopularity: floatField("avg_track_popularity"),
		GrowthIndicator:    floatField("growth_indicator"),
		LastRelease:        lastRelease,
		Fans:               intField("fans"),
		TotalAlbums:        intField("total_albums"),
		EngagementRate:     floatField("engagement_rate"),
		HasRadio:           hasRadio,
	}

	return a, snap, nil
}

func parsePlatform(value string) (artist.Platform, bool) {
	switch strings.ToLower(value) {
	case "spotify":
		return artist.PlatformSpotify, true
	case "deezer":
		return artist.PlatformDeezer, true
	default:
		return "", false
	}
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}
