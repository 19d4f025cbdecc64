// internal/service/scouting/collector.go

package scouting

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
	"soundscout/internal/domain/scoring"
)

// Discovery is one artist observation produced by a scraper: the
// identity record plus the raw metric snapshot, before scoring.
type Discovery struct {
	Artist   artist.Artist
	Snapshot metric.Snapshot
}

// Scraper defines a platform data source.
type Scraper interface {
	// Platform returns the platform this scraper collects from.
	Platform() artist.Platform

	// Scrape discovers emerging artists and returns their current
	// metrics.
	Scrape(ctx context.Context) ([]Discovery, error)
}

// ArtistStore persists artist identity records.
type ArtistStore interface {
	UpsertArtist(ctx context.Context, a artist.Artist) error
}

// SnapshotStore persists metric snapshots.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, s metric.Snapshot) error
}

// AlertRunner runs one alert detection pass over the stored snapshots.
type AlertRunner interface {
	Run(ctx context.Context) (int, error)
}

// CollectorConfig contains configuration for the collection loop.
type CollectorConfig struct {
	// CollectInterval is the time between collection cycles.
	CollectInterval time.Duration

	// EventsTopic is the NATS subject prefix for collection events.
	EventsTopic string

	// CollectOnStart runs a cycle immediately instead of waiting for the
	// first tick.
	CollectOnStart bool
}

// Collector drives the periodic collection cycle: scrape each platform,
// score and persist every discovery, then run alert detection once per
// cycle.
type Collector struct {
	scrapers  []Scraper
	engine    *scoring.Engine
	artists   ArtistStore
	snapshots SnapshotStore
	alerts    AlertRunner
	eventBus  *nats.Conn
	config    CollectorConfig
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector creates a collector. eventBus may be nil.
func NewCollector(
	scrapers []Scraper,
	engine *scoring.Engine,
	artists ArtistStore,
	snapshots SnapshotStore,
	alerts AlertRunner,
	eventBus *nats.Conn,
	config CollectorConfig,
	logger *zap.Logger,
) *Collector {
	return &Collector{
		scrapers:  scrapers,
		engine:    engine,
		artists:   artists,
		snapshots: snapshots,
		alerts:    alerts,
		eventBus:  eventBus,
		config:    config,
		logger:    logger,
	}
}

// Start begins the collection loop.
func (c *Collector) Start(ctx context.Context) error {
	if len(c.scrapers) == 0 {
		return fmt.Errorf("no scrapers configured")
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.loop(ctx)

	return nil
}

// Stop cancels the loop and waits for the current cycle to finish.
func (c *Collector) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collector) loop(ctx context.Context) {
	defer c.wg.Done()

	if c.config.CollectOnStart {
		c.RunCycle(ctx)
	}

	ticker := time.NewTicker(c.config.CollectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full collection pass. Scraper and per-artist
// failures are logged and never abort the rest of the cycle.
func (c *Collector) RunCycle(ctx context.Context) {
	start := time.Now()
	collected := 0

	for _, scraper := range c.scrapers {
		platform := scraper.Platform()

		discoveries, err := scraper.Scrape(ctx)
		if err != nil {
			c.logger.Error("scrape failed",
				zap.String("platform", string(platform)),
				zap.Error(err))
			continue
		}

		for _, d := range discoveries {
			if ctx.Err() != nil {
				return
			}
			if err := c.ingest(ctx, d); err != nil {
				c.logger.Warn("skipping artist",
					zap.String("platform", string(platform)),
					zap.String("artist_id", d.Artist.ArtistID),
					zap.String("name", d.Artist.Name),
					zap.Error(err))
				continue
			}
			collected++
		}

		c.logger.Info("platform collected",
			zap.String("platform", string(platform)),
			zap.Int("discoveries", len(discoveries)))
	}

	if c.alerts != nil {
		if _, err := c.alerts.Run(ctx); err != nil {
			c.logger.Error("alert detection failed", zap.Error(err))
		}
	}

	c.logger.Info("collection cycle finished",
		zap.Int("snapshots", collected),
		zap.Duration("elapsed", time.Since(start)))
}

// ingest scores one discovery and persists both the identity record and
// the snapshot.
func (c *Collector) ingest(ctx context.Context, d Discovery) error {
	score, err := c.engine.Score(d.Snapshot)
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	d.Snapshot.ScorePotential = score

	if err := c.artists.UpsertArtist(ctx, d.Artist); err != nil {
		return fmt.Errorf("saving artist: %w", err)
	}
	if err := c.snapshots.InsertSnapshot(ctx, d.Snapshot); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	c.publishSnapshotEvent(d)
	return nil
}

// publishSnapshotEvent publishes a snapshot collected event.
func (c *Collector) publishSnapshotEvent(d Discovery) {
	if c.eventBus == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"artist_id":    d.Snapshot.ArtistID,
		"artist_name":  d.Artist.Name,
		"platform":     d.Snapshot.Platform,
		"audience":     d.Snapshot.Audience(),
		"score":        d.Snapshot.ScorePotential,
		"collected_at": d.Snapshot.CollectedAt,
	})
	if err != nil {
		c.logger.Error("marshaling snapshot event", zap.Error(err))
		return
	}

	topic := fmt.Sprintf("%s.collected", c.config.EventsTopic)
	if err := c.eventBus.Publish(topic, data); err != nil {
		c.logger.Error("publishing snapshot event", zap.Error(err))
	}
}
