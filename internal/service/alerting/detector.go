// internal/service/alerting/detector.go

package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"soundscout/internal/domain/alert"
	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

// Pair is the ordered snapshot pair evaluated for one artist: the most
// recent snapshot and the one immediately preceding it.
type Pair struct {
	Artist   artist.Artist
	Latest   *metric.Snapshot
	Previous *metric.Snapshot
}

// PairSource lists the latest/previous snapshot pair for every artist
// with at least two snapshots.
type PairSource interface {
	ListPairs(ctx context.Context) ([]Pair, error)
}

// Sink persists generated alerts.
type Sink interface {
	SaveAlert(ctx context.Context, a alert.Alert) error
}

// Config contains detector thresholds.
type Config struct {
	// GrowthPercentThreshold is the minimum audience growth, in percent,
	// that raises a FORTE_CROISSANCE alert. Canonically 20; earlier
	// deployments ran at 10.
	GrowthPercentThreshold float64

	// ScoreDeltaThreshold is the minimum absolute potential-score
	// increase that raises an AMELIORATION_SCORE alert.
	ScoreDeltaThreshold float64

	// EventsTopic is the NATS subject prefix for alert events.
	EventsTopic string
}

// DefaultConfig returns the canonical thresholds.
func DefaultConfig() Config {
	return Config{
		GrowthPercentThreshold: 20,
		ScoreDeltaThreshold:    10,
		EventsTopic:            "scout.alerts",
	}
}

// Detector compares the two most recent snapshots per artist and emits
// alerts on large positive deltas. Runs are serialized per artist key so
// concurrent detection passes cannot emit duplicates from the same pair.
type Detector struct {
	pairs    PairSource
	sink     Sink
	eventBus *nats.Conn
	config   Config
	logger   *zap.Logger

	mu       sync.Mutex
	keyLocks map[artist.Key]*sync.Mutex
	now      func() time.Time
}

// NewDetector creates a detector. eventBus may be nil, in which case no
// events are published.
func NewDetector(pairs PairSource, sink Sink, eventBus *nats.Conn, config Config, logger *zap.Logger) *Detector {
	if config.GrowthPercentThreshold <= 0 {
		config.GrowthPercentThreshold = 20
	}
	if config.ScoreDeltaThreshold <= 0 {
		config.ScoreDeltaThreshold = 10
	}
	return &Detector{
		pairs:    pairs,
		sink:     sink,
		eventBus: eventBus,
		config:   config,
		logger:   logger,
		keyLocks: make(map[artist.Key]*sync.Mutex),
		now:      time.Now,
	}
}

// Run loads all snapshot pairs, evaluates them and persists the
// resulting alerts. A malformed pair for one artist never aborts the
// others.
func (d *Detector) Run(ctx context.Context) (int, error) {
	pairs, err := d.pairs.ListPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing snapshot pairs: %w", err)
	}

	alerts := d.DetectAlerts(ctx, pairs)

	saved := 0
	for _, a := range alerts {
		if err := d.sink.SaveAlert(ctx, a); err != nil {
			d.logger.Error("saving alert",
				zap.String("artist_id", a.ArtistID),
				zap.String("type", string(a.Type)),
				zap.Error(err))
			continue
		}
		saved++
		d.publishAlertEvent(a)
	}

	d.logger.Info("alert detection finished",
		zap.Int("pairs", len(pairs)),
		zap.Int("alerts", saved))

	return saved, nil
}

// DetectAlerts evaluates the given pairs and returns zero or more
// alerts. Within one invocation at most one alert per
// (artist, platform, type) is produced, so re-evaluating the same pair
// in the same pass cannot duplicate. Individual bad pairs are logged
// and skipped.
func (d *Detector) DetectAlerts(ctx context.Context, pairs []Pair) []alert.Alert {
	type dedupKey struct {
		key artist.Key
		typ alert.Type
	}

	var alerts []alert.Alert
	emitted := make(map[dedupKey]bool)

	for _, p := range pairs {
		if ctx.Err() != nil {
			break
		}

		for _, a := range d.evaluate(p) {
			k := dedupKey{key: artist.Key{ArtistID: a.ArtistID, Platform: a.Platform}, typ: a.Type}
			if emitted[k] {
				continue
			}
			emitted[k] = true
			alerts = append(alerts, a)
		}
	}

	return alerts
}

// evaluate applies both alert rules to one pair under that artist's
// lock.
func (d *Detector) evaluate(p Pair) []alert.Alert {
	if p.Latest == nil || p.Previous == nil {
		d.logger.Debug("skipping artist without snapshot pair",
			zap.String("artist_id", p.Artist.ArtistID),
			zap.String("platform", string(p.Artist.Platform)))
		return nil
	}

	key := p.Latest.Key()
	lock := d.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if !p.Latest.CollectedAt.After(p.Previous.CollectedAt) {
		d.logger.Warn("snapshot pair out of order",
			zap.String("artist_id", key.ArtistID),
			zap.String("platform", string(key.Platform)))
		return nil
	}

	var alerts []alert.Alert

	if a, ok := d.growthAlert(p); ok {
		alerts = append(alerts, a)
	}
	if a, ok := d.scoreAlert(p); ok {
		alerts = append(alerts, a)
	}

	return alerts
}

// growthAlert checks the primary audience metric. The ratio is skipped
// entirely when the previous value is not positive; drops never alert.
func (d *Detector) growthAlert(p Pair) (alert.Alert, bool) {
	previous := p.Previous.Audience()
	latest := p.Latest.Audience()

	if previous <= 0 || latest <= previous {
		return alert.Alert{}, false
	}

	growthPct := float64(latest-previous) / float64(previous) * 100
	if growthPct < d.config.GrowthPercentThreshold {
		return alert.Alert{}, false
	}

	message := fmt.Sprintf("%.1f%% growth on %s (%d -> %d)",
		growthPct, p.Latest.Platform, previous, latest)

	return d.newAlert(p, alert.TypeGrowth, message), true
}

// scoreAlert checks the potential score delta between both snapshots.
func (d *Detector) scoreAlert(p Pair) (alert.Alert, bool) {
	delta := p.Latest.ScorePotential - p.Previous.ScorePotential
	if delta < d.config.ScoreDeltaThreshold {
		return alert.Alert{}, false
	}

	message := fmt.Sprintf("%.1f point score increase (%.1f -> %.1f)",
		delta, p.Previous.ScorePotential, p.Latest.ScorePotential)

	return d.newAlert(p, alert.TypeScoreImprovement, message), true
}

func (d *Detector) newAlert(p Pair, typ alert.Type, message string) alert.Alert {
	return alert.Alert{
		ID:         uuid.New().String(),
		ArtistID:   p.Latest.ArtistID,
		ArtistName: p.Artist.Name,
		Platform:   p.Latest.Platform,
		Type:       typ,
		Message:    message,
		CreatedAt:  d.now(),
		Seen:       false,
	}
}

// lockFor returns the mutex serializing detection for one artist key.
func (d *Detector) lockFor(key artist.Key) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		d.keyLocks[key] = lock
	}
	return lock
}

// publishAlertEvent publishes an alert created event to the event bus.
func (d *Detector) publishAlertEvent(a alert.Alert) {
	if d.eventBus == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"id":          a.ID,
		"artist_id":   a.ArtistID,
		"artist_name": a.ArtistName,
		"platform":    a.Platform,
		"type":        a.Type,
		"message":     a.Message,
		"created_at":  a.CreatedAt,
	})
	if err != nil {
		d.logger.Error("marshaling alert event", zap.Error(err))
		return
	}

	topic := fmt.Sprintf("%s.created", d.config.EventsTopic)
	if err := d.eventBus.Publish(topic, data); err != nil {
		d.logger.Error("publishing alert event", zap.Error(err))
	}
}
