// internal/service/scouting/collector_test.go

package scouting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
	"soundscout/internal/domain/scoring"
)

type stubScraper struct {
	platform    artist.Platform
	discoveries []Discovery
	err         error
}

func (s *stubScraper) Platform() artist.Platform { return s.platform }

func (s *stubScraper) Scrape(ctx context.Context) ([]Discovery, error) {
	return s.discoveries, s.err
}

type memStores struct {
	artists   []artist.Artist
	snapshots []metric.Snapshot
	alertRuns int
}

func (m *memStores) UpsertArtist(ctx context.Context, a artist.Artist) error {
	m.artists = append(m.artists, a)
	return nil
}

func (m *memStores) InsertSnapshot(ctx context.Context, s metric.Snapshot) error {
	m.snapshots = append(m.snapshots, s)
	return nil
}

func (m *memStores) Run(ctx context.Context) (int, error) {
	m.alertRuns++
	return 0, nil
}

func spotifyDiscovery(id string) Discovery {
	return Discovery{
		Artist: artist.Artist{ArtistID: id, Name: "MC " + id, Platform: artist.PlatformSpotify},
		Snapshot: metric.Snapshot{
			ArtistID:           id,
			Platform:           artist.PlatformSpotify,
			CollectedAt:        time.Now().UTC(),
			Followers:          8000,
			Popularity:         35,
			AvgTrackPopularity: 40,
		},
	}
}

func newTestCollector(scrapers []Scraper, stores *memStores) *Collector {
	return NewCollector(
		scrapers,
		scoring.NewEngine(),
		stores,
		stores,
		stores,
		nil,
		CollectorConfig{CollectInterval: time.Hour, EventsTopic: "scout.snapshots"},
		zap.NewNop(),
	)
}

func TestRunCycle(t *testing.T) {
	stores := &memStores{}
	collector := newTestCollector([]Scraper{
		&stubScraper{
			platform:    artist.PlatformSpotify,
			discoveries: []Discovery{spotifyDiscovery("a1"), spotifyDiscovery("a2")},
		},
	}, stores)

	collector.RunCycle(context.Background())

	require.Len(t, stores.snapshots, 2)
	assert.Len(t, stores.artists, 2)
	assert.Equal(t, 1, stores.alertRuns)

	// Every persisted snapshot carries a computed score.
	for _, snap := range stores.snapshots {
		assert.Greater(t, snap.ScorePotential, 0.0)
	}
}

func TestRunCycleSurvivesScraperFailure(t *testing.T) {
	stores := &memStores{}
	collector := newTestCollector([]Scraper{
		&stubScraper{platform: artist.PlatformSpotify, err: errors.New("rate limited")},
		&stubScraper{
			platform:    artist.PlatformDeezer,
			discoveries: []Discovery{spotifyDiscovery("a1")},
		},
	}, stores)

	collector.RunCycle(context.Background())

	// The failing platform is skipped, the other still lands, and alert
	// detection still runs.
	assert.Len(t, stores.snapshots, 1)
	assert.Equal(t, 1, stores.alertRuns)
}

func TestRunCycleSkipsUnscorableDiscovery(t *testing.T) {
	bad := spotifyDiscovery("a1")
	bad.Snapshot.ArtistID = ""

	stores := &memStores{}
	collector := newTestCollector([]Scraper{
		&stubScraper{
			platform:    artist.PlatformSpotify,
			discoveries: []Discovery{bad, spotifyDiscovery("a2")},
		},
	}, stores)

	collector.RunCycle(context.Background())

	require.Len(t, stores.snapshots, 1)
	assert.Equal(t, "a2", stores.snapshots[0].ArtistID)
}

func TestStartRequiresScrapers(t *testing.T) {
	collector := newTestCollector(nil, &memStores{})
	assert.Error(t, collector.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	stores := &memStores{}
	collector := newTestCollector([]Scraper{
		&stubScraper{platform: artist.PlatformSpotify},
	}, stores)

	require.NoError(t, collector.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, collector.Stop(ctx))
}
