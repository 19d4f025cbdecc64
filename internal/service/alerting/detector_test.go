// internal/service/alerting/detector_test.go

package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundscout/internal/domain/alert"
	"soundscout/internal/domain/artist"
	"soundscout/internal/domain/metric"
)

type stubPairSource struct {
	pairs []Pair
	err   error
}

func (s *stubPairSource) ListPairs(ctx context.Context) ([]Pair, error) {
	return s.pairs, s.err
}

type stubSink struct {
	saved  []alert.Alert
	failOn alert.Type
}

func (s *stubSink) SaveAlert(ctx context.Context, a alert.Alert) error {
	if s.failOn != "" && a.Type == s.failOn {
		return errors.New("sink unavailable")
	}
	s.saved = append(s.saved, a)
	return nil
}

func newTestDetector(pairs []Pair, sink Sink) *Detector {
	return NewDetector(&stubPairSource{pairs: pairs}, sink, nil, DefaultConfig(), zap.NewNop())
}

// newPair builds an ordered Spotify pair with the given follower counts
// and scores.
func newPair(id string, prevFollowers, latestFollowers int, prevScore, latestScore float64) Pair {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	previous := &metric.Snapshot{
		ArtistID:       id,
		Platform:       artist.PlatformSpotify,
		CollectedAt:    base,
		Followers:      prevFollowers,
		ScorePotential: prevScore,
	}
	latest := &metric.Snapshot{
		ArtistID:       id,
		Platform:       artist.PlatformSpotify,
		CollectedAt:    base.Add(24 * time.Hour),
		Followers:      latestFollowers,
		ScorePotential: latestScore,
	}

	return Pair{
		Artist:   artist.Artist{ArtistID: id, Name: "MC " + id, Platform: artist.PlatformSpotify},
		Latest:   latest,
		Previous: previous,
	}
}

func TestDetectAlertsGrowth(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	// Exactly 20% growth is enough.
	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 1000, 1200, 50, 50),
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, alert.TypeGrowth, alerts[0].Type)
	assert.Equal(t, "20.0% growth on Spotify (1000 -> 1200)", alerts[0].Message)
	assert.Equal(t, "a1", alerts[0].ArtistID)
	assert.Equal(t, "MC a1", alerts[0].ArtistName)
	assert.False(t, alerts[0].Seen)
}

func TestDetectAlertsBelowGrowthThreshold(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 1000, 1150, 50, 50),
	})

	assert.Empty(t, alerts)
}

func TestDetectAlertsScoreImprovement(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 1000, 1000, 50, 61),
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, alert.TypeScoreImprovement, alerts[0].Type)
	assert.Equal(t, "11.0 point score increase (50.0 -> 61.0)", alerts[0].Message)
}

func TestDetectAlertsBelowScoreThreshold(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 1000, 1000, 50, 59.9),
	})

	assert.Empty(t, alerts)
}

func TestDetectAlertsBothTypes(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 1000, 1500, 40, 55),
	})

	require.Len(t, alerts, 2)
	assert.Equal(t, alert.TypeGrowth, alerts[0].Type)
	assert.Equal(t, alert.TypeScoreImprovement, alerts[1].Type)
}

func TestDetectAlertsDropsNeverAlert(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 1200, 900, 61, 50),
	})

	assert.Empty(t, alerts)
}

func TestDetectAlertsSkipsZeroBaseline(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	// A zero previous audience has no defined growth ratio.
	alerts := d.DetectAlerts(context.Background(), []Pair{
		newPair("a1", 0, 5000, 50, 50),
	})

	assert.Empty(t, alerts)
}

func TestDetectAlertsDedupesWithinInvocation(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	p := newPair("a1", 1000, 1300, 50, 50)
	alerts := d.DetectAlerts(context.Background(), []Pair{p, p})

	assert.Len(t, alerts, 1)
}

func TestDetectAlertsSkipsMalformedPair(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	broken := newPair("a1", 1000, 1300, 50, 50)
	broken.Latest = nil

	// The broken pair is skipped; the healthy one still alerts.
	alerts := d.DetectAlerts(context.Background(), []Pair{
		broken,
		newPair("a2", 1000, 1300, 50, 50),
	})

	require.Len(t, alerts, 1)
	assert.Equal(t, "a2", alerts[0].ArtistID)
}

func TestDetectAlertsSkipsOutOfOrderPair(t *testing.T) {
	d := newTestDetector(nil, &stubSink{})

	p := newPair("a1", 1000, 1300, 50, 50)
	p.Latest.CollectedAt = p.Previous.CollectedAt

	alerts := d.DetectAlerts(context.Background(), []Pair{p})

	assert.Empty(t, alerts)
}

func TestRunPersistsAlerts(t *testing.T) {
	sink := &stubSink{}
	d := newTestDetector([]Pair{
		newPair("a1", 1000, 1300, 50, 50),
		newPair("a2", 1000, 1050, 50, 50),
	}, sink)

	saved, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	require.Len(t, sink.saved, 1)
	assert.Equal(t, "a1", sink.saved[0].ArtistID)
}

func TestRunContinuesPastSinkFailures(t *testing.T) {
	sink := &stubSink{failOn: alert.TypeGrowth}
	d := newTestDetector([]Pair{
		newPair("a1", 1000, 1300, 50, 65),
	}, sink)

	// The growth alert fails to persist but the score alert still lands.
	saved, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	require.Len(t, sink.saved, 1)
	assert.Equal(t, alert.TypeScoreImprovement, sink.saved[0].Type)
}

func TestRunPropagatesSourceError(t *testing.T) {
	d := NewDetector(&stubPairSource{err: errors.New("db down")}, &stubSink{}, nil, DefaultConfig(), zap.NewNop())

	_, err := d.Run(context.Background())
	assert.Error(t, err)
}

func TestNewDetectorDefaultsThresholds(t *testing.T) {
	d := NewDetector(&stubPairSource{}, &stubSink{}, nil, Config{}, zap.NewNop())

	assert.Equal(t, 20.0, d.config.GrowthPercentThreshold)
	assert.Equal(t, 10.0, d.config.ScoreDeltaThreshold)
}
