package domain

import (
	"io"
	"testing"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/source/memory"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func samplePath() []types.Checkpoint {
	return []types.Checkpoint{
		{Position: geo.Point{Latitude: 37.77, Longitude: -122.42}, Seq: 1},
		{Position: geo.Point{Latitude: 37.78, Longitude: -122.43}, Seq: 2},
	}
}

func TestMeasureDeviationEmptyPath(t *testing.T) {
	dev := MeasureDeviation(geo.Point{Latitude: 37.9, Longitude: -122.5}, nil, DefaultDeviationThresholdM)

	assert.False(t, dev.IsDeviating)
	assert.Equal(t, 0.0, dev.DistanceFromRouteM)
}

func TestMeasureDeviationFarFromRoute(t *testing.T) {
	dev := MeasureDeviation(geo.Point{Latitude: 37.90, Longitude: -122.50}, samplePath(), DefaultDeviationThresholdM)

	assert.True(t, dev.IsDeviating)
	assert.Greater(t, dev.DistanceFromRouteM, 500.0)
}

func TestMeasureDeviationOnCheckpoint(t *testing.T) {
	dev := MeasureDeviation(geo.Point{Latitude: 37.77, Longitude: -122.42}, samplePath(), DefaultDeviationThresholdM)

	assert.False(t, dev.IsDeviating)
	assert.InDelta(t, 0, dev.DistanceFromRouteM, 1e-6)
}

func TestMeasureDeviationUsesSegments(t *testing.T) {
	// Midway between the two checkpoints, slightly off the straight line:
	// far from both checkpoints but close to the segment.
	dev := MeasureDeviation(geo.Point{Latitude: 37.775, Longitude: -122.425}, samplePath(), DefaultDeviationThresholdM)

	assert.False(t, dev.IsDeviating)
	assert.Less(t, dev.DistanceFromRouteM, 100.0)
}

func TestMeasureDeviationThresholdBoundary(t *testing.T) {
	path := samplePath()
	pos := geo.Point{Latitude: 37.765, Longitude: -122.42} // ~550 m south of first checkpoint

	strict := MeasureDeviation(pos, path, 500)
	loose := MeasureDeviation(pos, path, 600)

	assert.True(t, strict.IsDeviating)
	assert.False(t, loose.IsDeviating)
	assert.InDelta(t, strict.DistanceFromRouteM, loose.DistanceFromRouteM, 1e-9)
}

func newEpisodeFixture() (*memory.FleetSource, EpisodeTracker) {
	log.SetOutput(io.Discard)
	src := memory.New()
	return src, EpisodeTracker{Repository: repository.NewFleet(src)}
}

func TestEpisodeLifecycle(t *testing.T) {
	src, tracker := newEpisodeFixture()
	start := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	// Deviating sample opens an episode.
	ep, action, err := tracker.Track(1, 10, Deviation{IsDeviating: true, DistanceFromRouteM: 620}, start)
	assert.NoError(t, err)
	assert.Equal(t, types.ActionCreated, action)
	assert.NotNil(t, ep)
	assert.Nil(t, ep.EndTS)

	// Returning sample closes it.
	end := start.Add(2 * time.Minute)
	ep, action, err = tracker.Track(1, 10, Deviation{IsDeviating: false, DistanceFromRouteM: 120}, end)
	assert.NoError(t, err)
	assert.Equal(t, types.ActionUpdated, action)
	assert.NotNil(t, ep.EndTS)
	assert.Equal(t, end, *ep.EndTS)

	episodes, err := src.GetEpisodes(false)
	assert.NoError(t, err)
	assert.Len(t, episodes, 1)
	assert.Equal(t, start, episodes[0].StartTS)
	assert.NotNil(t, episodes[0].EndTS)
	assert.GreaterOrEqual(t, episodes[0].MaxDistanceM, 620.0)
}

func TestEpisodeMaxDistanceRatchet(t *testing.T) {
	src, tracker := newEpisodeFixture()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	for _, distance := range []float64{600, 900, 700} {
		_, _, err := tracker.Track(1, 10, Deviation{IsDeviating: true, DistanceFromRouteM: distance}, now)
		assert.NoError(t, err)
		now = now.Add(time.Minute)
	}

	open, err := src.GetOpenEpisode(1, 10)
	assert.NoError(t, err)
	if assert.NotNil(t, open) {
		assert.Equal(t, 900.0, open.MaxDistanceM)
	}

	// Still exactly one episode in the store.
	episodes, err := src.GetEpisodes(false)
	assert.NoError(t, err)
	assert.Len(t, episodes, 1)
}

func TestEpisodeNoopWhenOnRoute(t *testing.T) {
	src, tracker := newEpisodeFixture()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	ep, action, err := tracker.Track(1, 10, Deviation{IsDeviating: false, DistanceFromRouteM: 80}, now)
	assert.NoError(t, err)
	assert.Nil(t, ep)
	assert.Equal(t, types.ChangeAction(""), action)

	episodes, err := src.GetEpisodes(false)
	assert.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestEpisodeAtMostOneOpenPerPair(t *testing.T) {
	src, tracker := newEpisodeFixture()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	_, _, err := tracker.Track(1, 10, Deviation{IsDeviating: true, DistanceFromRouteM: 600}, now)
	assert.NoError(t, err)

	// A second crossing while open only moves the ratchet.
	_, _, err = tracker.Track(1, 10, Deviation{IsDeviating: true, DistanceFromRouteM: 650}, now.Add(time.Minute))
	assert.NoError(t, err)

	open, err := src.GetEpisodes(true)
	assert.NoError(t, err)
	assert.Len(t, open, 1)

	// A different route for the same truck tracks independently.
	_, _, err = tracker.Track(1, 11, Deviation{IsDeviating: true, DistanceFromRouteM: 700}, now)
	assert.NoError(t, err)

	open, err = src.GetEpisodes(true)
	assert.NoError(t, err)
	assert.Len(t, open, 2)
}
