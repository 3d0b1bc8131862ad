package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceIdentity(t *testing.T) {
	points := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 37.7749, Longitude: -122.4194},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 89.9, Longitude: 179.9},
	}

	for _, p := range points {
		assert.InDelta(t, 0, Distance(p, p), 1e-9)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{Latitude: 37.7749, Longitude: -122.4194}
	b := Point{Latitude: 37.3382, Longitude: -121.8863}

	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistanceTriangleInequality(t *testing.T) {
	a := Point{Latitude: 37.7749, Longitude: -122.4194}
	b := Point{Latitude: 37.3382, Longitude: -121.8863}
	c := Point{Latitude: 37.8044, Longitude: -122.2712}

	assert.LessOrEqual(t, Distance(a, b), Distance(a, c)+Distance(c, b)+1e-6)
}

func TestDistanceKnownValue(t *testing.T) {
	// San Francisco city hall to the Ferry Building, roughly 2.3 km.
	a := Point{Latitude: 37.7793, Longitude: -122.4193}
	b := Point{Latitude: 37.7955, Longitude: -122.3937}

	d := Distance(a, b)
	assert.Greater(t, d, 2000.0)
	assert.Less(t, d, 3500.0)
}

func TestPointToSegmentDistance(t *testing.T) {
	segA := Point{Latitude: 37.77, Longitude: -122.42}
	segB := Point{Latitude: 37.78, Longitude: -122.42}

	tests := []struct {
		name     string
		p        Point
		expected Point // point the measurement should collapse to
	}{
		{
			name:     "projects inside the segment",
			p:        Point{Latitude: 37.775, Longitude: -122.41},
			expected: Point{Latitude: 37.775, Longitude: -122.42},
		},
		{
			name:     "clamps before segment start",
			p:        Point{Latitude: 37.76, Longitude: -122.42},
			expected: segA,
		},
		{
			name:     "clamps past segment end",
			p:        Point{Latitude: 37.79, Longitude: -122.42},
			expected: segB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointToSegmentDistance(tt.p, segA, segB)
			assert.InDelta(t, Distance(tt.p, tt.expected), got, 0.5)
		})
	}
}

func TestPointToSegmentDistanceDegenerateSegment(t *testing.T) {
	a := Point{Latitude: 37.77, Longitude: -122.42}
	p := Point{Latitude: 37.78, Longitude: -122.42}

	// Zero-length segment degrades to plain point distance.
	assert.InDelta(t, Distance(p, a), PointToSegmentDistance(p, a, a), 1e-9)
}

func TestMoveTowards(t *testing.T) {
	cur := Point{Latitude: 37.77, Longitude: -122.42}
	target := Point{Latitude: 37.78, Longitude: -122.42}

	moved := MoveTowards(cur, target, 500)
	assert.InDelta(t, 500, Distance(cur, moved), 5)

	// Remaining distance shrinks by the travelled amount.
	assert.InDelta(t, Distance(cur, target)-500, Distance(moved, target), 5)
}

func TestMoveTowardsClampsAtTarget(t *testing.T) {
	cur := Point{Latitude: 37.77, Longitude: -122.42}
	target := Point{Latitude: 37.7701, Longitude: -122.42}

	moved := MoveTowards(cur, target, 10000)
	assert.Equal(t, target, moved)
}
