package domain

import (
	"testing"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
	"github.com/stretchr/testify/assert"
)

func truckAt(lat, lng, speed float64, age time.Duration, now time.Time) types.Truck {
	return types.Truck{
		ID:   1,
		Name: "T-01",
		LastPosition: &types.PositionSample{
			TruckID:   1,
			Position:  geo.Point{Latitude: lat, Longitude: lng},
			SpeedKmh:  speed,
			Timestamp: now.Add(-age),
		},
	}
}

func TestClassifyStatus(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	classifier := NewStatusClassifier(0, 0) // defaults: 5 min, 5 km/h

	customer := types.Customer{
		ID:              7,
		Name:            "Armazem Norte",
		Center:          geo.Point{Latitude: 37.7750, Longitude: -122.4190},
		GeofenceRadiusM: 100,
	}

	tests := []struct {
		name      string
		truck     types.Truck
		customers []types.Customer
		expected  types.TruckStatus
	}{
		{
			name:     "no position reported yet",
			truck:    types.Truck{ID: 1},
			expected: types.StatusOffline,
		},
		{
			name:     "stale report wins over everything",
			truck:    truckAt(37.7750, -122.4190, 80, 6*time.Minute, now),
			customers: []types.Customer{customer},
			expected: types.StatusOffline,
		},
		{
			name: "zero timestamp counts as offline",
			truck: types.Truck{ID: 1, LastPosition: &types.PositionSample{
				Position: geo.Point{Latitude: 37.7750, Longitude: -122.4190},
				SpeedKmh: 45,
			}},
			expected: types.StatusOffline,
		},
		{
			name:      "inside geofence beats speed check",
			truck:     truckAt(37.7754, -122.4190, 2, 30*time.Second, now), // ~45 m north of center
			customers: []types.Customer{customer},
			expected:  types.StatusAtCustomer,
		},
		{
			name:      "moving fast with no geofence match",
			truck:     truckAt(37.7750, -122.4190, 45, 30*time.Second, now),
			customers: []types.Customer{{ID: 8, Center: geo.Point{Latitude: 37.70, Longitude: -122.50}, GeofenceRadiusM: 100}},
			expected:  types.StatusEnRoute,
		},
		{
			name:      "slow outside every geofence",
			truck:     truckAt(37.7750, -122.4190, 3, 30*time.Second, now),
			customers: []types.Customer{{ID: 8, Center: geo.Point{Latitude: 37.70, Longitude: -122.50}, GeofenceRadiusM: 100}},
			expected:  types.StatusStopped,
		},
		{
			name:     "speed exactly at threshold is stopped",
			truck:    truckAt(37.7750, -122.4190, 5, 30*time.Second, now),
			expected: types.StatusStopped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifier.Classify(tt.truck, now, tt.customers))
		})
	}
}

func TestClassifyStatusIsPure(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	classifier := NewStatusClassifier(0, 0)
	truck := truckAt(37.7750, -122.4190, 45, 30*time.Second, now)

	first := classifier.Classify(truck, now, nil)
	second := classifier.Classify(truck, now, nil)
	assert.Equal(t, first, second)
}

func TestClassifyStatusConfigurableFreshness(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	classifier := NewStatusClassifier(10*time.Minute, 5)

	// 6 minutes old is offline with the default window but fine with 10.
	truck := truckAt(37.7750, -122.4190, 45, 6*time.Minute, now)
	assert.Equal(t, types.StatusEnRoute, classifier.Classify(truck, now, nil))
}
