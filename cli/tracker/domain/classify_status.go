package domain

import (
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
)

const (
	// DefaultOfflineAfter is the freshness window for the offline check.
	DefaultOfflineAfter = 5 * time.Minute
	// DefaultMovingSpeedKmh separates en_route from stopped.
	DefaultMovingSpeedKmh = 5.0
)

// StatusClassifier derives a truck's operating status from its latest sample.
// It holds only thresholds, never state: classification is idempotent and
// safe to run on every read.
type StatusClassifier struct {
	OfflineAfter   time.Duration
	MovingSpeedKmh float64
}

func NewStatusClassifier(offlineAfter time.Duration, movingSpeedKmh float64) StatusClassifier {
	if offlineAfter <= 0 {
		offlineAfter = DefaultOfflineAfter
	}
	if movingSpeedKmh <= 0 {
		movingSpeedKmh = DefaultMovingSpeedKmh
	}
	return StatusClassifier{OfflineAfter: offlineAfter, MovingSpeedKmh: movingSpeedKmh}
}

// Classify applies the status precedence: stale or missing telemetry wins,
// then geofence containment, then speed. candidates is the customer set to
// test geofences against; the caller restricts it to the active route's
// customers when one exists.
func (c StatusClassifier) Classify(truck types.Truck, now time.Time, candidates []types.Customer) types.TruckStatus {
	last := truck.LastPosition
	if last == nil || last.Timestamp.IsZero() {
		return types.StatusOffline
	}
	if now.Sub(last.Timestamp) > c.OfflineAfter {
		return types.StatusOffline
	}

	for _, customer := range candidates {
		if geo.Distance(last.Position, customer.Center) <= customer.GeofenceRadiusM {
			return types.StatusAtCustomer
		}
	}

	if last.SpeedKmh > c.MovingSpeedKmh {
		return types.StatusEnRoute
	}

	return types.StatusStopped
}
