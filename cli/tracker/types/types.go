package types

import (
	"time"

	"github.com/daniil11ru/fleettrack/libs/geo"
)

// Truck is the canonical fleet-registry record. Operating status is never a
// field here: it is recomputed from the latest sample on every read.
type Truck struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	LicensePlate string          `json:"license_plate"`
	LastPosition *PositionSample `json:"last_position,omitempty"`
	OdometerKm   float64         `json:"odometer_km"`
	FuelUsedL    float64         `json:"fuel_used_l"`
	KmPerLiter   float64         `json:"km_per_liter"`
}

// PositionSample is one GPS report, append-only per truck.
type PositionSample struct {
	TruckID   int64     `json:"truck_id"`
	Position  geo.Point `json:"position"`
	SpeedKmh  float64   `json:"speed_kmh"`
	Timestamp time.Time `json:"timestamp"`
}

type Customer struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Center          geo.Point `json:"center"`
	GeofenceRadiusM float64   `json:"geofence_radius_m"`
}

type Checkpoint struct {
	Position   geo.Point `json:"position"`
	Seq        int       `json:"seq"`
	CustomerID *int64    `json:"customer_id,omitempty"`
}

// Route is the planned path for one truck on one date. One route per
// (truck, date).
type Route struct {
	ID          int64        `json:"id"`
	TruckID     int64        `json:"truck_id"`
	Date        string       `json:"date"` // YYYY-MM-DD
	PlannedPath []Checkpoint `json:"planned_path"`
}

// CustomerIDs returns the ids of customers referenced by the planned path.
func (r *Route) CustomerIDs() []int64 {
	var ids []int64
	for _, cp := range r.PlannedPath {
		if cp.CustomerID != nil {
			ids = append(ids, *cp.CustomerID)
		}
	}
	return ids
}

// DeviationEpisode is a bounded interval during which a truck stayed outside
// its route-deviation threshold. EndTS is nil while the episode is open.
// At most one open episode exists per (truck, route).
type DeviationEpisode struct {
	ID           int64      `json:"id"`
	TruckID      int64      `json:"truck_id"`
	RouteID      int64      `json:"route_id"`
	StartTS      time.Time  `json:"start_ts"`
	EndTS        *time.Time `json:"end_ts,omitempty"`
	MaxDistanceM float64    `json:"max_distance_m"`
}

type MaintenanceRule struct {
	ID              int64       `json:"id"`
	TruckID         int64       `json:"truck_id"`
	ServiceType     ServiceType `json:"service_type"`
	IntervalKm      float64     `json:"interval_km"`
	IntervalDays    int         `json:"interval_days"`
	LastServiceKm   float64     `json:"last_service_km"`
	LastServiceDate time.Time   `json:"last_service_date"`
}

// MaintenanceAlert carries the lifecycle state for one rule. At most one
// unresolved alert exists per rule; an overdue condition escalates the
// existing due_soon alert in place instead of creating a second record.
type MaintenanceAlert struct {
	ID         int64         `json:"id"`
	TruckID    int64         `json:"truck_id"`
	RuleID     int64         `json:"rule_id"`
	Severity   AlertSeverity `json:"severity"`
	Message    string        `json:"message"`
	CreatedTS  time.Time     `json:"created_ts"`
	ResolvedTS *time.Time    `json:"resolved_ts,omitempty"`
}

type Delivery struct {
	ID            int64          `json:"id"`
	TruckID       int64          `json:"truck_id"`
	CustomerID    int64          `json:"customer_id"`
	Status        DeliveryStatus `json:"status"`
	CompletedTS   *time.Time     `json:"completed_ts,omitempty"`
	IssueCategory *IssueCategory `json:"issue_category,omitempty"`
	IssueNotes    string         `json:"issue_notes,omitempty"`
	SignatureURL  string         `json:"signature_url,omitempty"`
}
