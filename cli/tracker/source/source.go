package source

import (
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/types"
)

// Fleet is the record-store contract the engine runs against. Concrete
// persistence is a collaborator; implementations live in pg (production)
// and memory (tests, demo).
type Fleet interface {
	GetTruck(id int64) (types.Truck, error)
	GetAllTrucks() ([]types.Truck, error)
	// UpdateTruckPosition replaces the truck's latest-position fields and the
	// derived odometer/fuel accumulators in one write.
	UpdateTruckPosition(truckID int64, sample types.PositionSample, odometerKm, fuelUsedL float64) error
	AddGPSEvent(sample types.PositionSample) error
	GetTrack(truckID int64, limit int) ([]types.PositionSample, error)

	GetAllCustomers() ([]types.Customer, error)
	GetCustomersByIDs(ids []int64) ([]types.Customer, error)

	// GetActiveRoute returns nil when no route is planned for the date.
	GetActiveRoute(truckID int64, date string) (*types.Route, error)

	GetOpenEpisode(truckID, routeID int64) (*types.DeviationEpisode, error)
	OpenEpisode(ep types.DeviationEpisode) (int64, error)
	UpdateEpisodeMaxDistance(id int64, maxDistanceM float64) error
	CloseEpisode(id int64, endTS time.Time) error
	GetEpisodes(onlyOpen bool) ([]types.DeviationEpisode, error)

	GetAllMaintenanceRules() ([]types.MaintenanceRule, error)
	GetUnresolvedAlert(ruleID int64) (*types.MaintenanceAlert, error)
	// CreateAlertIfAbsent inserts the alert only when no unresolved alert
	// exists for the rule. Returns created=false when the insert lost the
	// race, which callers treat as a no-op.
	CreateAlertIfAbsent(alert types.MaintenanceAlert) (id int64, created bool, err error)
	// EscalateAlert promotes the rule's unresolved due_soon alert to overdue
	// in place. No-op when the unresolved alert is already overdue.
	EscalateAlert(ruleID int64, message string) error
	ResolveAlert(alertID int64, ts time.Time) error
	GetAlerts(onlyUnresolved bool) ([]types.MaintenanceAlert, error)

	GetPendingDelivery(truckID int64) (*types.Delivery, error)
	CompleteDelivery(id int64, signatureURL string, ts time.Time) error
	FailDelivery(id int64, category types.IssueCategory, notes string, ts time.Time) error

	Close() error
}
