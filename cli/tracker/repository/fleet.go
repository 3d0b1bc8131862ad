package repository

import (
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/source"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
)

type Fleet struct {
	Source source.Fleet
}

func NewFleet(s source.Fleet) Fleet {
	return Fleet{Source: s}
}

func (f *Fleet) GetTruck(id int64) (types.Truck, error) {
	return f.Source.GetTruck(id)
}

func (f *Fleet) GetAllTrucks() ([]types.Truck, error) {
	return f.Source.GetAllTrucks()
}

func (f *Fleet) UpdateTruckPosition(truckID int64, sample types.PositionSample, odometerKm, fuelUsedL float64) error {
	return f.Source.UpdateTruckPosition(truckID, sample, odometerKm, fuelUsedL)
}

func (f *Fleet) AddGPSEvent(sample types.PositionSample) error {
	return f.Source.AddGPSEvent(sample)
}

func (f *Fleet) GetTrack(truckID int64, limit int) ([]types.PositionSample, error) {
	return f.Source.GetTrack(truckID, limit)
}

// CandidateCustomers returns the geofence candidates for status
// classification: the route's customers when an active route references any,
// otherwise the whole customer list.
func (f *Fleet) CandidateCustomers(route *types.Route) ([]types.Customer, error) {
	if route != nil {
		if ids := route.CustomerIDs(); len(ids) > 0 {
			return f.Source.GetCustomersByIDs(ids)
		}
	}
	return f.Source.GetAllCustomers()
}

func (f *Fleet) GetAllCustomers() ([]types.Customer, error) {
	return f.Source.GetAllCustomers()
}

func (f *Fleet) GetActiveRoute(truckID int64, date string) (*types.Route, error) {
	return f.Source.GetActiveRoute(truckID, date)
}

func (f *Fleet) GetOpenEpisode(truckID, routeID int64) (*types.DeviationEpisode, error) {
	return f.Source.GetOpenEpisode(truckID, routeID)
}

func (f *Fleet) OpenEpisode(ep types.DeviationEpisode) (int64, error) {
	return f.Source.OpenEpisode(ep)
}

func (f *Fleet) UpdateEpisodeMaxDistance(id int64, maxDistanceM float64) error {
	return f.Source.UpdateEpisodeMaxDistance(id, maxDistanceM)
}

func (f *Fleet) CloseEpisode(id int64, endTS time.Time) error {
	return f.Source.CloseEpisode(id, endTS)
}

func (f *Fleet) GetEpisodes(onlyOpen bool) ([]types.DeviationEpisode, error) {
	return f.Source.GetEpisodes(onlyOpen)
}

func (f *Fleet) GetAllMaintenanceRules() ([]types.MaintenanceRule, error) {
	return f.Source.GetAllMaintenanceRules()
}

func (f *Fleet) GetUnresolvedAlert(ruleID int64) (*types.MaintenanceAlert, error) {
	return f.Source.GetUnresolvedAlert(ruleID)
}

func (f *Fleet) CreateAlertIfAbsent(alert types.MaintenanceAlert) (int64, bool, error) {
	return f.Source.CreateAlertIfAbsent(alert)
}

func (f *Fleet) EscalateAlert(ruleID int64, message string) error {
	return f.Source.EscalateAlert(ruleID, message)
}

func (f *Fleet) ResolveAlert(alertID int64, ts time.Time) error {
	return f.Source.ResolveAlert(alertID, ts)
}

func (f *Fleet) GetAlerts(onlyUnresolved bool) ([]types.MaintenanceAlert, error) {
	return f.Source.GetAlerts(onlyUnresolved)
}

func (f *Fleet) GetPendingDelivery(truckID int64) (*types.Delivery, error) {
	return f.Source.GetPendingDelivery(truckID)
}

func (f *Fleet) CompleteDelivery(id int64, signatureURL string, ts time.Time) error {
	return f.Source.CompleteDelivery(id, signatureURL, ts)
}

func (f *Fleet) FailDelivery(id int64, category types.IssueCategory, notes string, ts time.Time) error {
	return f.Source.FailDelivery(id, category, notes, ts)
}
