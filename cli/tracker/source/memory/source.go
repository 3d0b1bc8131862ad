package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/types"
)

// FleetSource keeps the whole record store in process memory behind one
// mutex. The mutex also serializes the conditional alert/episode writes, so
// the same invariants hold as with the SQL source.
type FleetSource struct {
	mu sync.Mutex

	trucks    map[int64]types.Truck
	customers map[int64]types.Customer
	routes    map[int64]types.Route
	samples   []types.PositionSample
	episodes  map[int64]types.DeviationEpisode
	rules     map[int64]types.MaintenanceRule
	alerts    map[int64]types.MaintenanceAlert
	delivs    map[int64]types.Delivery

	nextEpisodeID int64
	nextAlertID   int64
}

func New() *FleetSource {
	return &FleetSource{
		trucks:        make(map[int64]types.Truck),
		customers:     make(map[int64]types.Customer),
		routes:        make(map[int64]types.Route),
		episodes:      make(map[int64]types.DeviationEpisode),
		rules:         make(map[int64]types.MaintenanceRule),
		alerts:        make(map[int64]types.MaintenanceAlert),
		delivs:        make(map[int64]types.Delivery),
		nextEpisodeID: 1,
		nextAlertID:   1,
	}
}

func (f *FleetSource) PutTruck(t types.Truck) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trucks[t.ID] = t
}

func (f *FleetSource) PutCustomer(c types.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[c.ID] = c
}

func (f *FleetSource) PutRoute(r types.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[r.ID] = r
}

func (f *FleetSource) PutRule(r types.MaintenanceRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[r.ID] = r
}

func (f *FleetSource) PutDelivery(d types.Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivs[d.ID] = d
}

func (f *FleetSource) GetTruck(id int64) (types.Truck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.trucks[id]
	if !ok {
		return types.Truck{}, fmt.Errorf("truck %d not found", id)
	}
	return t, nil
}

func (f *FleetSource) GetAllTrucks() ([]types.Truck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	trucks := make([]types.Truck, 0, len(f.trucks))
	for _, t := range f.trucks {
		trucks = append(trucks, t)
	}
	sort.Slice(trucks, func(i, j int) bool { return trucks[i].ID < trucks[j].ID })
	return trucks, nil
}

func (f *FleetSource) UpdateTruckPosition(truckID int64, sample types.PositionSample, odometerKm, fuelUsedL float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.trucks[truckID]
	if !ok {
		return fmt.Errorf("truck %d not found", truckID)
	}
	s := sample
	t.LastPosition = &s
	t.OdometerKm = odometerKm
	t.FuelUsedL = fuelUsedL
	f.trucks[truckID] = t
	return nil
}

func (f *FleetSource) AddGPSEvent(sample types.PositionSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, sample)
	return nil
}

func (f *FleetSource) GetTrack(truckID int64, limit int) ([]types.PositionSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var track []types.PositionSample
	for i := len(f.samples) - 1; i >= 0 && len(track) < limit; i-- {
		if f.samples[i].TruckID == truckID {
			track = append(track, f.samples[i])
		}
	}
	return track, nil
}

func (f *FleetSource) GetAllCustomers() ([]types.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	customers := make([]types.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

func (f *FleetSource) GetCustomersByIDs(ids []int64) ([]types.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var customers []types.Customer
	for _, id := range ids {
		if c, ok := f.customers[id]; ok {
			customers = append(customers, c)
		}
	}
	return customers, nil
}

func (f *FleetSource) GetActiveRoute(truckID int64, date string) (*types.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.routes {
		if r.TruckID == truckID && r.Date == date {
			route := r
			return &route, nil
		}
	}
	return nil, nil
}

func (f *FleetSource) GetOpenEpisode(truckID, routeID int64) (*types.DeviationEpisode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openEpisodeLocked(truckID, routeID), nil
}

func (f *FleetSource) openEpisodeLocked(truckID, routeID int64) *types.DeviationEpisode {
	for _, ep := range f.episodes {
		if ep.TruckID == truckID && ep.RouteID == routeID && ep.EndTS == nil {
			episode := ep
			return &episode
		}
	}
	return nil
}

func (f *FleetSource) OpenEpisode(ep types.DeviationEpisode) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openEpisodeLocked(ep.TruckID, ep.RouteID) != nil {
		return 0, nil
	}

	ep.ID = f.nextEpisodeID
	f.nextEpisodeID++
	f.episodes[ep.ID] = ep
	return ep.ID, nil
}

func (f *FleetSource) UpdateEpisodeMaxDistance(id int64, maxDistanceM float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ep, ok := f.episodes[id]
	if !ok {
		return fmt.Errorf("episode %d not found", id)
	}
	if maxDistanceM > ep.MaxDistanceM {
		ep.MaxDistanceM = maxDistanceM
		f.episodes[id] = ep
	}
	return nil
}

func (f *FleetSource) CloseEpisode(id int64, endTS time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ep, ok := f.episodes[id]
	if !ok {
		return fmt.Errorf("episode %d not found", id)
	}
	if ep.EndTS == nil {
		ts := endTS
		ep.EndTS = &ts
		f.episodes[id] = ep
	}
	return nil
}

func (f *FleetSource) GetEpisodes(onlyOpen bool) ([]types.DeviationEpisode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var episodes []types.DeviationEpisode
	for _, ep := range f.episodes {
		if onlyOpen && ep.EndTS != nil {
			continue
		}
		episodes = append(episodes, ep)
	}
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].ID < episodes[j].ID })
	return episodes, nil
}

func (f *FleetSource) GetAllMaintenanceRules() ([]types.MaintenanceRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rules := make([]types.MaintenanceRule, 0, len(f.rules))
	for _, r := range f.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (f *FleetSource) GetUnresolvedAlert(ruleID int64) (*types.MaintenanceAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unresolvedAlertLocked(ruleID), nil
}

func (f *FleetSource) unresolvedAlertLocked(ruleID int64) *types.MaintenanceAlert {
	for _, a := range f.alerts {
		if a.RuleID == ruleID && a.ResolvedTS == nil {
			alert := a
			return &alert
		}
	}
	return nil
}

func (f *FleetSource) CreateAlertIfAbsent(alert types.MaintenanceAlert) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unresolvedAlertLocked(alert.RuleID) != nil {
		return 0, false, nil
	}

	alert.ID = f.nextAlertID
	f.nextAlertID++
	f.alerts[alert.ID] = alert
	return alert.ID, true, nil
}

func (f *FleetSource) EscalateAlert(ruleID int64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, a := range f.alerts {
		if a.RuleID == ruleID && a.ResolvedTS == nil && a.Severity == types.SeverityDueSoon {
			a.Severity = types.SeverityOverdue
			a.Message = message
			f.alerts[id] = a
			return nil
		}
	}
	return nil
}

func (f *FleetSource) ResolveAlert(alertID int64, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.alerts[alertID]
	if !ok || a.ResolvedTS != nil {
		return fmt.Errorf("alert %d not found or already resolved", alertID)
	}
	resolved := ts
	a.ResolvedTS = &resolved
	f.alerts[alertID] = a
	return nil
}

func (f *FleetSource) GetAlerts(onlyUnresolved bool) ([]types.MaintenanceAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var alerts []types.MaintenanceAlert
	for _, a := range f.alerts {
		if onlyUnresolved && a.ResolvedTS != nil {
			continue
		}
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })
	return alerts, nil
}

func (f *FleetSource) GetPendingDelivery(truckID int64) (*types.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pending []types.Delivery
	for _, d := range f.delivs {
		if d.TruckID == truckID && d.Status == types.DeliveryPending {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	first := pending[0]
	return &first, nil
}

func (f *FleetSource) CompleteDelivery(id int64, signatureURL string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.delivs[id]
	if !ok || d.Status != types.DeliveryPending {
		return fmt.Errorf("delivery %d is not pending", id)
	}
	completed := ts
	d.Status = types.DeliveryCompleted
	d.CompletedTS = &completed
	d.SignatureURL = signatureURL
	f.delivs[id] = d
	return nil
}

func (f *FleetSource) FailDelivery(id int64, category types.IssueCategory, notes string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.delivs[id]
	if !ok || d.Status != types.DeliveryPending {
		return fmt.Errorf("delivery %d is not pending", id)
	}
	completed := ts
	d.Status = types.DeliveryFailed
	d.CompletedTS = &completed
	d.IssueCategory = &category
	d.IssueNotes = notes
	f.delivs[id] = d
	return nil
}

func (f *FleetSource) Close() error {
	return nil
}
