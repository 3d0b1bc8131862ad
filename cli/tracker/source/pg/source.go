package pg

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	connector "github.com/daniil11ru/fleettrack/cli/tracker/connector"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
	"github.com/lib/pq"
)

func pointFrom(lat, lng float64) geo.Point {
	return geo.Point{Latitude: lat, Longitude: lng}
}

type FleetSource struct {
	connector connector.Connector
}

func (f *FleetSource) Initialize(c connector.Connector) {
	f.connector = c
}

func (f *FleetSource) db() (*sql.DB, error) {
	if f.connector == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	db := f.connector.GetConnection()
	if db == nil {
		return nil, fmt.Errorf("no active database connection")
	}
	return db, nil
}

func scanTruck(row interface{ Scan(...interface{}) error }) (types.Truck, error) {
	var t types.Truck
	var lat, lng, speed sql.NullFloat64
	var ts sql.NullTime

	err := row.Scan(&t.ID, &t.Name, &t.LicensePlate, &lat, &lng, &speed, &ts, &t.OdometerKm, &t.FuelUsedL, &t.KmPerLiter)
	if err != nil {
		return t, err
	}

	if lat.Valid && lng.Valid && ts.Valid {
		t.LastPosition = &types.PositionSample{
			TruckID:   t.ID,
			Position:  pointFrom(lat.Float64, lng.Float64),
			SpeedKmh:  speed.Float64,
			Timestamp: ts.Time,
		}
	}
	return t, nil
}

const truckColumns = "id, name, license_plate, last_lat, last_lng, last_speed, last_update_ts, odometer_km, fuel_used_l, km_per_liter"

func (f *FleetSource) GetTruck(id int64) (types.Truck, error) {
	db, err := f.db()
	if err != nil {
		return types.Truck{}, err
	}

	q := fmt.Sprintf("SELECT %s FROM truck WHERE id = $1", truckColumns)
	return scanTruck(db.QueryRow(q, id))
}

func (f *FleetSource) GetAllTrucks() ([]types.Truck, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM truck ORDER BY id", truckColumns)
	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trucks []types.Truck
	for rows.Next() {
		t, err := scanTruck(rows)
		if err != nil {
			return nil, err
		}
		trucks = append(trucks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trucks, nil
}

func (f *FleetSource) UpdateTruckPosition(truckID int64, sample types.PositionSample, odometerKm, fuelUsedL float64) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = `UPDATE truck
		SET last_lat = $2, last_lng = $3, last_speed = $4, last_update_ts = $5,
		    odometer_km = $6, fuel_used_l = $7
		WHERE id = $1`
	_, err = db.Exec(q, truckID, sample.Position.Latitude, sample.Position.Longitude,
		sample.SpeedKmh, sample.Timestamp, odometerKm, fuelUsedL)
	return err
}

func (f *FleetSource) AddGPSEvent(sample types.PositionSample) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = "INSERT INTO gps_event (truck_id, lat, lng, speed, ts) VALUES ($1, $2, $3, $4, $5)"
	_, err = db.Exec(q, sample.TruckID, sample.Position.Latitude, sample.Position.Longitude, sample.SpeedKmh, sample.Timestamp)
	return err
}

func (f *FleetSource) GetTrack(truckID int64, limit int) ([]types.PositionSample, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = "SELECT truck_id, lat, lng, speed, ts FROM gps_event WHERE truck_id = $1 ORDER BY ts DESC LIMIT $2"
	rows, err := db.Query(q, truckID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var track []types.PositionSample
	for rows.Next() {
		var s types.PositionSample
		var lat, lng float64
		if err := rows.Scan(&s.TruckID, &lat, &lng, &s.SpeedKmh, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Position = pointFrom(lat, lng)
		track = append(track, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return track, nil
}

func scanCustomers(rows *sql.Rows) ([]types.Customer, error) {
	defer rows.Close()

	var customers []types.Customer
	for rows.Next() {
		var c types.Customer
		var lat, lng float64
		if err := rows.Scan(&c.ID, &c.Name, &lat, &lng, &c.GeofenceRadiusM); err != nil {
			return nil, err
		}
		c.Center = pointFrom(lat, lng)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (f *FleetSource) GetAllCustomers() ([]types.Customer, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = "SELECT id, name, lat, lng, geofence_radius_m FROM customer"
	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	return scanCustomers(rows)
}

func (f *FleetSource) GetCustomersByIDs(ids []int64) ([]types.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = "SELECT id, name, lat, lng, geofence_radius_m FROM customer WHERE id = ANY($1)"
	rows, err := db.Query(q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanCustomers(rows)
}

func (f *FleetSource) GetActiveRoute(truckID int64, date string) (*types.Route, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = "SELECT id, truck_id, date, planned_path FROM route WHERE truck_id = $1 AND date = $2"
	var r types.Route
	var rawPath []byte
	err = db.QueryRow(q, truckID, date).Scan(&r.ID, &r.TruckID, &r.Date, &rawPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rawPath, &r.PlannedPath); err != nil {
		return nil, fmt.Errorf("failed to decode planned path of route %d: %v", r.ID, err)
	}
	return &r, nil
}

func (f *FleetSource) GetOpenEpisode(truckID, routeID int64) (*types.DeviationEpisode, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, truck_id, route_id, start_ts, end_ts, max_distance_m
		FROM route_deviation_event
		WHERE truck_id = $1 AND route_id = $2 AND end_ts IS NULL`
	var ep types.DeviationEpisode
	var endTS sql.NullTime
	err = db.QueryRow(q, truckID, routeID).Scan(&ep.ID, &ep.TruckID, &ep.RouteID, &ep.StartTS, &endTS, &ep.MaxDistanceM)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endTS.Valid {
		ep.EndTS = &endTS.Time
	}
	return &ep, nil
}

func (f *FleetSource) OpenEpisode(ep types.DeviationEpisode) (int64, error) {
	db, err := f.db()
	if err != nil {
		return 0, err
	}

	// Conditional insert keeps at most one open episode per (truck, route)
	// even when two ingestion passes race.
	const q = `INSERT INTO route_deviation_event (truck_id, route_id, start_ts, max_distance_m)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (
			SELECT 1 FROM route_deviation_event
			WHERE truck_id = $1 AND route_id = $2 AND end_ts IS NULL
		)
		RETURNING id`
	var id int64
	err = db.QueryRow(q, ep.TruckID, ep.RouteID, ep.StartTS, ep.MaxDistanceM).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

func (f *FleetSource) UpdateEpisodeMaxDistance(id int64, maxDistanceM float64) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	// The ratchet only moves up.
	const q = "UPDATE route_deviation_event SET max_distance_m = $2 WHERE id = $1 AND max_distance_m < $2"
	_, err = db.Exec(q, id, maxDistanceM)
	return err
}

func (f *FleetSource) CloseEpisode(id int64, endTS time.Time) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = "UPDATE route_deviation_event SET end_ts = $2 WHERE id = $1 AND end_ts IS NULL"
	_, err = db.Exec(q, id, endTS)
	return err
}

func (f *FleetSource) GetEpisodes(onlyOpen bool) ([]types.DeviationEpisode, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	q := "SELECT id, truck_id, route_id, start_ts, end_ts, max_distance_m FROM route_deviation_event"
	if onlyOpen {
		q += " WHERE end_ts IS NULL"
	}
	q += " ORDER BY start_ts DESC"

	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []types.DeviationEpisode
	for rows.Next() {
		var ep types.DeviationEpisode
		var endTS sql.NullTime
		if err := rows.Scan(&ep.ID, &ep.TruckID, &ep.RouteID, &ep.StartTS, &endTS, &ep.MaxDistanceM); err != nil {
			return nil, err
		}
		if endTS.Valid {
			ep.EndTS = &endTS.Time
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return episodes, nil
}

func (f *FleetSource) GetAllMaintenanceRules() ([]types.MaintenanceRule, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, truck_id, service_type, interval_km, interval_days, last_service_km, last_service_date
		FROM maintenance_rule ORDER BY truck_id, id`
	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []types.MaintenanceRule
	for rows.Next() {
		var r types.MaintenanceRule
		if err := rows.Scan(&r.ID, &r.TruckID, &r.ServiceType, &r.IntervalKm, &r.IntervalDays, &r.LastServiceKm, &r.LastServiceDate); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (f *FleetSource) GetUnresolvedAlert(ruleID int64) (*types.MaintenanceAlert, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, truck_id, rule_id, severity, message, created_ts, resolved_ts
		FROM maintenance_alert WHERE rule_id = $1 AND resolved_ts IS NULL`
	var a types.MaintenanceAlert
	var resolvedTS sql.NullTime
	err = db.QueryRow(q, ruleID).Scan(&a.ID, &a.TruckID, &a.RuleID, &a.Severity, &a.Message, &a.CreatedTS, &resolvedTS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resolvedTS.Valid {
		a.ResolvedTS = &resolvedTS.Time
	}
	return &a, nil
}

func (f *FleetSource) CreateAlertIfAbsent(alert types.MaintenanceAlert) (int64, bool, error) {
	db, err := f.db()
	if err != nil {
		return 0, false, err
	}

	// Single-statement conditional insert closes the check-then-act race on
	// the at-most-one-unresolved-alert-per-rule invariant.
	const q = `INSERT INTO maintenance_alert (truck_id, rule_id, severity, message, created_ts)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM maintenance_alert WHERE rule_id = $2 AND resolved_ts IS NULL
		)
		RETURNING id`
	var id int64
	err = db.QueryRow(q, alert.TruckID, alert.RuleID, alert.Severity, alert.Message, alert.CreatedTS).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (f *FleetSource) EscalateAlert(ruleID int64, message string) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = `UPDATE maintenance_alert
		SET severity = 'overdue', message = $2
		WHERE rule_id = $1 AND resolved_ts IS NULL AND severity = 'due_soon'`
	_, err = db.Exec(q, ruleID, message)
	return err
}

func (f *FleetSource) ResolveAlert(alertID int64, ts time.Time) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = "UPDATE maintenance_alert SET resolved_ts = $2 WHERE id = $1 AND resolved_ts IS NULL"
	res, err := db.Exec(q, alertID, ts)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("alert %d not found or already resolved", alertID)
	}
	return nil
}

func (f *FleetSource) GetAlerts(onlyUnresolved bool) ([]types.MaintenanceAlert, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	q := "SELECT id, truck_id, rule_id, severity, message, created_ts, resolved_ts FROM maintenance_alert"
	if onlyUnresolved {
		q += " WHERE resolved_ts IS NULL"
	}
	q += " ORDER BY created_ts DESC"

	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []types.MaintenanceAlert
	for rows.Next() {
		var a types.MaintenanceAlert
		var resolvedTS sql.NullTime
		if err := rows.Scan(&a.ID, &a.TruckID, &a.RuleID, &a.Severity, &a.Message, &a.CreatedTS, &resolvedTS); err != nil {
			return nil, err
		}
		if resolvedTS.Valid {
			a.ResolvedTS = &resolvedTS.Time
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (f *FleetSource) GetPendingDelivery(truckID int64) (*types.Delivery, error) {
	db, err := f.db()
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, truck_id, customer_id, status, completed_ts, issue_category, issue_notes, signature_url
		FROM delivery WHERE truck_id = $1 AND status = 'pending' ORDER BY id LIMIT 1`
	var d types.Delivery
	var completedTS sql.NullTime
	var category, notes, signature sql.NullString
	err = db.QueryRow(q, truckID).Scan(&d.ID, &d.TruckID, &d.CustomerID, &d.Status, &completedTS, &category, &notes, &signature)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completedTS.Valid {
		d.CompletedTS = &completedTS.Time
	}
	if category.Valid {
		ic := types.IssueCategory(category.String)
		d.IssueCategory = &ic
	}
	d.IssueNotes = notes.String
	d.SignatureURL = signature.String
	return &d, nil
}

func (f *FleetSource) CompleteDelivery(id int64, signatureURL string, ts time.Time) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = `UPDATE delivery SET status = 'completed', completed_ts = $2, signature_url = $3
		WHERE id = $1 AND status = 'pending'`
	res, err := db.Exec(q, id, ts, signatureURL)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("delivery %d is not pending", id)
	}
	return nil
}

func (f *FleetSource) FailDelivery(id int64, category types.IssueCategory, notes string, ts time.Time) error {
	db, err := f.db()
	if err != nil {
		return err
	}

	const q = `UPDATE delivery SET status = 'failed', completed_ts = $2, issue_category = $3, issue_notes = $4
		WHERE id = $1 AND status = 'pending'`
	res, err := db.Exec(q, id, ts, string(category), notes)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("delivery %d is not pending", id)
	}
	return nil
}

func (f *FleetSource) Close() error {
	return f.connector.Close()
}
