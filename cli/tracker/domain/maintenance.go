package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	cron "github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultDueSoonKm is the remaining-distance margin for due_soon.
	DefaultDueSoonKm = 500.0
	// DefaultDueSoonDays is the remaining-days margin for due_soon.
	DefaultDueSoonDays = 7
)

type Evaluation struct {
	Status        types.MaintenanceStatus `json:"status"`
	KmRemaining   float64                 `json:"km_remaining"`
	DaysRemaining int                     `json:"days_remaining"`
}

// EvaluateRule computes the due tier for one maintenance rule. Overdue wins
// when either dimension has run out; due_soon when either is within its
// margin. Days are truncated to whole days since the last service.
func EvaluateRule(currentOdometerKm float64, rule types.MaintenanceRule, now time.Time, dueSoonKm float64, dueSoonDays int) (Evaluation, error) {
	if rule.IntervalKm <= 0 || rule.IntervalDays <= 0 {
		return Evaluation{}, fmt.Errorf("rule %d has non-positive interval (%f km, %d days)", rule.ID, rule.IntervalKm, rule.IntervalDays)
	}
	if rule.LastServiceDate.IsZero() {
		return Evaluation{}, fmt.Errorf("rule %d has no last service date", rule.ID)
	}
	if currentOdometerKm < 0 {
		return Evaluation{}, fmt.Errorf("negative odometer reading %f", currentOdometerKm)
	}

	kmRemaining := rule.IntervalKm - (currentOdometerKm - rule.LastServiceKm)
	daysSinceService := int(now.Sub(rule.LastServiceDate).Hours() / 24)
	daysRemaining := rule.IntervalDays - daysSinceService

	ev := Evaluation{KmRemaining: kmRemaining, DaysRemaining: daysRemaining}
	switch {
	case kmRemaining <= 0 || daysRemaining <= 0:
		ev.Status = types.MaintenanceOverdue
	case kmRemaining <= dueSoonKm || daysRemaining <= dueSoonDays:
		ev.Status = types.MaintenanceDueSoon
	default:
		ev.Status = types.MaintenanceOK
	}
	return ev, nil
}

func dueSoonMessage(truck types.Truck, rule types.MaintenanceRule) string {
	return fmt.Sprintf("%s due soon for truck %s", rule.ServiceType.Label(), truck.Name)
}

func overdueMessage(truck types.Truck, rule types.MaintenanceRule) string {
	return fmt.Sprintf("OVERDUE: %s required for truck %s", rule.ServiceType.Label(), truck.Name)
}

// AlertReconciler converts an evaluation into at most one alert mutation per
// rule. An ok evaluation never touches existing alerts; resolution is an
// explicit separate operation.
type AlertReconciler struct {
	Repository repository.Fleet
}

// Reconcile returns the alert that was created or escalated, if any.
func (r *AlertReconciler) Reconcile(truck types.Truck, rule types.MaintenanceRule, ev Evaluation, now time.Time) (*types.MaintenanceAlert, types.ChangeAction, error) {
	if ev.Status == types.MaintenanceOK {
		return nil, "", nil
	}

	existing, err := r.Repository.GetUnresolvedAlert(rule.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up unresolved alert for rule %d: %w", rule.ID, err)
	}

	switch ev.Status {
	case types.MaintenanceDueSoon:
		if existing != nil {
			return nil, "", nil
		}
		alert := types.MaintenanceAlert{
			TruckID:   rule.TruckID,
			RuleID:    rule.ID,
			Severity:  types.SeverityDueSoon,
			Message:   dueSoonMessage(truck, rule),
			CreatedTS: now,
		}
		id, created, err := r.Repository.CreateAlertIfAbsent(alert)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create alert for rule %d: %w", rule.ID, err)
		}
		if !created {
			// A concurrent reconciliation got there first.
			return nil, "", nil
		}
		alert.ID = id
		log.Warnf("Maintenance alert created for truck %s: %s", truck.Name, alert.Message)
		return &alert, types.ActionCreated, nil

	case types.MaintenanceOverdue:
		if existing == nil {
			alert := types.MaintenanceAlert{
				TruckID:   rule.TruckID,
				RuleID:    rule.ID,
				Severity:  types.SeverityOverdue,
				Message:   overdueMessage(truck, rule),
				CreatedTS: now,
			}
			id, created, err := r.Repository.CreateAlertIfAbsent(alert)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create alert for rule %d: %w", rule.ID, err)
			}
			if !created {
				return nil, "", nil
			}
			alert.ID = id
			log.Errorf("Maintenance alert created for truck %s: %s", truck.Name, alert.Message)
			return &alert, types.ActionCreated, nil
		}

		if existing.Severity == types.SeverityDueSoon {
			message := overdueMessage(truck, rule)
			if err := r.Repository.EscalateAlert(rule.ID, message); err != nil {
				return nil, "", fmt.Errorf("failed to escalate alert for rule %d: %w", rule.ID, err)
			}
			existing.Severity = types.SeverityOverdue
			existing.Message = message
			log.Errorf("Maintenance alert escalated to overdue for truck %s", truck.Name)
			return existing, types.ActionUpdated, nil
		}

		// Already overdue, nothing to do.
		return nil, "", nil
	}

	return nil, "", nil
}

// MaintenanceSweep walks every rule on a cron cadence, decoupled from
// telemetry arrival, evaluating due state and reconciling alerts.
type MaintenanceSweep struct {
	Repository     repository.Fleet
	Events         EventPublisher
	DueSoonKm      float64
	DueSoonDays    int
	CronExpression string

	cronScheduler *cron.Cron
}

func (s *MaintenanceSweep) Initialize() error {
	if s.DueSoonKm <= 0 {
		s.DueSoonKm = DefaultDueSoonKm
	}
	if s.DueSoonDays <= 0 {
		s.DueSoonDays = DefaultDueSoonDays
	}

	s.cronScheduler = cron.New()
	_, err := s.cronScheduler.AddFunc(s.CronExpression, func() {
		log.Info("Starting scheduled maintenance sweep")
		if err := s.Run(context.Background()); err != nil {
			log.Errorf("Maintenance sweep finished with errors: %v", err)
		} else {
			log.Info("Maintenance sweep finished")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance sweep: %w", err)
	}

	s.cronScheduler.Start()
	log.Infof("Scheduled maintenance sweep with cadence %q", s.CronExpression)
	return nil
}

func (s *MaintenanceSweep) Shutdown() {
	if s.cronScheduler != nil {
		// Stop scheduling new sweeps; an in-flight sweep runs to completion.
		s.cronScheduler.Stop()
		log.Info("Maintenance sweep scheduler stopped")
	}
}

// Run performs one sweep over all rules. A failing rule is skipped and
// retried on the next sweep; the remaining rules still run.
func (s *MaintenanceSweep) Run(ctx context.Context) error {
	rules, err := s.Repository.GetAllMaintenanceRules()
	if err != nil {
		return fmt.Errorf("failed to load maintenance rules: %w", err)
	}
	if len(rules) == 0 {
		log.Debug("No maintenance rules to evaluate")
		return nil
	}

	trucks, err := s.Repository.GetAllTrucks()
	if err != nil {
		return fmt.Errorf("failed to load trucks: %w", err)
	}
	trucksByID := make(map[int64]types.Truck, len(trucks))
	for _, t := range trucks {
		trucksByID[t.ID] = t
	}

	reconciler := AlertReconciler{Repository: s.Repository}
	now := time.Now().UTC()

	var lastErr error
	for _, rule := range rules {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		truck, ok := trucksByID[rule.TruckID]
		if !ok {
			log.Warnf("Maintenance rule %d references unknown truck %d", rule.ID, rule.TruckID)
			continue
		}

		ev, err := EvaluateRule(truck.OdometerKm, rule, now, s.DueSoonKm, s.DueSoonDays)
		if err != nil {
			log.Warnf("Skipping maintenance rule %d: %v", rule.ID, err)
			lastErr = err
			continue
		}

		alert, action, err := reconciler.Reconcile(truck, rule, ev, now)
		if err != nil {
			log.Warnf("Failed to reconcile alert for rule %d: %v", rule.ID, err)
			lastErr = err
			continue
		}

		if alert != nil && s.Events != nil {
			event := types.ChangeEvent{
				Entity:    types.EntityAlert,
				Action:    action,
				TruckID:   alert.TruckID,
				Timestamp: now,
				Payload:   alert,
			}
			if err := s.Events.Publish(&event); err != nil {
				log.Warnf("Failed to publish alert change event: %v", err)
			}
		}
	}

	return lastErr
}
