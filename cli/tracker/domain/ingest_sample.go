package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
	log "github.com/sirupsen/logrus"
)

// EventPublisher fans a change event out to the configured publishers.
type EventPublisher interface {
	Publish(interface{ ToBytes() ([]byte, error) }) error
}

// IngestSample is one telemetry cycle: persist the sample, refresh the
// truck's derived accumulators, classify status, and drive the deviation
// episode machine against the active route. Each arriving sample triggers
// one pass; there is no global timer.
type IngestSample struct {
	Repository repository.Fleet
	Events     EventPublisher

	Classifier          StatusClassifier
	DeviationThresholdM float64
}

func NewIngestSample(repo repository.Fleet, events EventPublisher, classifier StatusClassifier, deviationThresholdM float64) *IngestSample {
	if deviationThresholdM <= 0 {
		deviationThresholdM = DefaultDeviationThresholdM
	}
	return &IngestSample{
		Repository:          repo,
		Events:              events,
		Classifier:          classifier,
		DeviationThresholdM: deviationThresholdM,
	}
}

func validateSample(sample types.PositionSample) error {
	if sample.TruckID == 0 {
		return fmt.Errorf("sample has no truck id")
	}
	if sample.Timestamp.IsZero() {
		return fmt.Errorf("sample has no timestamp")
	}
	if sample.Position.Latitude < -90 || sample.Position.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range", sample.Position.Latitude)
	}
	if sample.Position.Longitude < -180 || sample.Position.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range", sample.Position.Longitude)
	}
	if sample.SpeedKmh < 0 {
		return fmt.Errorf("negative speed %f", sample.SpeedKmh)
	}
	return nil
}

func (i *IngestSample) publish(entity types.EntityKind, action types.ChangeAction, truckID int64, payload interface{}) {
	if i.Events == nil {
		return
	}
	event := types.ChangeEvent{
		Entity:    entity,
		Action:    action,
		TruckID:   truckID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := i.Events.Publish(&event); err != nil {
		log.Warnf("Failed to publish %s change event for truck %d: %v", entity, truckID, err)
	}
}

// Run processes one sample. A store failure aborts the pass before any
// further mutation for this truck; the evaluators are stateless, so the only
// loss is one cycle's freshness. The computed status is returned for the
// caller's benefit and is never persisted.
func (i *IngestSample) Run(ctx context.Context, sample types.PositionSample) (types.TruckStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateSample(sample); err != nil {
		return "", fmt.Errorf("invalid sample: %w", err)
	}

	truck, err := i.Repository.GetTruck(sample.TruckID)
	if err != nil {
		return "", fmt.Errorf("failed to load truck %d: %w", sample.TruckID, err)
	}

	// Odometer grows by the great-circle hop from the previous fix; fuel
	// follows from the truck's consumption figure.
	odometerKm := truck.OdometerKm
	fuelUsedL := truck.FuelUsedL
	if truck.LastPosition != nil {
		hopKm := geo.Distance(truck.LastPosition.Position, sample.Position) / 1000
		odometerKm += hopKm
		if truck.KmPerLiter > 0 {
			fuelUsedL += hopKm / truck.KmPerLiter
		}
	}

	if err := i.Repository.UpdateTruckPosition(sample.TruckID, sample, odometerKm, fuelUsedL); err != nil {
		return "", fmt.Errorf("failed to update truck %d position: %w", sample.TruckID, err)
	}
	if err := i.Repository.AddGPSEvent(sample); err != nil {
		return "", fmt.Errorf("failed to append GPS event for truck %d: %w", sample.TruckID, err)
	}

	truck.LastPosition = &sample
	truck.OdometerKm = odometerKm
	truck.FuelUsedL = fuelUsedL

	i.publish(types.EntityGPSEvent, types.ActionCreated, sample.TruckID, sample)
	i.publish(types.EntityTruck, types.ActionUpdated, truck.ID, truck)

	route, err := i.Repository.GetActiveRoute(sample.TruckID, sample.Timestamp.UTC().Format("2006-01-02"))
	if err != nil {
		return "", fmt.Errorf("failed to load active route for truck %d: %w", sample.TruckID, err)
	}

	candidates, err := i.Repository.CandidateCustomers(route)
	if err != nil {
		return "", fmt.Errorf("failed to load customers for truck %d: %w", sample.TruckID, err)
	}

	status := i.Classifier.Classify(truck, time.Now().UTC(), candidates)
	log.Debugf("Truck %d classified as %s", truck.ID, status)

	// No active route means no deviation to measure; absence is a valid
	// state, not an error.
	if route != nil {
		dev := MeasureDeviation(sample.Position, route.PlannedPath, i.DeviationThresholdM)
		tracker := EpisodeTracker{Repository: i.Repository}
		episode, action, err := tracker.Track(truck.ID, route.ID, dev, sample.Timestamp)
		if err != nil {
			return "", err
		}
		if episode != nil {
			i.publish(types.EntityEpisode, action, truck.ID, episode)
		}
	}

	return status, nil
}
