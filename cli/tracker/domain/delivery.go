package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	log "github.com/sirupsen/logrus"
)

// DeliveryOutcome records a driver's completion of a stop, with signature,
// or its failure with an issue category.
type DeliveryOutcome struct {
	Repository repository.Fleet
	Events     EventPublisher
}

func (d *DeliveryOutcome) publish(truckID int64, deliveryID int64) {
	if d.Events == nil {
		return
	}
	event := types.ChangeEvent{
		Entity:    types.EntityDelivery,
		Action:    types.ActionUpdated,
		TruckID:   truckID,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]int64{"delivery_id": deliveryID},
	}
	if err := d.Events.Publish(&event); err != nil {
		log.Warnf("Failed to publish delivery change event: %v", err)
	}
}

func (d *DeliveryOutcome) Complete(ctx context.Context, truckID, deliveryID int64, signatureURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if signatureURL == "" {
		return fmt.Errorf("a completed delivery requires a signature reference")
	}

	if err := d.Repository.CompleteDelivery(deliveryID, signatureURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to complete delivery %d: %w", deliveryID, err)
	}

	log.Infof("Delivery %d completed by truck %d", deliveryID, truckID)
	d.publish(truckID, deliveryID)
	return nil
}

func (d *DeliveryOutcome) Fail(ctx context.Context, truckID, deliveryID int64, category types.IssueCategory, notes string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !category.IsValid() {
		return fmt.Errorf("invalid issue category: %q", string(category))
	}

	if err := d.Repository.FailDelivery(deliveryID, category, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record delivery %d failure: %w", deliveryID, err)
	}

	log.Warnf("Delivery %d failed for truck %d: %s", deliveryID, truckID, category)
	d.publish(truckID, deliveryID)
	return nil
}
