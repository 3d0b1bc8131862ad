package domain

import (
	"context"
	"io"
	"testing"

	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/source/memory"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newDeliveryFixture() (*memory.FleetSource, *DeliveryOutcome) {
	log.SetOutput(io.Discard)
	src := memory.New()
	src.PutTruck(types.Truck{ID: 1, Name: "T-01"})
	src.PutDelivery(types.Delivery{ID: 5, TruckID: 1, CustomerID: 7, Status: types.DeliveryPending})
	return src, &DeliveryOutcome{Repository: repository.NewFleet(src)}
}

func TestCompleteDelivery(t *testing.T) {
	src, outcome := newDeliveryFixture()

	err := outcome.Complete(context.Background(), 1, 5, "sig/5.png")
	assert.NoError(t, err)

	pending, err := src.GetPendingDelivery(1)
	assert.NoError(t, err)
	assert.Nil(t, pending)

	// Completing twice is rejected: the delivery is no longer pending.
	assert.Error(t, outcome.Complete(context.Background(), 1, 5, "sig/5.png"))
}

func TestCompleteDeliveryRequiresSignature(t *testing.T) {
	_, outcome := newDeliveryFixture()
	assert.Error(t, outcome.Complete(context.Background(), 1, 5, ""))
}

func TestFailDelivery(t *testing.T) {
	src, outcome := newDeliveryFixture()

	err := outcome.Fail(context.Background(), 1, 5, types.IssueRefused, "customer refused the load")
	assert.NoError(t, err)

	pending, err := src.GetPendingDelivery(1)
	assert.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFailDeliveryInvalidCategory(t *testing.T) {
	_, outcome := newDeliveryFixture()
	assert.Error(t, outcome.Fail(context.Background(), 1, 5, types.IssueCategory("bogus"), ""))
}
