package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/domain"
	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/source/memory"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newAPIFixture() (*memory.FleetSource, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard)

	src := memory.New()
	repo := repository.NewFleet(src)
	classifier := domain.NewStatusClassifier(0, 0)
	handler := NewHandler(
		repo,
		classifier,
		domain.NewIngestSample(repo, nil, classifier, 0),
		&domain.DeliveryOutcome{Repository: repo},
	)
	return src, NewController(handler).Router()
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetTrucksComputesStatus(t *testing.T) {
	src, router := newAPIFixture()
	now := time.Now().UTC()
	src.PutTruck(types.Truck{
		ID:   1,
		Name: "T-01",
		LastPosition: &types.PositionSample{
			TruckID:   1,
			Position:  geo.Point{Latitude: 37.77, Longitude: -122.42},
			SpeedKmh:  45,
			Timestamp: now,
		},
	})
	src.PutTruck(types.Truck{ID: 2, Name: "T-02"})

	rec := perform(router, http.MethodGet, "/trucks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var views []TruckView
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	if assert.Len(t, views, 2) {
		assert.Equal(t, types.StatusEnRoute, views[0].Status)
		// Never reported: offline.
		assert.Equal(t, types.StatusOffline, views[1].Status)
	}
}

func TestGetTruckNotFound(t *testing.T) {
	_, router := newAPIFixture()

	rec := perform(router, http.MethodGet, "/trucks/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(router, http.MethodGet, "/trucks/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTrack(t *testing.T) {
	src, router := newAPIFixture()
	src.PutTruck(types.Truck{ID: 1, Name: "T-01"})
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		assert.NoError(t, src.AddGPSEvent(types.PositionSample{
			TruckID:   1,
			Position:  geo.Point{Latitude: 37.77, Longitude: -122.42},
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := perform(router, http.MethodGet, "/trucks/1/track?limit=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var track []types.PositionSample
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &track))
	assert.Len(t, track, 2)
}

func TestIngestEndpoint(t *testing.T) {
	src, router := newAPIFixture()
	src.PutTruck(types.Truck{ID: 1, Name: "T-01"})

	sample := types.PositionSample{
		TruckID:   1,
		Position:  geo.Point{Latitude: 37.77, Longitude: -122.42},
		SpeedKmh:  50,
		Timestamp: time.Now().UTC(),
	}
	rec := perform(router, http.MethodPost, "/ingest", sample)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ingestResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.StatusEnRoute, resp.Status)

	track, err := src.GetTrack(1, 10)
	assert.NoError(t, err)
	assert.Len(t, track, 1)
}

func TestIngestEndpointRejectsUnknownTruck(t *testing.T) {
	_, router := newAPIFixture()

	sample := types.PositionSample{
		TruckID:   42,
		Position:  geo.Point{Latitude: 37.77, Longitude: -122.42},
		Timestamp: time.Now().UTC(),
	}
	rec := perform(router, http.MethodPost, "/ingest", sample)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertsEndpoints(t *testing.T) {
	src, router := newAPIFixture()
	src.PutTruck(types.Truck{ID: 1, Name: "T-01"})
	id, created, err := src.CreateAlertIfAbsent(types.MaintenanceAlert{
		TruckID:   1,
		RuleID:    1,
		Severity:  types.SeverityDueSoon,
		Message:   "oil change due soon for truck T-01",
		CreatedTS: time.Now().UTC(),
	})
	assert.NoError(t, err)
	assert.True(t, created)

	rec := perform(router, http.MethodGet, "/alerts?unresolved=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var alerts []types.MaintenanceAlert
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	assert.Len(t, alerts, 1)

	rec = perform(router, http.MethodPost, fmt.Sprintf("/alerts/%d/resolve", id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = perform(router, http.MethodGet, "/alerts?unresolved=1", nil)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	assert.Empty(t, alerts)

	// Resolving a resolved alert is a 404.
	rec = perform(router, http.MethodPost, fmt.Sprintf("/alerts/%d/resolve", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEpisodesEndpoint(t *testing.T) {
	src, router := newAPIFixture()
	now := time.Now().UTC()

	openID, err := src.OpenEpisode(types.DeviationEpisode{TruckID: 1, RouteID: 10, StartTS: now, MaxDistanceM: 700})
	assert.NoError(t, err)
	assert.NotZero(t, openID)

	closedID, err := src.OpenEpisode(types.DeviationEpisode{TruckID: 2, RouteID: 11, StartTS: now, MaxDistanceM: 600})
	assert.NoError(t, err)
	assert.NoError(t, src.CloseEpisode(closedID, now.Add(time.Minute)))

	rec := perform(router, http.MethodGet, "/episodes?open=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var episodes []types.DeviationEpisode
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &episodes))
	if assert.Len(t, episodes, 1) {
		assert.Equal(t, openID, episodes[0].ID)
	}

	rec = perform(router, http.MethodGet, "/episodes", nil)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &episodes))
	assert.Len(t, episodes, 2)
}

func TestDeliveryEndpoints(t *testing.T) {
	src, router := newAPIFixture()
	src.PutTruck(types.Truck{ID: 1, Name: "T-01"})
	src.PutDelivery(types.Delivery{ID: 5, TruckID: 1, CustomerID: 7, Status: types.DeliveryPending})
	src.PutDelivery(types.Delivery{ID: 6, TruckID: 1, CustomerID: 8, Status: types.DeliveryPending})

	rec := perform(router, http.MethodPost, "/deliveries/5/complete", completeDeliveryRequest{TruckID: 1, SignatureURL: "sig/5.png"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Missing signature is rejected.
	rec = perform(router, http.MethodPost, "/deliveries/6/complete", completeDeliveryRequest{TruckID: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(router, http.MethodPost, "/deliveries/6/fail", failDeliveryRequest{TruckID: 1, Category: types.IssueDamage, Notes: "crate crushed"})
	assert.Equal(t, http.StatusOK, rec.Code)

	pending, err := src.GetPendingDelivery(1)
	assert.NoError(t, err)
	assert.Nil(t, pending)
}
