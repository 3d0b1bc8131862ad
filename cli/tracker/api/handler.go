package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/domain"
	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repository repository.Fleet
	Classifier domain.StatusClassifier
	Ingest     *domain.IngestSample
	Deliveries *domain.DeliveryOutcome
}

func NewHandler(repo repository.Fleet, classifier domain.StatusClassifier, ingest *domain.IngestSample, deliveries *domain.DeliveryOutcome) *Handler {
	return &Handler{
		Repository: repo,
		Classifier: classifier,
		Ingest:     ingest,
		Deliveries: deliveries,
	}
}

func (h *Handler) truckView(truck types.Truck, now time.Time) (TruckView, error) {
	route, err := h.Repository.GetActiveRoute(truck.ID, now.Format("2006-01-02"))
	if err != nil {
		return TruckView{}, err
	}
	candidates, err := h.Repository.CandidateCustomers(route)
	if err != nil {
		return TruckView{}, err
	}

	return TruckView{
		ID:           truck.ID,
		Name:         truck.Name,
		LicensePlate: truck.LicensePlate,
		Status:       h.Classifier.Classify(truck, now, candidates),
		LastPosition: truck.LastPosition,
		OdometerKm:   truck.OdometerKm,
		FuelUsedL:    truck.FuelUsedL,
	}, nil
}

func (h *Handler) GetTrucks(c *gin.Context) {
	trucks, err := h.Repository.GetAllTrucks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	views := make([]TruckView, 0, len(trucks))
	for _, truck := range trucks {
		view, err := h.truckView(truck, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetTruck(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid truck id"})
		return
	}

	truck, err := h.Repository.GetTruck(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	view, err := h.truckView(truck, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetTrack(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid truck id"})
		return
	}

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	track, err := h.Repository.GetTrack(id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, track)
}

func (h *Handler) GetAlerts(c *gin.Context) {
	alerts, err := h.Repository.GetAlerts(c.Query("unresolved") == "1")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	if err := h.Repository.ResolveAlert(id, time.Now().UTC()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": id})
}

func (h *Handler) GetEpisodes(c *gin.Context) {
	episodes, err := h.Repository.GetEpisodes(c.Query("open") == "1")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, episodes)
}

func (h *Handler) IngestSample(c *gin.Context) {
	var sample types.PositionSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}

	status, err := h.Ingest.Run(c.Request.Context(), sample)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ingestResponse{Status: status})
}

func (h *Handler) CompleteDelivery(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery id"})
		return
	}

	var req completeDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Deliveries.Complete(c.Request.Context(), req.TruckID, id, req.SignatureURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"completed": id})
}

func (h *Handler) FailDelivery(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delivery id"})
		return
	}

	var req failDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Deliveries.Fail(c.Request.Context(), req.TruckID, id, req.Category, req.Notes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"failed": id})
}
