package api

import "github.com/gin-gonic/gin"

type Controller struct {
	Handler *Handler
	router  *gin.Engine
}

func NewController(handler *Handler) *Controller {
	router := gin.Default()

	trucks := router.Group("/trucks")
	{
		trucks.GET("", handler.GetTrucks)
		trucks.GET(":id", handler.GetTruck)
		trucks.GET(":id/track", handler.GetTrack)
	}

	alerts := router.Group("/alerts")
	{
		alerts.GET("", handler.GetAlerts)
		alerts.POST(":id/resolve", handler.ResolveAlert)
	}

	deliveries := router.Group("/deliveries")
	{
		deliveries.POST(":id/complete", handler.CompleteDelivery)
		deliveries.POST(":id/fail", handler.FailDelivery)
	}

	router.GET("/episodes", handler.GetEpisodes)
	router.POST("/ingest", handler.IngestSample)

	return &Controller{Handler: handler, router: router}
}

// Router exposes the underlying engine for tests.
func (c *Controller) Router() *gin.Engine {
	return c.router
}

func (c *Controller) Run(addr string) error {
	return c.router.Run(addr)
}
