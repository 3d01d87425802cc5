package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sos-dispatch/internal/config"
)

func NewRouter(h *Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(h.logger))

	api := r.Group(cfg.API.BasePath)
	{
		// Alerts
		api.GET("/alerts", h.ListPending)
		api.GET("/alerts/status/:status", h.ListByStatus)
		api.GET("/alerts/accepted", h.ListAccepted)
		api.GET("/alerts/completed", h.ListCompleted)
		api.GET("/alerts/canceled", h.ListCanceled)
		api.GET("/alerts/assigned/:nic", h.AssignedAlerts)
		api.POST("/alerts", h.SubmitAlert)
		api.GET("/alerts/:id", h.GetAlert)
		api.PUT("/alerts/:id/accept", h.AcceptAlert)
		api.PUT("/alerts/:id/cancel", h.CancelAlert)
		api.PUT("/alerts/:id/reached", h.MarkReached)
		api.POST("/alerts/:id/completeWithDetails", h.CompleteAlert)
		api.POST("/alerts/:id/media", h.AttachMedia)
		api.PUT("/alerts/:id/location", h.UpdateLocation)
		api.PUT("/alerts/:id/assign", h.AssignResponder)
		api.DELETE("/alerts", h.PurgePending)

		// Responder directory
		api.POST("/responders", h.UpsertResponder)
		api.GET("/responders", h.ListResponders)
		api.GET("/responders/search", h.SearchResponders)
		api.PUT("/responders/:id/position", h.UpdateResponderPosition)
	}

	r.GET("/ws/positions", h.PositionStream)
	r.Static("/uploads", h.uploadDir)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
