package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sos-dispatch/internal/alerts"
	"sos-dispatch/internal/models"
	"sos-dispatch/internal/notify"
)

type Handler struct {
	svc       *alerts.Service
	hub       *notify.Hub
	logger    *logrus.Logger
	uploadDir string
}

func NewHandler(svc *alerts.Service, hub *notify.Hub, logger *logrus.Logger, uploadDir string) *Handler {
	return &Handler{svc: svc, hub: hub, logger: logger, uploadDir: uploadDir}
}

// respondError maps the service error taxonomy onto HTTP codes. Unknown
// errors are logged and reported generically.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case alerts.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, alerts.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, alerts.ErrAlreadyHandled):
		c.JSON(http.StatusConflict, gin.H{"error": "alert already handled"})
	default:
		h.logger.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) SubmitAlert(c *gin.Context) {
	var req models.AlertCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	alert, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) ListPending(c *gin.Context) {
	h.listStage(c, models.StagePending)
}

func (h *Handler) ListAccepted(c *gin.Context) {
	h.listStage(c, models.StageAccepted)
}

func (h *Handler) ListCompleted(c *gin.Context) {
	h.listStage(c, models.StageCompleted)
}

func (h *Handler) ListCanceled(c *gin.Context) {
	h.listStage(c, models.StageCanceled)
}

func (h *Handler) listStage(c *gin.Context, stage models.Stage) {
	list, err := h.svc.ListStage(c.Request.Context(), stage)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Alert{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListByStatus(c *gin.Context) {
	list, err := h.svc.ListPendingByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Alert{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAlert(c *gin.Context) {
	sa, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sa)
}

func (h *Handler) AcceptAlert(c *gin.Context) {
	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	alert, err := h.svc.Accept(c.Request.Context(), c.Param("id"), snapshotFrom(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) MarkReached(c *gin.Context) {
	alert, err := h.svc.MarkReached(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) CancelAlert(c *gin.Context) {
	var req models.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: reason is required"})
		return
	}
	alert, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), req.Reason, req.CanceledBy)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) AssignResponder(c *gin.Context) {
	var req models.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: NIC is required"})
		return
	}
	alert, err := h.svc.AssignResponder(c.Request.Context(), c.Param("id"), snapshotFrom(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) AssignedAlerts(c *gin.Context) {
	list, err := h.svc.AssignedTo(c.Request.Context(), c.Param("nic"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.StagedAlert{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) UpdateLocation(c *gin.Context) {
	var req models.LocationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	alert, err := h.svc.UpdateAlertLocation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) PurgePending(c *gin.Context) {
	n, err := h.svc.PurgePending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func snapshotFrom(req models.AssignRequest) models.ResponderSnapshot {
	return models.ResponderSnapshot{
		ID:            req.ID,
		NIC:           req.NIC,
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		ResponderType: req.ResponderType,
		Position:      req.Position,
	}
}
