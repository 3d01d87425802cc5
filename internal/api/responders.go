package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sos-dispatch/internal/models"
)

func (h *Handler) UpsertResponder(c *gin.Context) {
	var r models.Responder
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	saved, err := h.svc.UpsertResponder(c.Request.Context(), r)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) ListResponders(c *gin.Context) {
	list, err := h.svc.ListRespondersByType(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Responder{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) SearchResponders(c *gin.Context) {
	list, err := h.svc.SearchResponders(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Responder{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) UpdateResponderPosition(c *gin.Context) {
	var req models.PositionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	r, err := h.svc.UpdateResponderPosition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect from other origins; auth is out of scope here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PositionStream upgrades to a websocket and keeps the watcher registered
// until the peer hangs up.
func (h *Handler) PositionStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed: %v", err)
		return
	}
	h.hub.AddConnection(conn)
	defer func() {
		h.hub.RemoveConnection(conn)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
