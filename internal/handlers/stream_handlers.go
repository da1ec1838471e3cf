package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/broadcast"
	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// StreamHandler attaches dashboard sessions to the order event feed over
// server-sent events.
type StreamHandler struct {
	hub          *broadcast.Hub
	orderService services.KioskOrderService
}

// NewStreamHandler creates a new instance of StreamHandler.
func NewStreamHandler(hub *broadcast.Hub, orderService services.KioskOrderService) *StreamHandler {
	return &StreamHandler{hub: hub, orderService: orderService}
}

// StreamOrders handles GET /api/v1/kiosk/orders/stream. The session is
// subscribed before the snapshot is read, so an order submitted during
// attach shows up in the snapshot, the delta feed, or both. Clients treat
// order ids as idempotent keys, so the duplicate is harmless.
func (h *StreamHandler) StreamOrders(c *gin.Context) {
	session := h.hub.Subscribe()
	defer h.hub.Unsubscribe(session)

	pending, err := h.orderService.PendingOrders()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("message", broadcast.NewInitEvent(pending))
	c.Writer.Flush()

	utils.LogInfo("dashboard session " + session.ID + " attached")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-session.C:
			if !ok {
				return false
			}
			c.SSEvent("message", event)
			return true
		case <-clientGone:
			return false
		}
	})

	utils.LogInfo("dashboard session " + session.ID + " detached")
}
