package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// KioskOrderHandler handles the kiosk order lifecycle.
type KioskOrderHandler struct {
	orderService services.KioskOrderService
}

// NewKioskOrderHandler creates a new instance of KioskOrderHandler.
func NewKioskOrderHandler(orderService services.KioskOrderService) *KioskOrderHandler {
	return &KioskOrderHandler{orderService: orderService}
}

// SubmitOrder handles POST /api/v1/kiosk/orders. Unauthenticated: kiosk
// terminals carry no staff token.
func (h *KioskOrderHandler) SubmitOrder(c *gin.Context) {
	var req services.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	order, err := h.orderService.SubmitOrder(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetPendingOrders handles GET /api/v1/kiosk/orders/pending.
func (h *KioskOrderHandler) GetPendingOrders(c *gin.Context) {
	orders, err := h.orderService.PendingOrders()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /api/v1/kiosk/orders/:id.
func (h *KioskOrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrderByID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PUT /api/v1/kiosk/orders/:id/status. The body
// accepts either a target status ("confirmed", "cancelled") or the action
// verbs the dashboard sends ("confirm", "deny", "cancel").
func (h *KioskOrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	order, err := h.orderService.Transition(c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ClearPendingOrders handles DELETE /api/v1/kiosk/orders/pending. Admin only.
func (h *KioskOrderHandler) ClearPendingOrders(c *gin.Context) {
	count, err := h.orderService.ClearPending()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": count})
}
