package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// InventoryHandler handles manual stock operations and the audit trail.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new instance of InventoryHandler.
func NewInventoryHandler(inventoryService services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// GetMovements handles GET /api/v1/inventory/movements. Admin only.
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	var filters models.StockMovementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 50
	}

	movements, total, err := h.inventoryService.GetMovements(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": total})
}

type stockChangeRequest struct {
	Quantity int     `json:"quantity" binding:"required"`
	Reason   *string `json:"reason"`
}

// RestockProduct handles POST /api/v1/products/:id/restock. Admin only.
func (h *InventoryHandler) RestockProduct(c *gin.Context) {
	productID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid product ID format", ""))
		return
	}

	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	userID, _ := currentUserID(c)
	newStock, err := h.inventoryService.Restock(productID, req.Quantity, &userID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": newStock})
}

// AdjustProductStock handles POST /api/v1/products/:id/adjust. Admin only.
// The quantity is a signed delta; negative values write stock down.
func (h *InventoryHandler) AdjustProductStock(c *gin.Context) {
	productID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid product ID format", ""))
		return
	}

	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	userID, _ := currentUserID(c)
	newStock, err := h.inventoryService.Adjust(productID, req.Quantity, &userID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": newStock})
}
