package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// SaleHandler handles checkout and sale history requests.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new instance of SaleHandler.
func NewSaleHandler(saleService services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// CreateSale handles POST /api/v1/sales. The cashier's identity comes from
// the token, never from the request body.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
		return
	}

	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sale, err := h.saleService.CreateSale(userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales handles GET /api/v1/sales.
func (h *SaleHandler) GetSales(c *gin.Context) {
	filters, err := parseSaleFilters(c)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error(), ""))
		return
	}

	sales, total, err := h.saleService.GetSales(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": total})
}

// GetSale handles GET /api/v1/sales/:id.
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetSaleByID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

type updateSaleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateSaleStatus handles PUT /api/v1/sales/:id/status. Admin only.
func (h *SaleHandler) UpdateSaleStatus(c *gin.Context) {
	var req updateSaleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	sale, err := h.saleService.UpdateSaleStatus(c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GetStats handles GET /api/v1/sales/stats.
func (h *SaleHandler) GetStats(c *gin.Context) {
	startDate, endDate, err := parseDateRange(c)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error(), ""))
		return
	}

	stats, err := h.saleService.GetStats(startDate, endDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseSaleFilters(c *gin.Context) (models.SaleFilters, error) {
	filters := models.SaleFilters{}

	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := utils.StrToInt64(raw)
		if err != nil {
			return filters, err
		}
		filters.CustomerID = &customerID
	}

	startDate, endDate, err := parseDateRange(c)
	if err != nil {
		return filters, err
	}
	filters.StartDate = startDate
	filters.EndDate = endDate

	if raw := c.Query("page"); raw != "" {
		page, err := utils.StrToInt64(raw)
		if err != nil {
			return filters, err
		}
		filters.Page = int(page)
	}
	if raw := c.Query("page_size"); raw != "" {
		pageSize, err := utils.StrToInt64(raw)
		if err != nil {
			return filters, err
		}
		filters.PageSize = int(pageSize)
	}
	return filters, nil
}

func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, err
		}
		startDate = &parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, err
		}
		// Make the range inclusive of the end day.
		inclusive := parsed.AddDate(0, 0, 1)
		endDate = &inclusive
	}
	return startDate, endDate, nil
}
