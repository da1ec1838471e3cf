package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// CustomerHandler handles customer management requests.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new instance of CustomerHandler.
func NewCustomerHandler(customerService services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomer handles POST /api/v1/customers.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.customerService.CreateCustomer(&customer)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCustomers handles GET /api/v1/customers.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	var filters models.CustomerFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	customers, total, err := h.customerService.GetCustomers(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "total": total})
}

// GetCustomer handles GET /api/v1/customers/:id.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customerID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid customer ID format", ""))
		return
	}

	customer, err := h.customerService.GetCustomerByID(customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	customerID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid customer ID format", ""))
		return
	}

	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	customer.ID = customerID

	updated, err := h.customerService.UpdateCustomer(&customer)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id. Admin only.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	customerID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid customer ID format", ""))
		return
	}

	if err := h.customerService.DeleteCustomer(customerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
