package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// ProductHandler handles catalog requests.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new instance of ProductHandler.
func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProduct handles POST /api/v1/products. Admin only.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	created, err := h.productService.CreateProduct(&product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetProducts handles GET /api/v1/products.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	products, total, err := h.productService.GetProducts(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

// GetProduct handles GET /api/v1/products/:id.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid product ID format", ""))
		return
	}

	product, err := h.productService.GetProductByID(productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /api/v1/products/:id. Admin only.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid product ID format", ""))
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	product.ID = productID

	updated, err := h.productService.UpdateProduct(&product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/v1/products/:id. Admin only.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid product ID format", ""))
		return
	}

	if err := h.productService.DeleteProduct(productID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetCategories handles GET /api/v1/products/categories.
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategories()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetKioskMenu handles GET /api/v1/kiosk/menu. Products with stock on hand,
// served without authentication so kiosk terminals can render the menu.
func (h *ProductHandler) GetKioskMenu(c *gin.Context) {
	products, err := h.productService.GetAvailableProducts()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
