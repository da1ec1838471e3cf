package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// respondServiceError maps service layer sentinels onto API responses.
// Anything unrecognized is logged and reported as an internal error.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrUnknownOrderAction):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	case errors.Is(err, services.ErrUnknownProduct):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error(), ""))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), ""))
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrSaleNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrSKUExists),
		errors.Is(err, services.ErrEmailExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrInvalidStatus), errors.Is(err, services.ErrInvalidRole):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, err.Error(), ""))
	default:
		utils.LogError(err, "unhandled service error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "An unexpected error occurred", ""))
	}
}

// currentUserID pulls the authenticated user's id out of the gin context.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
