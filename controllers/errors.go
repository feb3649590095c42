package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"grownet-api/services"
	"grownet-api/utils"
)

// respondServiceError maps service errors to HTTP responses. Unknown errors
// are logged and reported as 500 with the fallback text.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidOperation), errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Error: err.Error(), Code: http.StatusBadRequest})
	case errors.Is(err, services.ErrDuplicateRequest), errors.Is(err, services.ErrAlreadyConnected):
		c.JSON(http.StatusConflict, utils.ErrorResponse{Error: err.Error(), Code: http.StatusConflict})
	case errors.Is(err, services.ErrUserNotFound):
		utils.SendError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		utils.SendError(c, http.StatusForbidden, "Forbidden")
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{
			Error:   "Internal server error",
			Message: fallback,
			Code:    http.StatusInternalServerError,
		})
	}
}
