package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}

func respond(c *gin.Context, code int, body gin.H) {
	body["success"] = true
	c.JSON(code, body)
}

// handleServiceError maps service errors to status codes.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidID):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrAlreadyProcessed):
		respondError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

func currentRole(c *gin.Context) models.Role {
	return models.Role(c.GetString("role"))
}

func pageFromQuery(c *gin.Context) models.Page {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	return models.NewPage(page, limit)
}
