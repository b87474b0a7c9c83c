package handler

import (
	"net/http"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	service *services.TrackingService
}

func NewTrackingHandler(service *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

func (h *TrackingHandler) Start(c *gin.Context) {
	var req models.TrackingStart
	if !bindJSON(c, &req) {
		return
	}
	tracking, err := h.service.Start(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"tracking": tracking})
}

func (h *TrackingHandler) Get(c *gin.Context) {
	tracking, err := h.service.Get(c.Request.Context(), c.GetString("userID"), currentRole(c), c.Param("bookingId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"tracking": tracking})
}

func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	var update models.LocationUpdate
	if !bindJSON(c, &update) {
		return
	}
	point, err := h.service.UpdateLocation(c.Request.Context(), c.GetString("userID"), c.Param("bookingId"), update)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"location": point})
}

func (h *TrackingHandler) UpdateStatus(c *gin.Context) {
	var body models.TrackingStatusUpdate
	if !bindJSON(c, &body) {
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("bookingId"), body.Status); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"status": body.Status})
}
