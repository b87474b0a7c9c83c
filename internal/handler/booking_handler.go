package handler

import (
	"net/http"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service *services.BookingService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var booking models.Booking
	if !bindJSON(c, &booking) {
		return
	}
	created, err := h.service.Create(c.Request.Context(), c.GetString("userID"), &booking)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"booking": created})
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.service.ListMine(c.Request.Context(), c.GetString("userID"), currentRole(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}

func (h *BookingHandler) Active(c *gin.Context) {
	bookings, err := h.service.Active(c.Request.Context(), c.GetString("userID"), currentRole(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}

func (h *BookingHandler) Opportunities(c *gin.Context) {
	bookings, err := h.service.Opportunities(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}

func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.GetString("userID"), currentRole(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": booking})
}

func (h *BookingHandler) Accept(c *gin.Context) {
	booking, err := h.service.Accept(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": booking})
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var body models.BookingStatusUpdate
	if !bindJSON(c, &body) {
		return
	}
	booking, err := h.service.UpdateStatus(c.Request.Context(), c.GetString("userID"), currentRole(c), c.Param("id"), body.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": booking})
}

func (h *BookingHandler) Complete(c *gin.Context) {
	booking, err := h.service.Complete(c.Request.Context(), c.GetString("userID"), currentRole(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": booking})
}

func (h *BookingHandler) Rate(c *gin.Context) {
	var body models.BookingRating
	if !bindJSON(c, &body) {
		return
	}
	booking, err := h.service.Rate(c.Request.Context(), c.GetString("userID"), c.Param("id"), body)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": booking})
}
