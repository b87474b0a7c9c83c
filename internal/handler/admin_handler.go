package handler

import (
	"net/http"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service    *services.AdminService
	staleAfter time.Duration
}

func NewAdminHandler(service *services.AdminService, staleAfter time.Duration) *AdminHandler {
	return &AdminHandler{service: service, staleAfter: staleAfter}
}

func (h *AdminHandler) PendingCleaners(c *gin.Context) {
	h.listCleaners(c, models.ApprovalStatus(c.DefaultQuery("status", string(models.ApprovalPending))))
}

// ApprovedCleaners lists approved profiles, filterable by city and service.
func (h *AdminHandler) ApprovedCleaners(c *gin.Context) {
	h.listCleaners(c, models.ApprovalApproved)
}

func (h *AdminHandler) listCleaners(c *gin.Context, status models.ApprovalStatus) {
	query := models.CleanerQuery{
		Status:  status,
		City:    c.Query("city"),
		Service: c.Query("service"),
	}
	profiles, pagination, err := h.service.ListCleaners(c.Request.Context(), query, pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profiles": profiles, "pagination": pagination})
}

func (h *AdminHandler) GetCleaner(c *gin.Context) {
	profile, err := h.service.GetCleaner(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile})
}

func (h *AdminHandler) Approve(c *gin.Context) {
	var body models.ApprovalDecision
	_ = c.ShouldBindJSON(&body)
	profile, err := h.service.Approve(c.Request.Context(), c.GetString("userID"), c.Param("id"), body.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Profile approved", "profile": profile})
}

func (h *AdminHandler) Reject(c *gin.Context) {
	var body models.ApprovalDecision
	if !bindJSON(c, &body) {
		return
	}
	profile, err := h.service.Reject(c.Request.Context(), c.GetString("userID"), c.Param("id"), body.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Profile rejected", "profile": profile})
}

func (h *AdminHandler) Clients(c *gin.Context) {
	clients, pagination, err := h.service.Clients(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"clients": clients, "pagination": pagination})
}

func (h *AdminHandler) Bookings(c *gin.Context) {
	filter := models.BookingFilter{
		Status:          c.Query("status"),
		ServiceCategory: c.Query("service_category"),
	}
	bookings, pagination, err := h.service.Bookings(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"bookings": bookings, "pagination": pagination})
}

func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *AdminHandler) PendingPayouts(c *gin.Context) {
	age := h.staleAfter
	if q := c.Query("older_than"); q != "" {
		if d, err := time.ParseDuration(q); err == nil {
			age = d
		}
	}
	payouts, err := h.service.StalePayouts(c.Request.Context(), age)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(payouts), "payouts": payouts})
}
