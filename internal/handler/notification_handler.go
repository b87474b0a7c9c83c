package handler

import (
	"net/http"

	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(items), "notifications": items})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if err := h.service.MarkAsRead(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Notification marked as read"})
}
