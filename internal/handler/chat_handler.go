package handler

import (
	"net/http"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	service *services.ChatService
	media   *services.MediaService
}

func NewChatHandler(service *services.ChatService, media *services.MediaService) *ChatHandler {
	return &ChatHandler{service: service, media: media}
}

func (h *ChatHandler) CreateRoom(c *gin.Context) {
	var req models.ChatRoomInput
	if !bindJSON(c, &req) {
		return
	}
	if req.BookingID == "" {
		respondError(c, http.StatusBadRequest, "booking_id is required")
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), c.GetString("userID"), req.BookingID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"chat": room})
}

func (h *ChatHandler) List(c *gin.Context) {
	rooms, err := h.service.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(rooms), "chats": rooms})
}

func (h *ChatHandler) Open(c *gin.Context) {
	room, err := h.service.Open(c.Request.Context(), c.GetString("userID"), c.Param("bookingId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"chat": room})
}

func (h *ChatHandler) Send(c *gin.Context) {
	var input models.ChatMessageInput
	if !bindJSON(c, &input) {
		return
	}
	msg, err := h.service.Send(c.Request.Context(), c.GetString("userID"), c.Param("bookingId"), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": msg})
}

func (h *ChatHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Image is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Cannot read image")
		return
	}
	defer src.Close()

	url, err := h.media.UploadChatImage(c.Request.Context(), c.GetString("userID"), c.Param("bookingId"), file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"image_url": url})
}
