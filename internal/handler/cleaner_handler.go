package handler

import (
	"net/http"
	"strconv"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"

	"github.com/gin-gonic/gin"
)

type CleanerHandler struct {
	service *services.CleanerService
	media   *services.MediaService
}

func NewCleanerHandler(service *services.CleanerService, media *services.MediaService) *CleanerHandler {
	return &CleanerHandler{service: service, media: media}
}

func (h *CleanerHandler) CreateProfile(c *gin.Context) {
	var input models.CleanerProfileInput
	if !bindJSON(c, &input) {
		return
	}
	profile, err := h.service.CreateProfile(c.Request.Context(), c.GetString("userID"), &input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"profile": profile})
}

func (h *CleanerHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetMine(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile})
}

func (h *CleanerHandler) UpdateProfile(c *gin.Context) {
	var input models.CleanerProfileInput
	if !bindJSON(c, &input) {
		return
	}
	profile, err := h.service.UpdateMine(c.Request.Context(), c.GetString("userID"), &input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile})
}

func (h *CleanerHandler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "File is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Cannot read file")
		return
	}
	defer src.Close()

	url, err := h.media.UploadDocument(
		c.Request.Context(),
		c.GetString("userID"),
		models.DocumentKind(c.Param("kind")),
		file.Filename,
		src,
		file.Size,
		file.Header.Get("Content-Type"),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"url": url})
}

func (h *CleanerHandler) List(c *gin.Context) {
	minRating, _ := strconv.ParseFloat(c.Query("min_rating"), 64)
	profiles, err := h.service.ListAvailable(c.Request.Context(), models.CleanerFilter{
		Service:   c.Query("service"),
		City:      c.Query("city"),
		MinRating: minRating,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"count": len(profiles), "cleaners": profiles})
}

func (h *CleanerHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile})
}
