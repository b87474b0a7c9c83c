package handler

import (
	"net/http"

	"clean-cloak/internal/models"
	"clean-cloak/internal/services"
	"clean-cloak/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service      *services.AuthService
	cookieMaxAge int
	secure       bool
}

func NewAuthHandler(service *services.AuthService, cookieMaxAge int, secure bool) *AuthHandler {
	return &AuthHandler{service: service, cookieMaxAge: cookieMaxAge, secure: secure}
}

func (h *AuthHandler) setCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TokenCookie, token, maxAge, "/", "", h.secure, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.setCookie(c, res.Token, h.cookieMaxAge)
	respond(c, http.StatusCreated, gin.H{"token": res.Token, "user": res.User})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.setCookie(c, res.Token, h.cookieMaxAge)
	respond(c, http.StatusOK, gin.H{"token": res.Token, "user": res.User})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := c.Get("claims")
	typed, _ := claims.(*utils.Claims)
	if err := h.service.Logout(c.Request.Context(), typed); err != nil {
		handleServiceError(c, err)
		return
	}
	h.setCookie(c, "", -1)
	respond(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) RegisterDeviceToken(c *gin.Context) {
	var req models.DeviceTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.RegisterDeviceToken(c.Request.Context(), c.GetString("userID"), req); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Device token registered"})
}
