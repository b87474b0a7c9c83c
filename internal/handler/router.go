package handler

import (
	"net/http"

	"clean-cloak/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth          *AuthHandler
	Bookings      *BookingHandler
	Payments      *PaymentHandler
	Cleaners      *CleanerHandler
	Chat          *ChatHandler
	Tracking      *TrackingHandler
	Admin         *AdminHandler
	Notifications *NotificationHandler
	Events        *EventsHandler
}

// RegisterRoutes mounts every /api route. auth must populate userID and role.
func RegisterRoutes(router *gin.Engine, h Handlers, auth gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", auth, h.Auth.Me)
		authRoutes.POST("/logout", auth, h.Auth.Logout)
	}
	api.POST("/users/device-token", auth, h.Auth.RegisterDeviceToken)

	// The provider calls the webhook without a session.
	api.POST("/payments/webhook", h.Payments.Webhook)

	live := api.Group("/", QueryToken(), auth)
	{
		live.GET("/events", h.Events.Stream)
		live.GET("/ws", h.Events.Socket)
	}

	protected := api.Group("/", auth)

	bookings := protected.Group("/bookings")
	{
		bookings.POST("", utils.RequireRoles("client"), h.Bookings.Create)
		bookings.GET("", h.Bookings.ListMine)
		bookings.GET("/active", h.Bookings.Active)
		bookings.GET("/opportunities", utils.RequireRoles("cleaner"), h.Bookings.Opportunities)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.PUT("/:id/accept", utils.RequireRoles("cleaner"), h.Bookings.Accept)
		bookings.PUT("/:id/status", h.Bookings.UpdateStatus)
		bookings.PUT("/:id/complete", utils.RequireRoles("cleaner", "admin"), h.Bookings.Complete)
		bookings.POST("/:id/rating", utils.RequireRoles("client"), h.Bookings.Rate)
	}

	payments := protected.Group("/payments")
	{
		payments.POST("/initiate", utils.RequireRoles("client"), h.Payments.Initiate)
		payments.GET("/status/:bookingId", h.Payments.Status)
		payments.POST("/retry/:bookingId", utils.RequireRoles("client"), h.Payments.Retry)
	}

	cleaners := protected.Group("/cleaners")
	{
		profile := cleaners.Group("/profile", utils.RequireRoles("cleaner"))
		profile.POST("", h.Cleaners.CreateProfile)
		profile.GET("", h.Cleaners.GetProfile)
		profile.PUT("", h.Cleaners.UpdateProfile)
		profile.POST("/documents/:kind", h.Cleaners.UploadDocument)

		cleaners.GET("", h.Cleaners.List)
		cleaners.GET("/:id", h.Cleaners.Get)
	}

	chat := protected.Group("/chat")
	{
		chat.POST("", h.Chat.CreateRoom)
		chat.GET("", h.Chat.List)
		chat.GET("/:bookingId", h.Chat.Open)
		chat.POST("/:bookingId/message", h.Chat.Send)
		chat.POST("/:bookingId/image", h.Chat.UploadImage)
	}

	tracking := protected.Group("/tracking")
	{
		tracking.POST("", utils.RequireRoles("cleaner"), h.Tracking.Start)
		tracking.GET("/:bookingId", h.Tracking.Get)
		tracking.PUT("/:bookingId/location", utils.RequireRoles("cleaner"), h.Tracking.UpdateLocation)
		tracking.PUT("/:bookingId/status", utils.RequireRoles("cleaner"), h.Tracking.UpdateStatus)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.PUT("/:id/read", h.Notifications.MarkAsRead)
	}

	admin := protected.Group("/admin", utils.RequireRoles("admin"))
	{
		admin.GET("/cleaners/pending", h.Admin.PendingCleaners)
		admin.GET("/cleaners/approved", h.Admin.ApprovedCleaners)
		admin.GET("/cleaners/:id", h.Admin.GetCleaner)
		admin.PUT("/cleaners/:id/approve", h.Admin.Approve)
		admin.PUT("/cleaners/:id/reject", h.Admin.Reject)
		admin.GET("/clients", h.Admin.Clients)
		admin.GET("/bookings", h.Admin.Bookings)
		admin.GET("/dashboard/stats", h.Admin.DashboardStats)
		admin.GET("/payouts/pending", h.Admin.PendingPayouts)
	}

	verification := protected.Group("/verification", utils.RequireRoles("admin"))
	{
		verification.GET("/pending-profiles", h.Admin.PendingCleaners)
		verification.PUT("/approve-profile/:id", h.Admin.Approve)
		verification.PUT("/reject-profile/:id", h.Admin.Reject)
	}
}
