package handler

import (
	"log"
	"net/http"
	"time"

	"clean-cloak/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type EventsHandler struct {
	hub       *realtime.Hub
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

func NewEventsHandler(hub *realtime.Hub, heartbeat time.Duration, allowedOrigins []string) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &EventsHandler{
		hub:       hub,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Stream serves the SSE notification stream of the authenticated user.
func (h *EventsHandler) Stream(c *gin.Context) {
	userID := c.GetString("userID")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := realtime.WriteConnected(c.Writer); err != nil {
		return
	}
	c.Writer.Flush()

	sub := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(sub)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := realtime.WriteSSE(c.Writer, ev.Type, ev.Payload); err != nil {
				log.Printf("[REALTIME] SSE write for user %s failed: %v", userID, err)
				return
			}
			c.Writer.Flush()
		case <-ticker.C:
			if err := realtime.WriteHeartbeat(c.Writer); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// Socket upgrades to a websocket joined to the authenticated user's room.
func (h *EventsHandler) Socket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[REALTIME] Websocket upgrade failed: %v", err)
		return
	}
	h.hub.ServeSocket(c.Request.Context(), conn, c.GetString("userID"))
}

// QueryToken lets clients that cannot set headers, such as browser
// websockets and EventSource, pass the session token as ?token=.
func QueryToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := c.Query("token"); token != "" && c.GetHeader("Authorization") == "" {
			c.Request.Header.Set("Authorization", "Bearer "+token)
		}
		c.Next()
	}
}
