package utils

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TokenCookie   = "token"
	TraceIDHeader = "X-Trace-ID"
)

// SessionChecker resolves the current role of a token subject, failing for
// removed or deactivated accounts.
type SessionChecker interface {
	ActiveRole(ctx context.Context, userID string) (string, error)
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "message": message})
}

// TokenFromRequest reads the session token from the cookie or a Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware validates the session token and stores userID, role and claims in the context.
func AuthMiddleware(jwtUtil *JWTUtil, redis *RedisClient, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		claims, err := jwtUtil.ValidateToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		if jwtUtil.IsTokenBlacklisted(c.Request.Context(), claims, redis) {
			abort(c, http.StatusUnauthorized, "Session has been logged out")
			return
		}

		role := claims.Role
		if sessions != nil {
			role, err = sessions.ActiveRole(c.Request.Context(), claims.UserID)
			if err != nil {
				abort(c, http.StatusUnauthorized, "User no longer exists")
				return
			}
		}

		c.Set("userID", claims.UserID)
		c.Set("role", role)
		c.Set("claims", claims)
		c.Next()
	}
}

// RequireRoles checks that the authenticated role is one of allowedRoles.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			abort(c, http.StatusForbidden, "Role not found")
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "User role "+role+" is not authorized to access this route")
	}
}

// TraceID tags each request with an id, reusing the caller's when present.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Next()

		if len(c.Errors) > 0 {
			log.Printf("[HTTP] trace=%s %s %s: %s", traceID, c.Request.Method, c.FullPath(), c.Errors.String())
		}
	}
}
