package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionIDKey is the gin context key holding the caller's session ID.
const SessionIDKey = "session_id"

type Middleware struct {
	limiter RateLimiter
}

func NewMiddleware(limiter RateLimiter) *Middleware {
	return &Middleware{
		limiter: limiter,
	}
}

// IPRateLimit middleware for general IP-based rate limiting
func (m *Middleware) IPRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, err := m.limiter.AllowIPRequest(c.Request.Context(), ip)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"message": "Failed to check rate limit", "code": "INTERNAL_ERROR"},
			})
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"message": "Rate limit exceeded. Please try again later.", "code": "RATE_LIMIT_IP"},
			})
			return
		}

		c.Next()
	}
}

// SessionRequired extracts the session ID from the X-Session-ID header or
// the session_id query parameter.
func (m *Middleware) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			sessionID = c.Query("session_id")
		}

		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"message": "Session ID required", "code": "INVALID_SESSION"},
			})
			return
		}

		// Store session ID in context for handlers
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}
