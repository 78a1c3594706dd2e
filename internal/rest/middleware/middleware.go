package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CORS allows browser clients on other origins to reach the facade.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Caller-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetRequestContextWithTimeout bounds every request context so a stuck
// gateway cannot pin handlers forever.
func SetRequestContextWithTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Identity lifts the caller id set by the upstream auth proxy into the
// gin context. Authentication itself happens upstream; this layer only
// needs the id for the self-follow check.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller := c.GetHeader("X-Caller-ID"); caller != "" {
			c.Set("caller_id", caller)
		}
		c.Next()
	}
}
