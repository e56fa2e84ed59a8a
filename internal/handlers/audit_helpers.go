package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext reads the identity set by the auth middleware. There is
// no header fallback: an unauthenticated request has no user.
func userIDFromContext(c *gin.Context) *int64 {
	if val, ok := c.Get("userID"); ok {
		switch userID := val.(type) {
		case int:
			if userID != 0 {
				value := int64(userID)
				return &value
			}
		case int64:
			if userID != 0 {
				value := userID
				return &value
			}
		}
	}
	return nil
}
