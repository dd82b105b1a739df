package middleware

import (
	"github.com/daylog/core/internal/platform"
	"github.com/gin-gonic/gin"
)

const ContextKeyUserID = "user_id"

// Credential returns the caller's Authorization header exactly as sent.
// It is forwarded to the data service, which decides what it is worth.
func Credential(c *gin.Context) platform.Credential {
	return platform.Credential(c.GetHeader("Authorization"))
}

// SetCaller records the verified caller for request logging.
func SetCaller(c *gin.Context, caller platform.Caller) {
	c.Set(ContextKeyUserID, caller.UserID)
}

// CurrentUserID extracts the verified user ID from context, if any.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}
