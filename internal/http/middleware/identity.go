// README: Caller identity from gateway headers.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freightgo/internal/types"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	ctxKeyUID  = "caller_uid"
	ctxKeyRole = "caller_role"
)

// Identity trusts the gateway-injected user headers. Authentication itself
// happens upstream; requests without an ID are rejected here.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(headerUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(ctxKeyUID, uid)
		c.Set(ctxKeyRole, c.GetHeader(headerUserRole))
		c.Next()
	}
}

func CallerUID(c *gin.Context) types.ID {
	return types.ID(c.GetString(ctxKeyUID))
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}
