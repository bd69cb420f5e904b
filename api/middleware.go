package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxEmail    = "userEmail"
	ctxPhone    = "userPhone"
	ctxCurrency = "userCurrency"
)

// IdentityRequired pulls the caller identity injected by the auth layer in
// front of this service. Authentication itself happens upstream; a request
// without identity headers never reaches a booking write path.
func IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
		email := c.GetHeader("X-User-Email")
		if err != nil || userID <= 0 || email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxEmail, email)
		c.Set(ctxPhone, c.GetHeader("X-User-Phone"))
		c.Set(ctxCurrency, c.GetHeader("X-User-Currency"))
		c.Next()
	}
}
