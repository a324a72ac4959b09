package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireStaff restricts the route to staff principals.
func RequireStaff(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if !principal.IsStaff {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
		return
	}
	c.Next()
}
