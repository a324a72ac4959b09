package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
)

// RequireCapability lets the request through only when the principal holds c.
func RequireCapability(c models.Capability, log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, ok := GetPrincipal(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !principal.Can(c) {
			log.Info("capability missing", zap.String("user_id", principal.UserID), zap.String("capability", string(c)))
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":               "permission denied",
				"required_capability": string(c),
			})
			return
		}
		ctx.Next()
	}
}
