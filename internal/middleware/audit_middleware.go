package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/utils"
)

// Context keys handlers use to hand audit details to AuditCriticalActions.
const (
	AuditResourceIDKey = "audit_resource_id"
	AuditOldValueKey   = "audit_old_value"
	AuditNewValueKey   = "audit_new_value"
)

// AuditCriticalActions records one audit entry per request once the handler has run.
func AuditCriticalActions(auditor utils.Auditor, action, resource string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if auditor == nil {
			return
		}

		entry := models.AuditLog{
			Action:     action,
			Resource:   resource,
			ResourceID: c.Param("id"),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			Success:    c.Writer.Status() >= 200 && c.Writer.Status() < 300,
			Timestamp:  time.Now().UTC(),
		}
		if p, ok := GetPrincipal(c); ok {
			entry.UserID = p.UserID
		}
		if v, ok := c.Get(AuditResourceIDKey); ok {
			entry.ResourceID = utils.EncodeValue(v)
		}
		if v, ok := c.Get(AuditOldValueKey); ok {
			entry.OldValue = utils.EncodeValue(v)
		}
		if v, ok := c.Get(AuditNewValueKey); ok {
			entry.NewValue = utils.EncodeValue(v)
		}
		if !entry.Success {
			if len(c.Errors) > 0 {
				entry.ErrorMsg = c.Errors.String()
			} else {
				entry.ErrorMsg = http.StatusText(entry.Status)
			}
		}

		if err := auditor.Record(c.Request.Context(), entry); err != nil {
			log.Error("audit record failed", zap.String("action", action), zap.Error(err))
		}
	}
}
