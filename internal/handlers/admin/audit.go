package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/utils"
)

// GetAuditLogs lists audit entries filtered by user_id, action and resource.
func (h *Handler) GetAuditLogs(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "audit store not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	q := utils.AuditQuery{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
		Limit:    limit,
	}
	logs, err := h.audit.List(c.Request.Context(), q)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
		"filters": gin.H{
			"user_id":  q.UserID,
			"action":   q.Action,
			"resource": q.Resource,
			"limit":    q.Limit,
		},
	})
}
