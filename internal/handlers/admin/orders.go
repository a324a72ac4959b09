package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

// ListOrders handles GET /admin/orders?customer_id=&status=.
func (h *Handler) ListOrders(c *gin.Context) {
	var q store.OrderQuery
	customerID, err := handlers.QueryID(c, "customer_id")
	if err != nil {
		handlers.BadRequest(c, err)
		return
	}
	q.CustomerID = customerID
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParsePaymentStatus(raw)
		if err != nil {
			handlers.BadRequest(c, err)
			return
		}
		q.Status = &status
	}
	orders, err := h.store.Orders.ListOrders(c.Request.Context(), q)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": handlers.NewOrderResponses(orders), "total": len(orders)})
}

// UpdatePaymentStatus handles PATCH /admin/orders/:id/payment, called by the payment webhook relay.
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	next, err := models.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		handlers.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.Orders.UpdatePaymentStatus(ctx, id, next); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	order, err := h.store.Orders.GetOrder(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditOldValueKey, models.PaymentPending.Label())
	c.Set(middleware.AuditNewValueKey, next.Label())
	c.JSON(http.StatusOK, handlers.NewOrderResponse(*order))
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Orders.DeleteOrder(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
