package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
)

// Checkout handles POST /orders: the caller's cart becomes a pending order.
func (h *Handler) Checkout(c *gin.Context) {
	var req struct {
		CartID string `json:"cart_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	_, cust, ok := h.customer(c)
	if !ok {
		return
	}
	order, err := h.store.Orders.PlaceOrder(c.Request.Context(), req.CartID, cust.ID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditResourceIDKey, order.ID)
	c.Set(middleware.AuditNewValueKey, handlers.Money(order.Total()))
	c.JSON(http.StatusCreated, handlers.NewOrderResponse(*order))
}

// MyOrders handles GET /orders.
func (h *Handler) MyOrders(c *gin.Context) {
	principal, cust, ok := h.customer(c)
	if !ok {
		return
	}
	orders, err := h.store.Orders.OrderHistory(c.Request.Context(), principal, cust.ID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": handlers.NewOrderResponses(orders), "total": len(orders)})
}

// CustomerOrders handles GET /customers/:id/orders. Reading someone else's history needs view_history.
func (h *Handler) CustomerOrders(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	orders, err := h.store.Orders.OrderHistory(c.Request.Context(), principal, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": handlers.NewOrderResponses(orders), "total": len(orders)})
}

// GetOrder handles GET /orders/:id for the owner or a view_history holder.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	principal, _ := middleware.GetPrincipal(c)
	order, err := h.store.Orders.GetOrder(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	if !principal.Can(models.CapViewHistory) {
		cust, err := h.store.Customers.GetCustomerByUser(ctx, principal.UserID)
		var nf *models.NotFoundError
		if err != nil && !errors.As(err, &nf) {
			handlers.RespondError(c, h.log, err)
			return
		}
		if err != nil || cust.ID != order.CustomerID {
			// Hide the existence of other customers' orders.
			handlers.RespondError(c, h.log, &models.NotFoundError{Resource: "order", ID: id})
			return
		}
	}
	c.JSON(http.StatusOK, handlers.NewOrderResponse(*order))
}

// CancelOrder handles POST /orders/:id/cancel; the caller needs cancel_order.
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	principal, _ := middleware.GetPrincipal(c)
	if _, err := h.store.Orders.CancelOrder(ctx, principal, id); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	order, err := h.store.Orders.GetOrder(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditOldValueKey, models.PaymentPending.Label())
	c.Set(middleware.AuditNewValueKey, order.PaymentStatus.Label())
	c.JSON(http.StatusOK, handlers.NewOrderResponse(*order))
}
