package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
)

// ListCustomers handles GET /admin/customers with per-customer order counts.
func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.store.Customers.ListCustomersWithOrderCounts(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "total": len(customers)})
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cust, err := h.store.Customers.GetCustomer(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	n, err := h.store.Customers.CountOrders(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": handlers.NewCustomerResponse(*cust), "order_count": n})
}

func (h *Handler) UpdateMembership(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Membership string `json:"membership" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	m, err := models.ParseMembership(req.Membership)
	if err != nil {
		handlers.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	before, err := h.store.Customers.GetCustomer(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	cust, err := h.store.Customers.UpdateMembership(ctx, id, m)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditOldValueKey, before.Membership.Label())
	c.Set(middleware.AuditNewValueKey, cust.Membership.Label())
	c.JSON(http.StatusOK, handlers.NewCustomerResponse(*cust))
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
