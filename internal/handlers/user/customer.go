package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

// Register handles POST /customers/me: creates the caller's customer profile.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Phone      string `json:"phone" binding:"required"`
		BirthDate  string `json:"birth_date"`
		Membership string `json:"membership"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	in := store.RegisterCustomer{UserID: principal.UserID, Phone: req.Phone}

	var err error
	if in.BirthDate, err = handlers.ParseDate("birth_date", req.BirthDate); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if req.Membership != "" {
		if in.Membership, err = models.ParseMembership(req.Membership); err != nil {
			handlers.BadRequest(c, err)
			return
		}
	}

	cust, err := h.store.Customers.RegisterCustomer(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, handlers.NewCustomerResponse(*cust))
}

func (h *Handler) Me(c *gin.Context) {
	_, cust, ok := h.customer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, handlers.NewCustomerResponse(*cust))
}

func (h *Handler) ListAddresses(c *gin.Context) {
	_, cust, ok := h.customer(c)
	if !ok {
		return
	}
	addrs, err := h.store.Customers.ListAddresses(c.Request.Context(), cust.ID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

func (h *Handler) AddAddress(c *gin.Context) {
	var req struct {
		Street string `json:"street" binding:"required"`
		City   string `json:"city" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	_, cust, ok := h.customer(c)
	if !ok {
		return
	}
	addr, err := h.store.Customers.AddAddress(c.Request.Context(), cust.ID, req.Street, req.City)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, addr)
}

func (h *Handler) DeleteAddress(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	_, cust, ok := h.customer(c)
	if !ok {
		return
	}
	if err := h.store.Customers.DeleteAddress(c.Request.Context(), cust.ID, id); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
