package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
)

// CreateCart handles POST /carts. Carts are anonymous; the id is the only handle.
func (h *Handler) CreateCart(c *gin.Context) {
	cart, err := h.store.Carts.CreateCart(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, handlers.NewCartResponse(*cart))
}

func (h *Handler) GetCart(c *gin.Context) {
	h.respondCart(c, http.StatusOK)
}

// AddItem handles POST /carts/:id/items. Adding a product already in the cart accumulates quantity.
func (h *Handler) AddItem(c *gin.Context) {
	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if _, err := h.store.Carts.AddItem(c.Request.Context(), c.Param("id"), req.ProductID, req.Quantity); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	h.respondCart(c, http.StatusCreated)
}

// SetQuantity handles PATCH /carts/:id/items/:product_id.
func (h *Handler) SetQuantity(c *gin.Context) {
	productID, ok := handlers.ParseID(c, "product_id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if _, err := h.store.Carts.SetQuantity(c.Request.Context(), c.Param("id"), productID, req.Quantity); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	productID, ok := handlers.ParseID(c, "product_id")
	if !ok {
		return
	}
	if err := h.store.Carts.RemoveItem(c.Request.Context(), c.Param("id"), productID); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *Handler) DeleteCart(c *gin.Context) {
	if err := h.store.Carts.DeleteCart(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondCart(c *gin.Context, status int) {
	cart, err := h.store.Carts.GetCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(status, handlers.NewCartResponse(*cart))
}
