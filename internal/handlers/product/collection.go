package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
)

func (h *Handler) CreateCollection(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	col, err := h.catalog.CreateCollection(c.Request.Context(), req.Title)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

// SetFeaturedProduct handles PUT /admin/collections/:id/featured. A null product_id clears the link.
func (h *Handler) SetFeaturedProduct(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ProductID *uint `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.catalog.SetFeaturedProduct(ctx, id, req.ProductID); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	col, err := h.catalog.GetCollection(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCollection(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreatePromotion(c *gin.Context) {
	var req struct {
		Description string  `json:"description" binding:"required"`
		Discount    float64 `json:"discount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	promo, err := h.catalog.CreatePromotion(c.Request.Context(), req.Description, req.Discount)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, handlers.NewPromotionResponse(*promo))
}

func (h *Handler) AttachPromotion(c *gin.Context) {
	h.changePromotion(c, true)
}

func (h *Handler) DetachPromotion(c *gin.Context) {
	h.changePromotion(c, false)
}

func (h *Handler) changePromotion(c *gin.Context, attach bool) {
	productID, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	promotionID, ok := handlers.ParseID(c, "promotion_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var err error
	if attach {
		err = h.catalog.AttachPromotion(ctx, productID, promotionID)
	} else {
		err = h.catalog.DetachPromotion(ctx, productID, promotionID)
	}
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	p, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, handlers.NewProductResponse(*p))
}
