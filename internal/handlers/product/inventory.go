package product

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
)

func actor(c *gin.Context) string {
	if p, ok := middleware.GetPrincipal(c); ok {
		return p.UserID
	}
	return ""
}

// CreateProduct handles POST /admin/products.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req struct {
		Title        string          `json:"title" binding:"required"`
		Slug         string          `json:"slug"`
		Description  *string         `json:"description"`
		UnitPrice    decimal.Decimal `json:"unit_price"`
		Inventory    int             `json:"inventory"`
		CollectionID uint            `json:"collection_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), &models.Product{
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		UnitPrice:    req.UnitPrice,
		Inventory:    req.Inventory,
		CollectionID: req.CollectionID,
	})
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditResourceIDKey, p.ID)
	c.Set(middleware.AuditNewValueKey, handlers.NewProductResponse(*p))
	c.JSON(http.StatusCreated, handlers.NewProductResponse(*p))
}

// UpdatePrice handles PATCH /admin/products/:id/price.
func (h *Handler) UpdatePrice(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	before, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	p, err := h.catalog.UpdateUnitPrice(ctx, id, req.UnitPrice)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditOldValueKey, handlers.Money(before.UnitPrice))
	c.Set(middleware.AuditNewValueKey, handlers.Money(p.UnitPrice))
	c.JSON(http.StatusOK, handlers.NewProductResponse(*p))
}

// SetInventory handles PUT /admin/products/:id/inventory.
func (h *Handler) SetInventory(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Inventory *int `json:"inventory" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	p, err := h.catalog.SetInventory(c.Request.Context(), id, *req.Inventory, actor(c))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditNewValueKey, p.Inventory)
	c.JSON(http.StatusOK, handlers.NewProductResponse(*p))
}

// ClearInventory handles POST /admin/inventory/clear.
func (h *Handler) ClearInventory(c *gin.Context) {
	var req struct {
		ProductIDs []uint `json:"product_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	n, err := h.catalog.ClearInventory(c.Request.Context(), req.ProductIDs, actor(c))
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Set(middleware.AuditResourceIDKey, req.ProductIDs)
	c.JSON(http.StatusOK, gin.H{"updated": n, "message": "inventory cleared"})
}

func (h *Handler) StockMovements(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	movements, err := h.catalog.StockMovements(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": len(movements)})
}

func (h *Handler) InventoryStats(c *gin.Context) {
	stats, err := h.catalog.InventoryStats(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
