package product

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

// DetailCache is the read-through cache in front of product details.
type DetailCache interface {
	GetProduct(ctx context.Context, id uint, dest interface{}) (bool, error)
	SetProduct(ctx context.Context, id uint, value interface{}) error
}

type Handler struct {
	catalog *store.Catalog
	cache   DetailCache
	log     *zap.Logger
}

func New(catalog *store.Catalog, cache DetailCache, log *zap.Logger) *Handler {
	return &Handler{catalog: catalog, cache: cache, log: log}
}

// ListProducts handles GET /products?collection_id=&inventory=<10|>=10.
func (h *Handler) ListProducts(c *gin.Context) {
	var q store.ProductQuery
	collectionID, err := handlers.QueryID(c, "collection_id")
	if err != nil {
		handlers.BadRequest(c, err)
		return
	}
	q.CollectionID = collectionID
	if raw := c.Query("inventory"); raw != "" {
		f, err := models.ParseInventoryFilter(raw)
		if err != nil {
			handlers.BadRequest(c, err)
			return
		}
		q.Inventory = &f
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": handlers.NewProductResponses(products), "total": len(products)})
}

// SearchProducts handles GET /products/search?q=&limit=.
func (h *Handler) SearchProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	products, err := h.catalog.SearchProducts(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": handlers.NewProductResponses(products), "total": len(products)})
}

// GetProduct serves the product detail from cache when possible.
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var cached handlers.ProductResponse
	hit, err := h.cache.GetProduct(ctx, id, &cached)
	if err != nil {
		h.log.Warn("product cache read failed", zap.Uint("product_id", id), zap.Error(err))
	}
	if hit {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, cached)
		return
	}

	detail, err := h.catalog.GetProductDetail(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	resp := handlers.NewProductDetailResponse(*detail)
	if err := h.cache.SetProduct(ctx, id, resp); err != nil {
		h.log.Warn("product cache write failed", zap.Uint("product_id", id), zap.Error(err))
	}
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	reviews, err := h.catalog.ListReviews(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (h *Handler) AddReview(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	review, err := h.catalog.AddReview(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListCollections handles GET /collections.
func (h *Handler) ListCollections(c *gin.Context) {
	cols, err := h.catalog.ListCollectionsWithCounts(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": cols})
}

func (h *Handler) GetCollection(c *gin.Context) {
	id, ok := handlers.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	col, err := h.catalog.GetCollection(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	n, err := h.catalog.CountProductsInCollection(ctx, id)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, store.CollectionWithCount{
		ID:                col.ID,
		Title:             col.Title,
		FeaturedProductID: col.FeaturedProductID,
		ProductCount:      n,
	})
}

func (h *Handler) ListPromotions(c *gin.Context) {
	promos, err := h.catalog.ListPromotions(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return
	}
	out := make([]handlers.PromotionResponse, len(promos))
	for i, p := range promos {
		out[i] = handlers.NewPromotionResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"promotions": out})
}
