package store

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/pricing"
)

// Catalog owns products, collections, promotions and reviews.
type Catalog struct {
	*base
}

// CollectionWithCount is a collection row with the number of products it owns.
type CollectionWithCount struct {
	ID                uint   `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *uint  `json:"featured_product_id"`
	ProductCount      int64  `json:"product_count"`
}

// ProductDetail is a product with its derived values.
type ProductDetail struct {
	Product         models.Product
	CollectionTitle string
	PriceWithTax    decimal.Decimal
	StockStatus     models.StockStatus
	ReviewCount     int64
}

// ProductQuery narrows ListProducts. Zero values mean no restriction.
type ProductQuery struct {
	CollectionID *uint
	Inventory    *models.InventoryFilter
}

func (c *Catalog) CreateCollection(ctx context.Context, title string) (*models.Collection, error) {
	col := &models.Collection{Title: strings.TrimSpace(title)}
	if err := c.db.WithContext(ctx).Create(col).Error; err != nil {
		return nil, err
	}
	c.log.Info("collection created", zap.Uint("collection_id", col.ID), zap.String("title", col.Title))
	return col, nil
}

func (c *Catalog) GetCollection(ctx context.Context, id uint) (*models.Collection, error) {
	var col models.Collection
	if err := first(c.db.WithContext(ctx), &col, "collection", id); err != nil {
		return nil, err
	}
	return &col, nil
}

// SetFeaturedProduct points the collection at productID, or clears the link when productID is nil.
func (c *Catalog) SetFeaturedProduct(ctx context.Context, collectionID uint, productID *uint) error {
	return c.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Collection{}, "collection", collectionID); err != nil {
			return err
		}
		if productID != nil {
			if err := exists(tx, &models.Product{}, "product", *productID); err != nil {
				return err
			}
		}
		return tx.Model(&models.Collection{}).Where("id = ?", collectionID).
			Update("featured_product_id", productID).Error
	})
}

// DeleteCollection refuses while the collection still owns products. The featured product is
// never touched.
func (c *Catalog) DeleteCollection(ctx context.Context, id uint) error {
	err := c.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Collection{}, "collection", id); err != nil {
			return err
		}
		if err := protect(tx, "collection", id, "products", &models.Product{}, "collection_id = ?", id); err != nil {
			return err
		}
		return tx.Delete(&models.Collection{}, id).Error
	})
	if err != nil {
		return err
	}
	c.log.Info("collection deleted", zap.Uint("collection_id", id))
	return nil
}

func (c *Catalog) CountProductsInCollection(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&models.Product{}).Where("collection_id = ?", id).Count(&n).Error
	return n, err
}

// ListCollectionsWithCounts returns every collection ordered by title with its product count.
func (c *Catalog) ListCollectionsWithCounts(ctx context.Context) ([]CollectionWithCount, error) {
	var out []CollectionWithCount
	err := c.db.WithContext(ctx).
		Model(&models.Collection{}).
		Select("collections.id, collections.title, collections.featured_product_id, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.collection_id = collections.id").
		Group("collections.id, collections.title, collections.featured_product_id").
		Order("collections.title, collections.id").
		Scan(&out).Error
	return out, err
}

// CreateProduct inserts p after checking its invariants and that its collection exists.
func (c *Catalog) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	err := c.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Collection{}, "collection", p.CollectionID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("product created", zap.Uint("product_id", p.ID), zap.String("title", p.Title))
	c.reindex(ctx, *p)
	return p, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := first(c.db.WithContext(ctx).Preload("Promotions"), &p, "product", id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductDetail loads a product with its collection title, taxed price and stock status.
func (c *Catalog) GetProductDetail(ctx context.Context, id uint) (*ProductDetail, error) {
	db := c.db.WithContext(ctx)
	var p models.Product
	if err := first(db.Preload("Collection").Preload("Promotions"), &p, "product", id); err != nil {
		return nil, err
	}
	d := &ProductDetail{
		Product:      p,
		PriceWithTax: pricing.PriceWithTax(p.UnitPrice),
		StockStatus:  p.StockStatus(),
	}
	if p.Collection != nil {
		d.CollectionTitle = p.Collection.Title
	}
	if err := db.Model(&models.Review{}).Where("product_id = ?", id).Count(&d.ReviewCount).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// ListProducts returns products ordered by title.
func (c *Catalog) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	db := c.db.WithContext(ctx).Model(&models.Product{})
	if q.CollectionID != nil {
		db = db.Where("products.collection_id = ?", *q.CollectionID)
	}
	if q.Inventory != nil {
		db = db.Scopes(q.Inventory.Scope)
	}
	var out []models.Product
	err := db.Order("products.title, products.id").Find(&out).Error
	return out, err
}

// FilterByInventory is ListProducts restricted to one inventory predicate.
func (c *Catalog) FilterByInventory(ctx context.Context, f models.InventoryFilter) ([]models.Product, error) {
	return c.ListProducts(ctx, ProductQuery{Inventory: &f})
}

// SearchProducts matches titles. The search index is used when available, SQL otherwise.
func (c *Catalog) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("q", "must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	if c.index.Enabled() {
		ids, err := c.index.SearchProductIDs(ctx, query, limit)
		if err == nil {
			return c.productsInOrder(ctx, ids)
		}
		c.log.Warn("search index unavailable, falling back to SQL", zap.String("query", query), zap.Error(err))
	}

	var out []models.Product
	err := c.db.WithContext(ctx).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%").
		Order("title, id").Limit(limit).
		Find(&out).Error
	return out, err
}

func (c *Catalog) productsInOrder(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		// The index may lag behind deletions.
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateUnitPrice changes the live price. Order lines keep their snapshot.
func (c *Catalog) UpdateUnitPrice(ctx context.Context, id uint, price decimal.Decimal) (*models.Product, error) {
	if err := models.ValidateUnitPrice(price); err != nil {
		return nil, err
	}
	var p models.Product
	err := c.tx(ctx, func(tx *gorm.DB) error {
		if err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &p, "product", id); err != nil {
			return err
		}
		if err := p.SetUnitPrice(price); err != nil {
			return err
		}
		return tx.Model(&p).Update("unit_price", p.UnitPrice).Error
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("product price updated", zap.Uint("product_id", id), zap.String("unit_price", price.StringFixed(2)))
	c.cache.InvalidateProducts(ctx, id)
	c.reindex(ctx, p)
	return &p, nil
}

// SetInventory is the administrative stock adjustment.
func (c *Catalog) SetInventory(ctx context.Context, id uint, inventory int, actor string) (*models.Product, error) {
	if err := models.ValidateInventory(inventory); err != nil {
		return nil, err
	}
	var p models.Product
	err := c.tx(ctx, func(tx *gorm.DB) error {
		if err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &p, "product", id); err != nil {
			return err
		}
		prev := p.Inventory
		if err := p.SetInventory(inventory); err != nil {
			return err
		}
		if err := tx.Model(&p).Update("inventory", p.Inventory).Error; err != nil {
			return err
		}
		m := models.NewMovement(p.ID, models.MovementAdjustment, prev, p.Inventory, actor)
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("inventory adjusted", zap.Uint("product_id", id), zap.Int("inventory", inventory), zap.String("actor", actor))
	c.cache.InvalidateProducts(ctx, id)
	c.reindex(ctx, p)
	return &p, nil
}

// ClearInventory sets inventory to zero for every listed product in one transaction and
// returns the number of products matched.
func (c *Catalog) ClearInventory(ctx context.Context, ids []uint, actor string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var (
		affected int64
		touched  []uint
	)
	err := c.tx(ctx, func(tx *gorm.DB) error {
		var products []models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Product{}).Where("id IN ?", ids).Update("inventory", 0)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected

		for _, p := range products {
			touched = append(touched, p.ID)
			if p.Inventory == 0 {
				continue
			}
			m := models.NewMovement(p.ID, models.MovementClear, p.Inventory, 0, actor)
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.log.Info("inventory cleared", zap.Int64("products", affected), zap.String("actor", actor))
	c.cache.InvalidateProducts(ctx, touched...)
	return affected, nil
}

// DeleteProduct refuses while order lines reference the product. Otherwise it clears featured
// links, removes the product from carts, drops its reviews and promotion links, then deletes it.
func (c *Catalog) DeleteProduct(ctx context.Context, id uint) error {
	err := c.tx(ctx, func(tx *gorm.DB) error {
		var p models.Product
		if err := first(tx, &p, "product", id); err != nil {
			return err
		}
		if err := protect(tx, "product", id, "order items", &models.OrderItem{}, "product_id = ?", id); err != nil {
			return err
		}
		if err := tx.Model(&models.Collection{}).Where("featured_product_id = ?", id).
			Update("featured_product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).Association("Promotions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return err
	}
	c.log.Info("product deleted", zap.Uint("product_id", id))
	c.cache.InvalidateProducts(ctx, id)
	if err := c.index.RemoveProduct(ctx, id); err != nil {
		c.log.Warn("search index removal failed", zap.Uint("product_id", id), zap.Error(err))
	}
	return nil
}

func (c *Catalog) CreatePromotion(ctx context.Context, description string, discount float64) (*models.Promotion, error) {
	promo := &models.Promotion{Description: strings.TrimSpace(description), Discount: discount}
	if err := promo.Validate(); err != nil {
		return nil, err
	}
	if err := c.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

func (c *Catalog) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	var out []models.Promotion
	err := c.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (c *Catalog) AttachPromotion(ctx context.Context, productID, promotionID uint) error {
	return c.changePromotion(ctx, productID, promotionID, true)
}

func (c *Catalog) DetachPromotion(ctx context.Context, productID, promotionID uint) error {
	return c.changePromotion(ctx, productID, promotionID, false)
}

func (c *Catalog) changePromotion(ctx context.Context, productID, promotionID uint, attach bool) error {
	err := c.tx(ctx, func(tx *gorm.DB) error {
		var p models.Product
		if err := first(tx, &p, "product", productID); err != nil {
			return err
		}
		var promo models.Promotion
		if err := first(tx, &promo, "promotion", promotionID); err != nil {
			return err
		}
		assoc := tx.Model(&p).Association("Promotions")
		if attach {
			return assoc.Append(&promo)
		}
		return assoc.Delete(&promo)
	})
	if err != nil {
		return err
	}
	c.cache.InvalidateProducts(ctx, productID)
	return nil
}

func (c *Catalog) AddReview(ctx context.Context, productID uint, name, description string) (*models.Review, error) {
	r := &models.Review{ProductID: productID, Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	err := c.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Product{}, "product", productID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(r).Error
	})
	if err != nil {
		return nil, err
	}
	c.cache.InvalidateProducts(ctx, productID)
	return r, nil
}

func (c *Catalog) ListReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	if err := exists(c.db.WithContext(ctx), &models.Product{}, "product", productID); err != nil {
		return nil, err
	}
	var out []models.Review
	err := c.db.WithContext(ctx).Where("product_id = ?", productID).Order("date, id").Find(&out).Error
	return out, err
}

// StockMovements returns the inventory ledger of a product, oldest first.
func (c *Catalog) StockMovements(ctx context.Context, productID uint) ([]models.StockMovement, error) {
	var out []models.StockMovement
	err := c.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&out).Error
	return out, err
}

func (c *Catalog) InventoryStats(ctx context.Context) (models.InventoryStats, error) {
	var s models.InventoryStats
	products := c.db.WithContext(ctx).Model(&models.Product{}).Session(&gorm.Session{})
	if err := products.Count(&s.TotalProducts).Error; err != nil {
		return s, err
	}
	if err := products.Scopes(models.LowStockFilter.Scope).Count(&s.LowStockProducts).Error; err != nil {
		return s, err
	}
	err := products.Where("inventory = 0").Count(&s.OutOfStock).Error
	return s, err
}

func (c *Catalog) reindex(ctx context.Context, p models.Product) {
	if err := c.index.IndexProduct(ctx, p); err != nil {
		c.log.Warn("search index update failed", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}
