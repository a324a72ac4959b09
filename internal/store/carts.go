package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// Carts owns anonymous carts and their items.
type Carts struct {
	*base
}

func (s *Carts) CreateCart(ctx context.Context) (*models.Cart, error) {
	cart := &models.Cart{}
	if err := s.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	s.log.Debug("cart created", zap.String("cart_id", cart.ID))
	return cart, nil
}

// GetCart loads the cart with its items and their products.
func (s *Carts) GetCart(ctx context.Context, id string) (*models.Cart, error) {
	var cart models.Cart
	db := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id")
	}).Preload("Items.Product")
	if err := first(db, &cart, "cart", id); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// AddItem creates the (cart, product) line or adds quantity to the existing one.
func (s *Carts) AddItem(ctx context.Context, cartID string, productID uint, quantity int) (*models.CartItem, error) {
	if err := models.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	var item models.CartItem
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Cart{}, "cart", cartID); err != nil {
			return err
		}
		if err := exists(tx, &models.Product{}, "product", productID); err != nil {
			return err
		}
		line := models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).Create(&line).Error
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("cart item added", zap.String("cart_id", cartID), zap.Uint("product_id", productID),
		zap.Int("quantity", item.Quantity))
	return &item, nil
}

// SetQuantity overwrites the quantity of an existing line. Use RemoveItem to drop a line.
func (s *Carts) SetQuantity(ctx context.Context, cartID string, productID uint, quantity int) (*models.CartItem, error) {
	if err := models.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	var item models.CartItem
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Cart{}, "cart", cartID); err != nil {
			return err
		}
		res := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).Limit(1).Find(&item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &models.NotFoundError{Resource: "cart item", ID: productID}
		}
		item.Quantity = quantity
		return tx.Model(&item).Update("quantity", quantity).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes the line if present. Removing an absent product is not an error.
func (s *Carts) RemoveItem(ctx context.Context, cartID string, productID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Cart{}, "cart", cartID); err != nil {
			return err
		}
		return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{}).Error
	})
}

func (s *Carts) DeleteCart(ctx context.Context, id string) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Cart{}, "cart", id); err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Cart{}).Error
	})
}
