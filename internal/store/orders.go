package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// Orders converts carts into orders and drives the payment-status lifecycle.
type Orders struct {
	*base
}

// OrderQuery narrows ListOrders. Zero values mean no restriction.
type OrderQuery struct {
	CustomerID *uint
	Status     *models.PaymentStatus
}

// PlaceOrder checks out the cart for the customer. Within one transaction it snapshots the live
// unit price of every line, decrements inventory and deletes the cart. Any failure leaves no
// order, no order item and no inventory change behind.
func (s *Orders) PlaceOrder(ctx context.Context, cartID string, customerID uint) (*models.Order, error) {
	var (
		order   models.Order
		touched []uint
	)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		// The cart row lock makes a concurrent checkout of the same cart wait, then miss it.
		var cart models.Cart
		if err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id")
		}), &cart, "cart", cartID); err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return &models.EmptyCartError{CartID: cartID}
		}

		var customer models.Customer
		if err := first(tx, &customer, "customer", customerID); err != nil {
			return err
		}

		// Lock in id order so concurrent checkouts cannot deadlock each other.
		ids := make([]uint, len(cart.Items))
		for i, item := range cart.Items {
			ids[i] = item.ProductID
		}
		var products []models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
			return err
		}
		byID := make(map[uint]*models.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
		for _, item := range cart.Items {
			p, ok := byID[item.ProductID]
			if !ok {
				return &models.NotFoundError{Resource: "product", ID: item.ProductID}
			}
			if p.Inventory < item.Quantity {
				return &models.InsufficientInventoryError{
					ProductID: p.ID, Title: p.Title, Available: p.Inventory, Requested: item.Quantity,
				}
			}
		}

		order = models.Order{
			PaymentStatus: models.PaymentPending,
			PlacedAt:      s.now(),
			CustomerID:    customer.ID,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range cart.Items {
			p := byID[item.ProductID]
			line := models.OrderItem{
				OrderID:   order.ID,
				ProductID: p.ID,
				Quantity:  item.Quantity,
				UnitPrice: p.UnitPrice,
			}
			if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
				return fmt.Errorf("create order item for product %d: %w", p.ID, err)
			}
			order.Items = append(order.Items, line)

			if err := decrementInventory(tx, p, item.Quantity); err != nil {
				return err
			}
			m := models.NewMovement(p.ID, models.MovementSale, p.Inventory, p.Inventory-item.Quantity, customer.UserID)
			m.OrderID = &order.ID
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			p.Inventory -= item.Quantity
			touched = append(touched, p.ID)
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", cartID).Delete(&models.Cart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return &models.NotFoundError{Resource: "cart", ID: cartID}
		}
		return nil
	})
	if err != nil {
		var shortage *models.InsufficientInventoryError
		if errors.As(err, &shortage) {
			s.log.Warn("checkout refused: insufficient inventory",
				zap.String("cart_id", cartID), zap.Uint("product_id", shortage.ProductID),
				zap.Int("requested", shortage.Requested), zap.Int("available", shortage.Available))
		}
		return nil, err
	}

	s.log.Info("order placed", zap.Uint("order_id", order.ID), zap.Uint("customer_id", customerID),
		zap.String("cart_id", cartID), zap.Int("items", len(order.Items)),
		zap.String("total", order.Total().StringFixed(2)))
	s.cache.InvalidateProducts(ctx, touched...)
	return &order, nil
}

// decrementInventory subtracts quantity only while enough stock remains, so the row can never go
// negative even without a row lock.
func decrementInventory(tx *gorm.DB, p *models.Product, quantity int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND inventory >= ?", p.ID, quantity).
		Updates(map[string]interface{}{"inventory": gorm.Expr("inventory - ?", quantity)})
	if res.Error != nil {
		return fmt.Errorf("decrement inventory of product %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected != 1 {
		return &models.InsufficientInventoryError{
			ProductID: p.ID, Title: p.Title, Available: p.Inventory, Requested: quantity,
		}
	}
	return nil
}

func (s *Orders) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	db := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	})
	if err := first(db, &o, "order", id); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns orders newest first with their items.
func (s *Orders) ListOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	db := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	})
	if q.CustomerID != nil {
		db = db.Where("customer_id = ?", *q.CustomerID)
	}
	if q.Status != nil {
		db = db.Where("payment_status = ?", *q.Status)
	}
	var out []models.Order
	err := db.Order("placed_at DESC, id DESC").Find(&out).Error
	return out, err
}

// OrderHistory lists a customer's orders. Customers always see their own history; anyone else
// needs the view_history capability.
func (s *Orders) OrderHistory(ctx context.Context, caller models.Principal, customerID uint) ([]models.Order, error) {
	var c models.Customer
	if err := first(s.db.WithContext(ctx), &c, "customer", customerID); err != nil {
		return nil, err
	}
	if c.UserID != caller.UserID {
		if err := caller.Require(models.CapViewHistory); err != nil {
			return nil, err
		}
	}
	return s.ListOrders(ctx, OrderQuery{CustomerID: &customerID})
}

// UpdatePaymentStatus applies a lifecycle transition. Only Pending orders can move.
func (s *Orders) UpdatePaymentStatus(ctx context.Context, id uint, next models.PaymentStatus) (*models.Order, error) {
	var o models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), &o, "order", id); err != nil {
			return err
		}
		current := o.PaymentStatus
		if err := o.Transition(next); err != nil {
			return err
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", id, current).
			Update("payment_status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return models.NewValidationError("payment_status", "order %d changed concurrently", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment status updated", zap.Uint("order_id", id), zap.String("status", next.Label()))
	return &o, nil
}

// CancelOrder marks a pending order as failed. Inventory is not restocked.
func (s *Orders) CancelOrder(ctx context.Context, caller models.Principal, id uint) (*models.Order, error) {
	if err := caller.Require(models.CapCancelOrder); err != nil {
		s.log.Warn("cancel refused", zap.String("user_id", caller.UserID), zap.Uint("order_id", id))
		return nil, err
	}
	return s.UpdatePaymentStatus(ctx, id, models.PaymentFailed)
}

// DeleteOrder refuses while order items reference the order.
func (s *Orders) DeleteOrder(ctx context.Context, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Order{}, "order", id); err != nil {
			return err
		}
		if err := protect(tx, "order", id, "order items", &models.OrderItem{}, "order_id = ?", id); err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}
