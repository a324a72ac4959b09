package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront_back_end/internal/pricing"
)

// Cart is an anonymous basket identified by an opaque token.
type Cart struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `gorm:"<-:create" json:"created_at"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// TotalPrice sums the items at live product prices. Items must be loaded with their Product.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// CartItem is unique per (cart, product); repeated adds accumulate quantity.
type CartItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	CartID    string   `gorm:"size:36;not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint     `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int      `gorm:"not null;check:chk_cart_items_quantity,quantity >= 1" json:"quantity"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	return ValidateQuantity(i.Quantity)
}

func (i *CartItem) TotalPrice() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return pricing.LineTotal(i.Product.UnitPrice, i.Quantity)
}

func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return NewValidationError("quantity", "must be at least 1, got %d", quantity)
	}
	return nil
}
