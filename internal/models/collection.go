package models

import (
	"strings"

	"gorm.io/gorm"
)

// Collection groups products. FeaturedProductID is a weak reference: it does not own the
// product and is cleared when that product is deleted.
type Collection struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Title             string `gorm:"size:255;not null;index" json:"title"`
	FeaturedProductID *uint  `gorm:"index" json:"featured_product_id"`
}

func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	return c.Validate()
}

func (c *Collection) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	return nil
}
