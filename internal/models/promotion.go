package models

import (
	"strings"

	"gorm.io/gorm"
)

// Promotion is metadata attached to products. The discount is stored, never applied here.
type Promotion struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Description string  `gorm:"size:255;not null" json:"description"`
	Discount    float64 `gorm:"not null" json:"discount"`
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	return p.Validate()
}

func (p *Promotion) Validate() error {
	if strings.TrimSpace(p.Description) == "" {
		return NewValidationError("description", "must not be empty")
	}
	if p.Discount < 0 || p.Discount > 1 {
		return NewValidationError("discount", "must be a fraction between 0 and 1, got %v", p.Discount)
	}
	return nil
}
