package models

import (
	"strings"

	"gorm.io/gorm"
)

type Address struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Street     string `gorm:"size:255;not null" json:"street"`
	City       string `gorm:"size:255;not null" json:"city"`
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(a.Street) == "" {
		return NewValidationError("street", "must not be empty")
	}
	if strings.TrimSpace(a.City) == "" {
		return NewValidationError("city", "must not be empty")
	}
	return nil
}
