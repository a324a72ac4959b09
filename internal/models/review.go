package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Review struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	Product     *Product  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Date        time.Time `gorm:"<-:create;autoCreateTime" json:"date"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "must not be empty")
	}
	if strings.TrimSpace(r.Description) == "" {
		return NewValidationError("description", "must not be empty")
	}
	return nil
}
