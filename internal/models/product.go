package models

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockThreshold separates "Low Stock" from "In Stock".
const LowStockThreshold = 10

var (
	MinUnitPrice = decimal.NewFromInt(1)
	// MaxUnitPrice is the largest value a decimal(6,2) column holds.
	MaxUnitPrice = decimal.RequireFromString("9999.99")
)

type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Title        string          `gorm:"size:255;not null;index" json:"title"`
	Slug         string          `gorm:"size:255;not null;index" json:"slug"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(6,2);not null;check:chk_products_unit_price,unit_price >= 1" json:"unit_price"`
	Inventory    int             `gorm:"not null;check:chk_products_inventory,inventory >= 0" json:"inventory"`
	LastUpdated  time.Time       `gorm:"autoUpdateTime" json:"last_updated"`
	CollectionID uint            `gorm:"not null;index" json:"collection_id"`
	Collection   *Collection     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Promotions   []Promotion     `gorm:"many2many:product_promotions" json:"promotions,omitempty"`
}

// BeforeCreate rejects rows that break the price or inventory invariants.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	return p.Validate()
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	if err := ValidateUnitPrice(p.UnitPrice); err != nil {
		return err
	}
	if err := ValidateInventory(p.Inventory); err != nil {
		return err
	}
	if p.CollectionID == 0 {
		return NewValidationError("collection_id", "is required")
	}
	return nil
}

// SetUnitPrice changes the live price. Order snapshots are never derived from it afterwards.
func (p *Product) SetUnitPrice(price decimal.Decimal) error {
	if err := ValidateUnitPrice(price); err != nil {
		return err
	}
	p.UnitPrice = price
	return nil
}

func (p *Product) SetInventory(n int) error {
	if err := ValidateInventory(n); err != nil {
		return err
	}
	p.Inventory = n
	return nil
}

// StockStatus reports the derived Low/In Stock status.
func (p *Product) StockStatus() StockStatus {
	return StockStatusFor(p.Inventory)
}

func ValidateUnitPrice(price decimal.Decimal) error {
	if price.LessThan(MinUnitPrice) {
		return NewValidationError("unit_price", "must be at least %s, got %s", MinUnitPrice.StringFixed(2), price.String())
	}
	if price.GreaterThan(MaxUnitPrice) {
		return NewValidationError("unit_price", "must be at most %s, got %s", MaxUnitPrice.StringFixed(2), price.String())
	}
	if !price.Equal(price.Round(2)) {
		return NewValidationError("unit_price", "must have at most two decimal places, got %s", price.String())
	}
	return nil
}

func ValidateInventory(n int) error {
	if n < 0 {
		return NewValidationError("inventory", "must not be negative, got %d", n)
	}
	return nil
}

type StockStatus string

const (
	LowStock StockStatus = "Low Stock"
	InStock  StockStatus = "In Stock"
)

func StockStatusFor(inventory int) StockStatus {
	if inventory < LowStockThreshold {
		return LowStock
	}
	return InStock
}

// InventoryOp is the comparison used by an InventoryFilter.
type InventoryOp int

const (
	InventoryBelow InventoryOp = iota
	InventoryAtLeast
)

// InventoryFilter selects products by comparing inventory against a threshold.
type InventoryFilter struct {
	Threshold int
	Op        InventoryOp
}

var (
	LowStockFilter = InventoryFilter{Threshold: LowStockThreshold, Op: InventoryBelow}
	InStockFilter  = InventoryFilter{Threshold: LowStockThreshold, Op: InventoryAtLeast}
)

// ParseInventoryFilter accepts the two canonical lookups, "<10" and ">=10".
func ParseInventoryFilter(value string) (InventoryFilter, error) {
	switch value {
	case "<10", "low":
		return LowStockFilter, nil
	case ">=10", "in_stock":
		return InStockFilter, nil
	default:
		return InventoryFilter{}, NewValidationError("inventory", "unknown filter %q", value)
	}
}

// Scope applies the filter to a products query.
func (f InventoryFilter) Scope(db *gorm.DB) *gorm.DB {
	switch f.Op {
	case InventoryBelow:
		return db.Where("products.inventory < ?", f.Threshold)
	case InventoryAtLeast:
		return db.Where("products.inventory >= ?", f.Threshold)
	default:
		_ = db.AddError(NewValidationError("inventory", "unknown operator %d", f.Op))
		return db
	}
}
