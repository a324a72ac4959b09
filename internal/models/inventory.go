package models

import "time"

// MovementType tags a stock movement.
type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementClear      MovementType = "clear"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is an append-only record of one inventory change. ProductID is kept as a plain
// column so the ledger outlives deleted products.
type StockMovement struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ProductID uint         `gorm:"<-:create;not null;index" json:"product_id"`
	Type      MovementType `gorm:"<-:create;size:16;not null" json:"type"`
	Quantity  int          `gorm:"<-:create;not null" json:"quantity"`
	PrevStock int          `gorm:"<-:create;not null" json:"prev_stock"`
	NewStock  int          `gorm:"<-:create;not null" json:"new_stock"`
	OrderID   *uint        `gorm:"<-:create;index" json:"order_id,omitempty"`
	Actor     string       `gorm:"<-:create;size:255" json:"actor,omitempty"`
	CreatedAt time.Time    `gorm:"<-:create" json:"created_at"`
}

// NewMovement records a change from prev to next.
func NewMovement(productID uint, kind MovementType, prev, next int, actor string) StockMovement {
	return StockMovement{
		ProductID: productID,
		Type:      kind,
		Quantity:  next - prev,
		PrevStock: prev,
		NewStock:  next,
		Actor:     actor,
	}
}

// InventoryStats summarizes stock levels for the admin dashboard.
type InventoryStats struct {
	TotalProducts    int64 `json:"total_products"`
	LowStockProducts int64 `json:"low_stock_products"`
	OutOfStock       int64 `json:"out_of_stock_products"`
}
