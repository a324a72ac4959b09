package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront_back_end/internal/pricing"
)

// PaymentStatus is the order state. Pending is the only non-terminal state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "P"
	PaymentCompleted PaymentStatus = "C"
	PaymentFailed    PaymentStatus = "F"
)

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	switch value {
	case "P", "pending", "Pending":
		return PaymentPending, nil
	case "C", "complete", "completed", "Complete", "Completed":
		return PaymentCompleted, nil
	case "F", "failed", "Failed":
		return PaymentFailed, nil
	default:
		return "", NewValidationError("payment_status", "unknown status %q", value)
	}
}

func (s PaymentStatus) Label() string {
	switch s {
	case PaymentPending:
		return "Pending"
	case PaymentCompleted:
		return "Complete"
	case PaymentFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted, PaymentFailed:
		return false
	default:
		return false
	}
}

type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	PaymentStatus PaymentStatus `gorm:"size:1;not null;default:P" json:"payment_status"`
	PlacedAt      time.Time     `gorm:"<-:create;not null" json:"placed_at"`
	CustomerID    uint          `gorm:"not null;index" json:"customer_id"`
	Customer      *Customer     `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Items         []OrderItem   `gorm:"constraint:OnDelete:RESTRICT" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	return nil
}

// Transition moves the order to next or returns a ValidationError.
func (o *Order) Transition(next PaymentStatus) error {
	if !o.PaymentStatus.CanTransition(next) {
		return NewValidationError("payment_status", "cannot move order %d from %s to %s",
			o.ID, o.PaymentStatus.Label(), next.Label())
	}
	o.PaymentStatus = next
	return nil
}

// Total sums the snapshot prices; it never reads the live product price.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// OrderItem is a write-once line snapshot.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"<-:create;not null;index" json:"order_id"`
	ProductID uint            `gorm:"<-:create;not null;index" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Quantity  int             `gorm:"<-:create;not null;check:chk_order_items_quantity,quantity >= 1" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"<-:create;type:decimal(6,2);not null" json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	return ValidateQuantity(i.Quantity)
}

func (i *OrderItem) TotalPrice() decimal.Decimal {
	return pricing.LineTotal(i.UnitPrice, i.Quantity)
}
