package models

import "fmt"

// ValidationError rejects malformed input before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// EmptyCartError is returned when checkout is attempted on a cart without items.
type EmptyCartError struct {
	CartID string
}

func (e *EmptyCartError) Error() string {
	return fmt.Sprintf("cart %s is empty", e.CartID)
}

// InsufficientInventoryError names the product that cannot cover the requested quantity.
type InsufficientInventoryError struct {
	ProductID uint
	Title     string
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %d (%s): requested %d, available %d",
		e.ProductID, e.Title, e.Requested, e.Available)
}

// ReferentialIntegrityError refuses a deletion while protected rows still reference the target.
type ReferentialIntegrityError struct {
	Resource   string
	ID         interface{}
	Dependents string
	Count      int64
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %v: referenced by %d %s", e.Resource, e.ID, e.Count, e.Dependents)
}

// PermissionError is returned when the caller lacks a required capability.
type PermissionError struct {
	Capability Capability
	UserID     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %q lacks capability %s", e.UserID, e.Capability)
}

// NotFoundError reports a missing row.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}
