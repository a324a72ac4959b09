package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Capability is a permission that can be granted to a non-staff principal.
type Capability string

const (
	CapViewHistory Capability = "view_history"
	CapCancelOrder Capability = "cancel_order"
)

// AllCapabilities lists every known capability.
var AllCapabilities = []Capability{CapViewHistory, CapCancelOrder}

func ParseCapability(value string) (Capability, error) {
	switch Capability(value) {
	case CapViewHistory:
		return CapViewHistory, nil
	case CapCancelOrder:
		return CapCancelOrder, nil
	default:
		return "", NewValidationError("capability", "unknown capability %q", value)
	}
}

func (c Capability) Description() string {
	switch c {
	case CapViewHistory:
		return "Can view history"
	case CapCancelOrder:
		return "Can cancel order"
	default:
		return string(c)
	}
}

// Principal is the caller identity handed over by the identity provider.
type Principal struct {
	UserID  string       `json:"user_id"`
	IsStaff bool         `json:"is_staff"`
	Granted []Capability `json:"capabilities,omitempty"`
}

// Can reports whether the principal holds c. Staff hold every capability.
func (p Principal) Can(c Capability) bool {
	if p.IsStaff {
		return true
	}
	for _, g := range p.Granted {
		if g == c {
			return true
		}
	}
	return false
}

// Require returns a PermissionError when the principal lacks c.
func (p Principal) Require(c Capability) error {
	if p.Can(c) {
		return nil
	}
	return &PermissionError{Capability: c, UserID: p.UserID}
}

// AuditLog traces an administrative or order-changing action.
type AuditLog struct {
	ID         gocql.UUID `json:"id"`
	UserID     string     `json:"user_id"`
	Action     string     `json:"action"`
	Resource   string     `json:"resource"`
	ResourceID string     `json:"resource_id,omitempty"`
	OldValue   string     `json:"old_value,omitempty"`
	NewValue   string     `json:"new_value,omitempty"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	Success    bool       `json:"success"`
	Status     int        `json:"status"`
	ErrorMsg   string     `json:"error_msg,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
