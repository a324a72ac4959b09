package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Membership is the closed set of customer tiers.
type Membership string

const (
	MembershipBronze Membership = "B"
	MembershipSilver Membership = "S"
	MembershipGold   Membership = "G"
)

// ParseMembership accepts the stored code or the tier name.
func ParseMembership(value string) (Membership, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "b", "bronze":
		return MembershipBronze, nil
	case "s", "silver":
		return MembershipSilver, nil
	case "g", "gold":
		return MembershipGold, nil
	default:
		return "", NewValidationError("membership", "unknown tier %q", value)
	}
}

func (m Membership) Label() string {
	switch m {
	case MembershipBronze:
		return "Bronze"
	case MembershipSilver:
		return "Silver"
	case MembershipGold:
		return "Gold"
	default:
		return "Unknown"
	}
}

func (m Membership) Validate() error {
	switch m {
	case MembershipBronze, MembershipSilver, MembershipGold:
		return nil
	default:
		return NewValidationError("membership", "unknown tier %q", string(m))
	}
}

// Customer is the store profile of an external account. UserID is the identity provider's subject.
type Customer struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     string     `gorm:"size:255;not null;uniqueIndex" json:"user_id"`
	Phone      string     `gorm:"size:255;not null" json:"phone"`
	BirthDate  *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Membership Membership `gorm:"size:1;not null;default:B" json:"membership"`
	Addresses  []Address  `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.Membership == "" {
		c.Membership = MembershipBronze
	}
	return c.Validate()
}

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return NewValidationError("user_id", "is required")
	}
	return c.Membership.Validate()
}
