package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_back_end/internal/models"
)

// Customers owns customer profiles and their addresses.
type Customers struct {
	*base
}

type RegisterCustomer struct {
	UserID     string
	Phone      string
	BirthDate  *time.Time
	Membership models.Membership
}

// CustomerWithOrderCount is a customer row with the number of orders placed.
type CustomerWithOrderCount struct {
	ID         uint              `json:"id"`
	UserID     string            `json:"user_id"`
	Phone      string            `json:"phone"`
	Membership models.Membership `json:"membership"`
	OrderCount int64             `json:"order_count"`
}

// RegisterCustomer creates the single profile of an account identity.
func (s *Customers) RegisterCustomer(ctx context.Context, in RegisterCustomer) (*models.Customer, error) {
	c := &models.Customer{
		UserID:     strings.TrimSpace(in.UserID),
		Phone:      strings.TrimSpace(in.Phone),
		BirthDate:  in.BirthDate,
		Membership: in.Membership,
	}
	if c.Membership == "" {
		c.Membership = models.MembershipBronze
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Customer{}).Where("user_id = ?", c.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return models.NewValidationError("user_id", "%q already has a customer profile", c.UserID)
		}
		err := tx.Omit(clause.Associations).Create(c).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewValidationError("user_id", "%q already has a customer profile", c.UserID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("customer registered", zap.Uint("customer_id", c.ID), zap.String("user_id", c.UserID))
	return c, nil
}

func (s *Customers) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := first(s.db.WithContext(ctx), &c, "customer", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Customers) GetCustomerByUser(ctx context.Context, userID string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.NotFoundError{Resource: "customer", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateMembership changes the tier. Existing orders and carts are unaffected.
func (s *Customers) UpdateMembership(ctx context.Context, id uint, m models.Membership) (*models.Customer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	var c models.Customer
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := first(tx, &c, "customer", id); err != nil {
			return err
		}
		c.Membership = m
		return tx.Model(&c).Update("membership", m).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("membership updated", zap.Uint("customer_id", id), zap.String("membership", m.Label()))
	return &c, nil
}

func (s *Customers) CountOrders(ctx context.Context, id uint) (int64, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Customer{}, "customer", id); err != nil {
		return 0, err
	}
	var n int64
	err := db.Model(&models.Order{}).Where("customer_id = ?", id).Count(&n).Error
	return n, err
}

// ListCustomersWithOrderCounts returns every customer ordered by id with its order count.
func (s *Customers) ListCustomersWithOrderCounts(ctx context.Context) ([]CustomerWithOrderCount, error) {
	var out []CustomerWithOrderCount
	err := s.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select("customers.id, customers.user_id, customers.phone, customers.membership, COUNT(orders.id) AS order_count").
		Joins("LEFT JOIN orders ON orders.customer_id = customers.id").
		Group("customers.id, customers.user_id, customers.phone, customers.membership").
		Order("customers.id").
		Scan(&out).Error
	return out, err
}

func (s *Customers) AddAddress(ctx context.Context, customerID uint, street, city string) (*models.Address, error) {
	a := &models.Address{CustomerID: customerID, Street: strings.TrimSpace(street), City: strings.TrimSpace(city)}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Customer{}, "customer", customerID); err != nil {
			return err
		}
		return tx.Create(a).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Customers) ListAddresses(ctx context.Context, customerID uint) ([]models.Address, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Customer{}, "customer", customerID); err != nil {
		return nil, err
	}
	var out []models.Address
	err := db.Where("customer_id = ?", customerID).Order("id").Find(&out).Error
	return out, err
}

func (s *Customers) DeleteAddress(ctx context.Context, customerID, addressID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND customer_id = ?", addressID, customerID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "address", ID: addressID}
	}
	return nil
}

// DeleteCustomer refuses while orders reference the customer; addresses go with it.
func (s *Customers) DeleteCustomer(ctx context.Context, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Customer{}, "customer", id); err != nil {
			return err
		}
		if err := protect(tx, "customer", id, "orders", &models.Order{}, "customer_id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("customer deleted", zap.Uint("customer_id", id))
	return nil
}
