// Package store implements the catalog, customer, cart and order engines on top of gorm.
// Every mutating operation runs in a single transaction; domain failures are returned as the
// typed errors of the models package.
package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront_back_end/internal/models"
)

// ProductCache is told which product details went stale after a commit.
type ProductCache interface {
	InvalidateProducts(ctx context.Context, ids ...uint)
}

// ProductIndexer mirrors products into a search index.
type ProductIndexer interface {
	Enabled() bool
	IndexProduct(ctx context.Context, p models.Product) error
	RemoveProduct(ctx context.Context, id uint) error
	SearchProductIDs(ctx context.Context, query string, limit int) ([]uint, error)
}

type Options struct {
	Logger *zap.Logger
	Cache  ProductCache
	Index  ProductIndexer
	Now    func() time.Time
}

type Store struct {
	Catalog   *Catalog
	Customers *Customers
	Carts     *Carts
	Orders    *Orders
}

type base struct {
	db    *gorm.DB
	log   *zap.Logger
	cache ProductCache
	index ProductIndexer
	now   func() time.Time
}

func New(db *gorm.DB, opts Options) *Store {
	b := &base{db: db, log: opts.Logger, cache: opts.Cache, index: opts.Index, now: opts.Now}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.cache == nil {
		b.cache = noopCache{}
	}
	if b.index == nil {
		b.index = noopIndex{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return &Store{
		Catalog:   &Catalog{base: b},
		Customers: &Customers{base: b},
		Carts:     &Carts{base: b},
		Orders:    &Orders{base: b},
	}
}

func (b *base) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.db.WithContext(ctx).Transaction(fn)
}

// first loads the row with the given primary key or returns a NotFoundError.
func first(tx *gorm.DB, dest interface{}, resource string, id interface{}) error {
	err := tx.First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.NotFoundError{Resource: resource, ID: id}
	}
	return err
}

func exists(tx *gorm.DB, model interface{}, resource string, id interface{}) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}

// protect returns a ReferentialIntegrityError when any row of model matches where.
func protect(tx *gorm.DB, resource string, id interface{}, dependents string, model interface{}, where string, args ...interface{}) error {
	var n int64
	if err := tx.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &models.ReferentialIntegrityError{Resource: resource, ID: id, Dependents: dependents, Count: n}
	}
	return nil
}

type noopCache struct{}

func (noopCache) InvalidateProducts(context.Context, ...uint) {}

type noopIndex struct{}

func (noopIndex) Enabled() bool                                      { return false }
func (noopIndex) IndexProduct(context.Context, models.Product) error { return nil }
func (noopIndex) RemoveProduct(context.Context, uint) error          { return nil }
func (noopIndex) SearchProductIDs(context.Context, string, int) ([]uint, error) {
	return nil, nil
}
