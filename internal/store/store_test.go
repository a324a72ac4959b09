package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/models"
)

// openTestDB returns a migrated sqlite database in a per-test file.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "store.db") + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
	db, err := database.OpenSQL("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestStore(t *testing.T, opts Options) (*Store, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	return New(db, opts), db
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCollection(t *testing.T, s *Store, title string) *models.Collection {
	t.Helper()
	c, err := s.Catalog.CreateCollection(context.Background(), title)
	require.NoError(t, err)
	return c
}

func seedProduct(t *testing.T, s *Store, collectionID uint, title, unitPrice string, inventory int) *models.Product {
	t.Helper()
	p, err := s.Catalog.CreateProduct(context.Background(), &models.Product{
		Title:        title,
		UnitPrice:    price(unitPrice),
		Inventory:    inventory,
		CollectionID: collectionID,
	})
	require.NoError(t, err)
	return p
}

func seedCustomer(t *testing.T, s *Store, userID string) *models.Customer {
	t.Helper()
	c, err := s.Customers.RegisterCustomer(context.Background(), RegisterCustomer{UserID: userID, Phone: "555-0100"})
	require.NoError(t, err)
	return c
}

func seedCart(t *testing.T, s *Store, lines map[uint]int) *models.Cart {
	t.Helper()
	ctx := context.Background()
	cart, err := s.Carts.CreateCart(ctx)
	require.NoError(t, err)
	for productID, qty := range lines {
		_, err := s.Carts.AddItem(ctx, cart.ID, productID, qty)
		require.NoError(t, err)
	}
	return cart
}

func inventoryOf(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Inventory
}

// recordingCache remembers invalidated product ids.
type recordingCache struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingCache) InvalidateProducts(_ context.Context, ids ...uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ids...)
}

func (r *recordingCache) invalidated() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.ids...)
}

// fakeIndex is an in-memory ProductIndexer.
type fakeIndex struct {
	mu        sync.Mutex
	docs      map[uint]models.Product
	results   []uint
	searchErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uint]models.Product{}}
}

func (f *fakeIndex) Enabled() bool { return true }

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[p.ID] = p
	return nil
}

func (f *fakeIndex) RemoveProduct(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) SearchProductIDs(context.Context, string, int) ([]uint, error) {
	return f.results, f.searchErr
}
