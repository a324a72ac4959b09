package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront_back_end/internal/database"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

const secret = "routes-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryCache struct {
	mu       sync.Mutex
	products map[uint][]byte
	hits     map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{products: map[uint][]byte{}, hits: map[string]int64{}}
}

func (m *memoryCache) GetProduct(_ context.Context, id uint, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.products[id]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) SetProduct(_ context.Context, id uint, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = data
	return nil
}

func (m *memoryCache) InvalidateProducts(_ context.Context, ids ...uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.products, id)
	}
}

func (m *memoryCache) IncrementRateLimit(_ context.Context, scope, subject string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[scope+":"+subject]++
	return m.hits[scope+":"+subject], nil
}

type memoryAuditor struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *memoryAuditor) Record(_ context.Context, e models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *memoryAuditor) List(_ context.Context, q utils.AuditQuery) ([]models.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditLog
	for _, e := range a.entries {
		if q.Action != "" && e.Action != q.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (a *memoryAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type server struct {
	t       *testing.T
	db      *gorm.DB
	engine  *gin.Engine
	cache   *memoryCache
	auditor *memoryAuditor
}

func newServer(t *testing.T, rateLimit int) *server {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
	db, err := database.OpenSQL("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zaptest.NewLogger(t)
	c := newMemoryCache()
	auditor := &memoryAuditor{}
	s := store.New(db, store.Options{Logger: log, Cache: c})

	r := gin.New()
	RegisterRoutes(r, Deps{
		Store:             s,
		Cache:             c,
		Verifier:          middleware.NewHMACVerifier(secret),
		Auditor:           auditor,
		AuditReader:       auditor,
		Log:               log,
		CORSOrigins:       []string{"http://localhost:3000"},
		CheckoutRateLimit: rateLimit,
		RateLimitWindow:   time.Minute,
	})
	return &server{t: t, db: db, engine: r, cache: c, auditor: auditor}
}

func (s *server) token(p models.Principal) string {
	tok, err := utils.GenerateJWT(secret, p, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *server) staff() string {
	return s.token(models.Principal{UserID: "staff", IsStaff: true})
}

func (s *server) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func (s *server) seedProduct(title, price string, inventory int) handlers.ProductResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/admin/collections", s.staff(), gin.H{"title": title + " collection"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var col models.Collection
	decode(s.t, w, &col)

	w = s.do(http.MethodPost, "/api/admin/products", s.staff(), gin.H{
		"title":         title,
		"unit_price":    price,
		"inventory":     inventory,
		"collection_id": col.ID,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var p handlers.ProductResponse
	decode(s.t, w, &p)
	return p
}

func (s *server) cartWith(productID uint, qty int) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/carts", "", nil)
	require.Equal(s.t, http.StatusCreated, w.Code)
	var cart handlers.CartResponse
	decode(s.t, w, &cart)
	if qty > 0 {
		w = s.do(http.MethodPost, "/api/carts/"+cart.ID+"/items", "", gin.H{"product_id": productID, "quantity": qty})
		require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	}
	return cart.ID
}

func (s *server) register(userID string) string {
	s.t.Helper()
	tok := s.token(models.Principal{UserID: userID})
	w := s.do(http.MethodPost, "/api/customers/me", tok, gin.H{"phone": "555-0100", "membership": "gold"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return tok
}

func TestCheckoutThroughAPI(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Espresso Beans", "10.00", 12)
	assert.Equal(t, "11.00", p.PriceWithTax)
	assert.Equal(t, models.InStock, p.StockStatus)

	cartID := s.cartWith(p.ID, 2)
	w := s.do(http.MethodPost, "/api/carts/"+cartID+"/items", "", gin.H{"product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	var cart handlers.CartResponse
	decode(t, w, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "30.00", cart.TotalPrice)

	tok := s.register("alice")
	w = s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": cartID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order handlers.OrderResponse
	decode(t, w, &order)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "Pending", order.StatusLabel)
	assert.Equal(t, "30.00", order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "10.00", order.Items[0].UnitPrice)

	// The cart is consumed by checkout.
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/carts/"+cartID, "", nil).Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail handlers.ProductResponse
	decode(t, w, &detail)
	assert.Equal(t, 9, detail.Inventory)
	assert.Equal(t, models.LowStock, detail.StockStatus)

	w = s.do(http.MethodGet, "/api/orders", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Orders []handlers.OrderResponse `json:"orders"`
	}
	decode(t, w, &mine)
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, order.ID, mine.Orders[0].ID)

	assert.Contains(t, s.auditor.actions(), utils.ActionOrderCreate)
}

func TestCheckoutErrorsMapToStatus(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Tea", "4.50", 2)
	tok := s.register("bob")

	w := s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": s.cartWith(p.ID, 0)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cartID := s.cartWith(p.ID, 3)
	w = s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": cartID})
	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		ProductID uint `json:"product_id"`
		Available int  `json:"available"`
		Requested int  `json:"requested"`
	}
	decode(t, w, &body)
	assert.Equal(t, p.ID, body.ProductID)
	assert.Equal(t, 2, body.Available)
	assert.Equal(t, 3, body.Requested)

	// The failed checkout leaves the cart intact.
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/carts/"+cartID, "", nil).Code)

	w = s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": "no-such-cart"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	stranger := s.token(models.Principal{UserID: "no-profile"})
	w = s.do(http.MethodPost, "/api/orders", stranger, gin.H{"cart_id": cartID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	s := newServer(t, 0)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/orders", "", nil).Code)

	customer := s.token(models.Principal{UserID: "carol", Granted: models.AllCapabilities})
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/admin/orders", customer, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/admin/orders", s.staff(), nil).Code)
}

func TestAdminValidation(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Mug", "8.00", 20)

	w := s.do(http.MethodPatch, fmt.Sprintf("/api/admin/products/%d/price", p.ID), s.staff(), gin.H{"unit_price": "0.50"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Field string `json:"field"`
	}
	decode(t, w, &body)
	assert.Equal(t, "unit_price", body.Field)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/admin/products/%d/inventory", p.ID), s.staff(), gin.H{"inventory": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/products/%d/price", p.ID), s.staff(), gin.H{"unit_price": "9.25"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated handlers.ProductResponse
	decode(t, w, &updated)
	assert.Equal(t, "9.25", updated.UnitPrice)
	assert.Equal(t, "10.18", updated.PriceWithTax)

	w = s.do(http.MethodGet, "/api/admin/audit?action="+utils.ActionProductPriceChange, s.staff(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs struct {
		Logs []models.AuditLog `json:"logs"`
	}
	decode(t, w, &logs)
	require.Len(t, logs.Logs, 2)
	assert.False(t, logs.Logs[0].Success)
	assert.True(t, logs.Logs[1].Success)
	assert.Equal(t, "8.00", logs.Logs[1].OldValue)
	assert.Equal(t, "9.25", logs.Logs[1].NewValue)
}

func TestDeleteProtections(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Grinder", "99.00", 5)
	tok := s.register("dave")
	w := s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": s.cartWith(p.ID, 1)})
	require.Equal(t, http.StatusCreated, w.Code)
	var order handlers.OrderResponse
	decode(t, w, &order)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/collections/%d", p.CollectionID), s.staff(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/products/%d", p.ID), s.staff(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/orders/%d", order.ID), s.staff(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/customers/%d", order.CustomerID), s.staff(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	other := s.seedProduct("Scale", "25.00", 3)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/products/%d", other.ID), s.staff(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", other.ID), "", nil).Code)
}

func TestProductDetailIsCached(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Kettle", "40.00", 15)
	path := fmt.Sprintf("/api/products/%d", p.ID)

	w := s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = s.do(http.MethodPut, fmt.Sprintf("/api/admin/products/%d/inventory", p.ID), s.staff(), gin.H{"inventory": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var detail handlers.ProductResponse
	decode(t, w, &detail)
	assert.Equal(t, 4, detail.Inventory)
	assert.Equal(t, models.LowStock, detail.StockStatus)
	assert.EqualValues(t, 0, detail.ReviewCount)

	w = s.do(http.MethodPost, path+"/reviews", "", gin.H{"name": "Ann", "description": "Boils fast"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	decode(t, w, &detail)
	assert.EqualValues(t, 1, detail.ReviewCount)
}

func TestOrderCapabilities(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Filter Papers", "3.00", 50)
	tok := s.register("erin")
	w := s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": s.cartWith(p.ID, 2)})
	require.Equal(t, http.StatusCreated, w.Code)
	var order handlers.OrderResponse
	decode(t, w, &order)

	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	historyPath := fmt.Sprintf("/api/customers/%d/orders", order.CustomerID)

	s.register("frank")
	frank := s.token(models.Principal{UserID: "frank"})
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, orderPath, frank, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, historyPath, frank, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, orderPath+"/cancel", tok, nil).Code)

	auditorTok := s.token(models.Principal{UserID: "frank", Granted: []models.Capability{models.CapViewHistory}})
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, orderPath, auditorTok, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, historyPath, auditorTok, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, historyPath, tok, nil).Code)

	canceller := s.token(models.Principal{UserID: "support", Granted: []models.Capability{models.CapCancelOrder}})
	w = s.do(http.MethodPost, orderPath+"/cancel", canceller, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, models.PaymentFailed, order.PaymentStatus)

	// Terminal orders cannot move again.
	w = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/orders/%d/payment", order.ID), s.staff(), gin.H{"payment_status": "complete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLookupFailures(t *testing.T) {
	s := newServer(t, 0)
	p := s.seedProduct("Kettle", "40.00", 5)
	tok := s.register("hana")
	w := s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": s.cartWith(p.ID, 1)})
	require.Equal(t, http.StatusCreated, w.Code)
	var order handlers.OrderResponse
	decode(t, w, &order)
	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)

	// A caller without a customer profile cannot tell the order exists.
	stranger := s.token(models.Principal{UserID: "ivan"})
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, orderPath, stranger, nil).Code)

	require.NoError(t, s.db.Callback().Query().Before("gorm:query").Register("test:fail_customers", func(tx *gorm.DB) {
		if tx.Statement.Table == "customers" {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))
	w = s.do(http.MethodGet, orderPath, tok, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestCheckoutRateLimit(t *testing.T) {
	s := newServer(t, 1)
	tok := s.register("gina")

	w := s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/api/orders", tok, gin.H{"cart_id": "missing"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCatalogQueries(t *testing.T) {
	s := newServer(t, 0)
	low := s.seedProduct("Aeropress", "35.00", 3)
	s.seedProduct("Chemex", "45.00", 30)

	w := s.do(http.MethodGet, "/api/products?inventory=%3C10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Products []handlers.ProductResponse `json:"products"`
	}
	decode(t, w, &list)
	require.Len(t, list.Products, 1)
	assert.Equal(t, low.ID, list.Products[0].ID)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/products?inventory=lots", "", nil).Code)

	w = s.do(http.MethodGet, "/api/products/search?q=chem", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Chemex", list.Products[0].Title)

	w = s.do(http.MethodGet, "/api/collections", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cols struct {
		Collections []store.CollectionWithCount `json:"collections"`
	}
	decode(t, w, &cols)
	require.Len(t, cols.Collections, 2)
	assert.Equal(t, "Aeropress collection", cols.Collections[0].Title)
	assert.EqualValues(t, 1, cols.Collections[0].ProductCount)
}
