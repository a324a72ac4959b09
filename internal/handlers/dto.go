package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/pricing"
	"storefront_back_end/internal/store"
)

// Money renders an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type PromotionResponse struct {
	ID          uint    `json:"id"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

func NewPromotionResponse(p models.Promotion) PromotionResponse {
	return PromotionResponse{ID: p.ID, Description: p.Description, Discount: p.Discount}
}

type ProductResponse struct {
	ID           uint                `json:"id"`
	Title        string              `json:"title"`
	Slug         string              `json:"slug"`
	Description  *string             `json:"description,omitempty"`
	UnitPrice    string              `json:"unit_price"`
	PriceWithTax string              `json:"price_with_tax"`
	Inventory    int                 `json:"inventory"`
	StockStatus  models.StockStatus  `json:"stock_status"`
	CollectionID uint                `json:"collection_id"`
	Collection   string              `json:"collection,omitempty"`
	ReviewCount  int64               `json:"review_count"`
	Promotions   []PromotionResponse `json:"promotions,omitempty"`
	LastUpdated  time.Time           `json:"last_updated"`
}

func NewProductResponse(p models.Product) ProductResponse {
	resp := ProductResponse{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		UnitPrice:    Money(p.UnitPrice),
		PriceWithTax: Money(pricing.PriceWithTax(p.UnitPrice)),
		Inventory:    p.Inventory,
		StockStatus:  p.StockStatus(),
		CollectionID: p.CollectionID,
		LastUpdated:  p.LastUpdated,
	}
	for _, promo := range p.Promotions {
		resp.Promotions = append(resp.Promotions, NewPromotionResponse(promo))
	}
	return resp
}

func NewProductDetailResponse(d store.ProductDetail) ProductResponse {
	resp := NewProductResponse(d.Product)
	resp.PriceWithTax = Money(d.PriceWithTax)
	resp.StockStatus = d.StockStatus
	resp.Collection = d.CollectionTitle
	resp.ReviewCount = d.ReviewCount
	return resp
}

func NewProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = NewProductResponse(p)
	}
	return out
}

type CartItemResponse struct {
	ProductID  uint   `json:"product_id"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type CartResponse struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice string             `json:"total_price"`
}

func NewCartResponse(cart models.Cart) CartResponse {
	resp := CartResponse{
		ID:         cart.ID,
		CreatedAt:  cart.CreatedAt,
		Items:      make([]CartItemResponse, 0, len(cart.Items)),
		TotalPrice: Money(cart.TotalPrice()),
	}
	for _, item := range cart.Items {
		line := CartItemResponse{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			TotalPrice: Money(item.TotalPrice()),
		}
		if item.Product != nil {
			line.Title = item.Product.Title
			line.UnitPrice = Money(item.Product.UnitPrice)
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

type OrderItemResponse struct {
	ProductID  uint   `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type OrderResponse struct {
	ID            uint                 `json:"id"`
	CustomerID    uint                 `json:"customer_id"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	StatusLabel   string               `json:"payment_status_label"`
	PlacedAt      time.Time            `json:"placed_at"`
	Items         []OrderItemResponse  `json:"items"`
	Total         string               `json:"total"`
}

func NewOrderResponse(o models.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		PaymentStatus: o.PaymentStatus,
		StatusLabel:   o.PaymentStatus.Label(),
		PlacedAt:      o.PlacedAt,
		Items:         make([]OrderItemResponse, 0, len(o.Items)),
		Total:         Money(o.Total()),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  Money(item.UnitPrice),
			TotalPrice: Money(item.TotalPrice()),
		})
	}
	return resp
}

func NewOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o)
	}
	return out
}

const dateLayout = "2006-01-02"

type CustomerResponse struct {
	ID              uint              `json:"id"`
	UserID          string            `json:"user_id"`
	Phone           string            `json:"phone"`
	BirthDate       string            `json:"birth_date,omitempty"`
	Membership      models.Membership `json:"membership"`
	MembershipLabel string            `json:"membership_label"`
}

func NewCustomerResponse(c models.Customer) CustomerResponse {
	resp := CustomerResponse{
		ID:              c.ID,
		UserID:          c.UserID,
		Phone:           c.Phone,
		Membership:      c.Membership,
		MembershipLabel: c.Membership.Label(),
	}
	if c.BirthDate != nil {
		resp.BirthDate = c.BirthDate.Format(dateLayout)
	}
	return resp
}

// ParseDate reads an optional YYYY-MM-DD date.
func ParseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, models.NewValidationError(field, "must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}
