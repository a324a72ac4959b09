package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/handlers/admin"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/user"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

// Deps carries everything the routes need. Cache and AuditReader may be nil.
type Deps struct {
	Store       *store.Store
	Cache       DetailCache
	Verifier    middleware.TokenVerifier
	Auditor     utils.Auditor
	AuditReader utils.AuditReader
	Log         *zap.Logger

	CORSOrigins       []string
	CheckoutRateLimit int
	RateLimitWindow   time.Duration
}

// DetailCache is the product cache plus the rate-limit counter, both backed by Redis.
type DetailCache interface {
	product.DetailCache
	middleware.RateCounter
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Cache == nil {
		d.Cache = cache.New(nil, 0, d.Log)
	}
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	products := product.New(d.Store.Catalog, d.Cache, d.Log)
	users := user.New(d.Store, d.Log)
	staff := admin.New(d.Store, d.AuditReader, d.Log)

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.AuditCriticalActions(d.Auditor, action, resource, d.Log)
	}

	api := r.Group("/api")

	// Public catalog
	api.GET("/products", products.ListProducts)
	api.GET("/products/search", products.SearchProducts)
	api.GET("/products/:id", products.GetProduct)
	api.GET("/products/:id/reviews", products.ListReviews)
	api.POST("/products/:id/reviews", products.AddReview)
	api.GET("/collections", products.ListCollections)
	api.GET("/collections/:id", products.GetCollection)
	api.GET("/promotions", products.ListPromotions)

	// Anonymous carts
	carts := api.Group("/carts")
	{
		carts.POST("", users.CreateCart)
		carts.GET("/:id", users.GetCart)
		carts.DELETE("/:id", users.DeleteCart)
		carts.POST("/:id/items", users.AddItem)
		carts.PATCH("/:id/items/:product_id", users.SetQuantity)
		carts.DELETE("/:id/items/:product_id", users.RemoveItem)
	}

	auth := api.Group("")
	auth.Use(middleware.AuthRequired(d.Verifier, d.Log))
	{
		auth.POST("/customers/me", users.Register)
		auth.GET("/customers/me", users.Me)
		auth.GET("/customers/me/addresses", users.ListAddresses)
		auth.POST("/customers/me/addresses", users.AddAddress)
		auth.DELETE("/customers/me/addresses/:id", users.DeleteAddress)
		auth.GET("/customers/:id/orders", users.CustomerOrders)

		auth.POST("/orders",
			middleware.RateLimit(d.Cache, "checkout", d.CheckoutRateLimit, d.RateLimitWindow, d.Log),
			audit(utils.ActionOrderCreate, utils.ResourceOrder),
			users.Checkout)
		auth.GET("/orders", users.MyOrders)
		auth.GET("/orders/:id", users.GetOrder)
		auth.POST("/orders/:id/cancel",
			middleware.RequireCapability(models.CapCancelOrder, d.Log),
			audit(utils.ActionOrderCancel, utils.ResourceOrder),
			users.CancelOrder)
	}

	adm := api.Group("/admin")
	adm.Use(middleware.AuthRequired(d.Verifier, d.Log), middleware.RequireStaff)
	{
		adm.POST("/collections", products.CreateCollection)
		adm.PUT("/collections/:id/featured", products.SetFeaturedProduct)
		adm.DELETE("/collections/:id", audit(utils.ActionCollectionDelete, utils.ResourceCollection), products.DeleteCollection)

		adm.POST("/products", audit(utils.ActionProductCreate, utils.ResourceProduct), products.CreateProduct)
		adm.PATCH("/products/:id/price", audit(utils.ActionProductPriceChange, utils.ResourceProduct), products.UpdatePrice)
		adm.PUT("/products/:id/inventory", audit(utils.ActionStockUpdate, utils.ResourceInventory), products.SetInventory)
		adm.GET("/products/:id/movements", products.StockMovements)
		adm.DELETE("/products/:id", audit(utils.ActionProductDelete, utils.ResourceProduct), products.DeleteProduct)
		adm.POST("/products/:id/promotions/:promotion_id", products.AttachPromotion)
		adm.DELETE("/products/:id/promotions/:promotion_id", products.DetachPromotion)
		adm.POST("/promotions", products.CreatePromotion)

		adm.POST("/inventory/clear", audit(utils.ActionStockClear, utils.ResourceInventory), products.ClearInventory)
		adm.GET("/inventory/stats", products.InventoryStats)

		adm.GET("/orders", staff.ListOrders)
		adm.PATCH("/orders/:id/payment", audit(utils.ActionOrderPayment, utils.ResourceOrder), staff.UpdatePaymentStatus)
		adm.DELETE("/orders/:id", audit(utils.ActionOrderDelete, utils.ResourceOrder), staff.DeleteOrder)

		adm.GET("/customers", staff.ListCustomers)
		adm.GET("/customers/:id", staff.GetCustomer)
		adm.PATCH("/customers/:id/membership", audit(utils.ActionCustomerMembership, utils.ResourceCustomer), staff.UpdateMembership)
		adm.DELETE("/customers/:id", audit(utils.ActionCustomerDelete, utils.ResourceCustomer), staff.DeleteCustomer)

		adm.GET("/audit", staff.GetAuditLogs)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
