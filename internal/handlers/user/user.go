package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

type Handler struct {
	store *store.Store
	log   *zap.Logger
}

func New(s *store.Store, log *zap.Logger) *Handler {
	return &Handler{store: s, log: log}
}

// customer resolves the caller's customer profile, answering the request when it cannot.
func (h *Handler) customer(c *gin.Context) (models.Principal, *models.Customer, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return models.Principal{}, nil, false
	}
	cust, err := h.store.Customers.GetCustomerByUser(c.Request.Context(), principal.UserID)
	if err != nil {
		handlers.RespondError(c, h.log, err)
		return principal, nil, false
	}
	return principal, cust, true
}
