package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
)

// RespondError writes the status matching the domain error and records err on the context.
func RespondError(c *gin.Context, log *zap.Logger, err error) {
	_ = c.Error(err)

	var (
		validation   *models.ValidationError
		emptyCart    *models.EmptyCartError
		insufficient *models.InsufficientInventoryError
		integrity    *models.ReferentialIntegrityError
		permission   *models.PermissionError
		notFound     *models.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": validation.Field})
	case errors.As(err, &emptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "cart_id": emptyCart.CartID})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"product_id": insufficient.ProductID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
	case errors.As(err, &integrity):
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"dependents": integrity.Dependents,
			"count":      integrity.Count,
		})
	case errors.As(err, &permission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "required_capability": permission.Capability})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error("request failed", zap.String("method", c.Request.Method), zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// BadRequest answers 400 for malformed input that never reached the store.
func BadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// ParseID reads a positive integer path parameter, answering 400 when it is malformed.
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, models.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// QueryID reads an optional positive integer query parameter.
func QueryID(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, models.NewValidationError(name, "must be a positive integer")
	}
	v := uint(id)
	return &v, nil
}
