// Package pricing holds the pure price computations shared by the catalog and order engines.
package pricing

import (
	"github.com/shopspring/decimal"
)

// taxRate is the fixed sales tax applied on top of the unit price.
var taxRate = decimal.RequireFromString("0.10")

var taxMultiplier = decimal.NewFromInt(1).Add(taxRate)

// PriceWithTax returns price * 1.10 rounded to cents.
func PriceWithTax(price decimal.Decimal) decimal.Decimal {
	return price.Mul(taxMultiplier).Round(2)
}

// LineTotal is quantity times unit price.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
