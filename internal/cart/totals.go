// Package cart holds the cart aggregate's pricing arithmetic. Persistence
// of cart lines lives in the repository; this package is pure computation.
package cart

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Calculator computes cart totals with a configured tax rate.
type Calculator struct {
	taxRate decimal.Decimal
}

// NewCalculator creates a calculator with the given tax rate (e.g. 0.10).
func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{taxRate: taxRate}
}

// Subtotal is the sum of line totals.
func (c *Calculator) Subtotal(lines []model.CartLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice())
	}
	return subtotal
}

// TaxAmount is subtotal times the tax rate, rounded to 2 decimal places.
func (c *Calculator) TaxAmount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.taxRate).Round(2)
}

// Total is subtotal plus tax.
func (c *Calculator) Total(lines []model.CartLine) decimal.Decimal {
	subtotal := c.Subtotal(lines)
	return subtotal.Add(c.TaxAmount(subtotal))
}

// TotalWithDiscount applies a discount to the taxed total, clamped at zero.
func (c *Calculator) TotalWithDiscount(lines []model.CartLine, discount decimal.Decimal) decimal.Decimal {
	total := c.Total(lines).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
