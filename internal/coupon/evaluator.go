// Package coupon evaluates discount codes against their time window, usage
// cap and minimum order amount. Usage counting is done by the repository
// with an atomic guarded update; this package is pure.
package coupon

import (
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// IsValidFor reports whether the coupon may discount an order of the given
// amount at time now.
func IsValidFor(c *model.Coupon, orderAmount decimal.Decimal, now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return false
	}
	return orderAmount.GreaterThanOrEqual(c.MinOrderAmount)
}

// Discount computes the discount for an order of the given amount. An
// invalid coupon yields zero. Percentage discounts are rounded to 2 places;
// the result is capped at MaxDiscountAmount when set and never exceeds the
// order amount.
func Discount(c *model.Coupon, orderAmount decimal.Decimal, now time.Time) decimal.Decimal {
	if !IsValidFor(c, orderAmount, now) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercentage:
		discount = orderAmount.Mul(c.DiscountValue).Div(oneHundred).Round(2)
	case model.DiscountFixed:
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}

	if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
		discount = *c.MaxDiscountAmount
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	return discount
}
