package coupon

import (
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func baseCoupon() *model.Coupon {
	return &model.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: dec("10"),
		Active:        true,
	}
}

func TestIsValidFor(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		mutate func(c *model.Coupon)
		amount string
		valid  bool
	}{
		{name: "active coupon with no constraints", mutate: func(c *model.Coupon) {}, amount: "50.00", valid: true},
		{name: "inactive", mutate: func(c *model.Coupon) { c.Active = false }, amount: "50.00", valid: false},
		{name: "not yet valid", mutate: func(c *model.Coupon) { c.ValidFrom = &future }, amount: "50.00", valid: false},
		{name: "expired", mutate: func(c *model.Coupon) { c.ValidUntil = &past }, amount: "50.00", valid: false},
		{name: "inside window", mutate: func(c *model.Coupon) { c.ValidFrom = &past; c.ValidUntil = &future }, amount: "50.00", valid: true},
		{name: "usage limit reached", mutate: func(c *model.Coupon) { c.UsageLimit = 5; c.UsageCount = 5 }, amount: "50.00", valid: false},
		{name: "usage below limit", mutate: func(c *model.Coupon) { c.UsageLimit = 5; c.UsageCount = 4 }, amount: "50.00", valid: true},
		{name: "zero limit means unlimited", mutate: func(c *model.Coupon) { c.UsageLimit = 0; c.UsageCount = 1000 }, amount: "50.00", valid: true},
		{name: "below minimum order amount", mutate: func(c *model.Coupon) { c.MinOrderAmount = dec("100") }, amount: "99.99", valid: false},
		{name: "exactly minimum order amount", mutate: func(c *model.Coupon) { c.MinOrderAmount = dec("100") }, amount: "100.00", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			tt.mutate(c)
			assert.Equal(t, tt.valid, IsValidFor(c, dec(tt.amount), now))
		})
	}
}

func TestIsValidFor_NilCoupon(t *testing.T) {
	assert.False(t, IsValidFor(nil, dec("50.00"), time.Now()))
}

func TestDiscount_Percentage(t *testing.T) {
	c := baseCoupon()
	got := Discount(c, dec("200.00"), time.Now())
	assert.Equal(t, "20.00", got.StringFixed(2))
}

func TestDiscount_PercentageRounding(t *testing.T) {
	c := baseCoupon()
	c.DiscountValue = dec("7.5")

	// 33.33 * 7.5% = 2.49975, rounds to 2.50
	got := Discount(c, dec("33.33"), time.Now())
	assert.Equal(t, "2.50", got.StringFixed(2))
}

func TestDiscount_PercentageCappedByMax(t *testing.T) {
	c := baseCoupon()
	c.MaxDiscountAmount = decPtr("15.00")

	got := Discount(c, dec("500.00"), time.Now())
	assert.Equal(t, "15.00", got.StringFixed(2))
}

func TestDiscount_FixedCappedByMax(t *testing.T) {
	// A 15-off coupon capped at 10 discounts a 100 order by exactly 10.
	c := baseCoupon()
	c.DiscountType = model.DiscountFixed
	c.DiscountValue = dec("15.00")
	c.MaxDiscountAmount = decPtr("10.00")

	got := Discount(c, dec("100.00"), time.Now())
	assert.Equal(t, "10.00", got.StringFixed(2))
}

func TestDiscount_FixedNeverExceedsOrderAmount(t *testing.T) {
	c := baseCoupon()
	c.DiscountType = model.DiscountFixed
	c.DiscountValue = dec("50.00")

	got := Discount(c, dec("30.00"), time.Now())
	assert.Equal(t, "30.00", got.StringFixed(2))
}

func TestDiscount_InvalidCouponYieldsZero(t *testing.T) {
	c := baseCoupon()
	c.Active = false
	assert.True(t, Discount(c, dec("100.00"), time.Now()).IsZero())
}

func TestDiscount_UnknownTypeYieldsZero(t *testing.T) {
	c := baseCoupon()
	c.DiscountType = "bogus"
	assert.True(t, Discount(c, dec("100.00"), time.Now()).IsZero())
}
