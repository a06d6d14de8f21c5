package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount types
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is a discount code. Codes are unique case-insensitively. Coupons
// are deactivated, never deleted; usage_count only ever grows.
type Coupon struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	Code              string           `json:"code" db:"code"`
	DiscountType      string           `json:"discountType" db:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"minOrderAmount" db:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty" db:"max_discount_amount"`
	ValidFrom         *time.Time       `json:"validFrom,omitempty" db:"valid_from"`
	ValidUntil        *time.Time       `json:"validUntil,omitempty" db:"valid_until"`
	UsageLimit        int              `json:"usageLimit" db:"usage_limit"` // 0 = unlimited
	UsageCount        int              `json:"usageCount" db:"usage_count"`
	Active            bool             `json:"active" db:"active"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
}
