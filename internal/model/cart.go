package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart holds a customer's pending purchase. One active cart per customer;
// the row is never deleted, only cleared.
type Cart struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	CustomerID uuid.UUID  `json:"customerId" db:"customer_id"`
	Lines      []CartLine `json:"lines"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// CartLine is one (product, optional variant, quantity) entry. At most one
// line per (product, variant) pair.
type CartLine struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CartID    uuid.UUID  `json:"-" db:"cart_id"`
	ProductID uuid.UUID  `json:"productId" db:"product_id"`
	VariantID *uuid.UUID `json:"variantId,omitempty" db:"variant_id"`
	Quantity  int        `json:"quantity" db:"quantity"`

	// UnitPrice is the current effective price, resolved at read time from
	// the catalogue; it is not stored on the line.
	UnitPrice decimal.Decimal `json:"unitPrice" db:"-"`
}

// TotalPrice is quantity times the effective unit price.
func (l *CartLine) TotalPrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Matches reports whether the line refers to the same (product, variant)
// pair; variants compare by value, both-absent counts as a match.
func (l *CartLine) Matches(productID uuid.UUID, variantID *uuid.UUID) bool {
	if l.ProductID != productID {
		return false
	}
	if l.VariantID == nil || variantID == nil {
		return l.VariantID == nil && variantID == nil
	}
	return *l.VariantID == *variantID
}

// AddCartItemRequest is the payload for POST /api/cart/items.
type AddCartItemRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

// UpdateCartItemRequest is the payload for PUT /api/cart/items/{id}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the cart view returned to the storefront, with computed
// totals.
type CartResponse struct {
	Cart     *Cart           `json:"cart"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}
