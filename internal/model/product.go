package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the minimal catalogue surface checkout needs: identity, price
// and purchasability. Catalogue management itself lives elsewhere.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	SKU         string          `json:"sku" db:"sku"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Active      bool            `json:"active" db:"active"`
	InStock     bool            `json:"inStock" db:"in_stock"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// Variant is a purchasable variation of a product (size, colour) with its
// own price override.
type Variant struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ProductID  uuid.UUID       `json:"productId" db:"product_id"`
	Name       string          `json:"name" db:"name"`
	SKU        string          `json:"sku" db:"sku"`
	Attributes map[string]string `json:"attributes" db:"attributes"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Active     bool            `json:"active" db:"active"`
	InStock    bool            `json:"inStock" db:"in_stock"`
}

// Purchasable reports whether the product can be added to a cart or survive
// checkout validation.
func (p *Product) Purchasable() bool {
	return p.Active && p.InStock
}

// Purchasable reports whether the variant can be sold.
func (v *Variant) Purchasable() bool {
	return v.Active && v.InStock
}

// UnitPrice returns the effective price for a (product, optional variant)
// pair: the variant price wins when a variant is present.
func UnitPrice(p *Product, v *Variant) decimal.Decimal {
	if v != nil {
		return v.Price
	}
	return p.Price
}
