package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository is the purchasability surface of the catalogue.
type ProductRepository interface {
	// GetByID retrieves a product; returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetVariantByID retrieves a variant; returns nil when not found.
	GetVariantByID(ctx context.Context, id uuid.UUID) (*model.Variant, error)
}

// CartRepository persists cart rows and cart lines.
type CartRepository interface {
	// GetByCustomer retrieves the customer's cart with lines and current
	// unit prices, creating the cart row on first touch.
	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Cart, error)

	// UpsertLine inserts a cart line or, when a line for the same
	// (product, variant) pair exists, adds to its quantity.
	UpsertLine(ctx context.Context, line *model.CartLine) error

	// UpdateLineQuantity sets a line's quantity.
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error

	// DeleteLine removes a single cart line.
	DeleteLine(ctx context.Context, lineID uuid.UUID) error

	// Clear removes all lines; the cart row persists. When tx is non-nil
	// the delete joins the caller's transaction.
	Clear(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error
}

// CouponRepository persists coupons and their usage counter.
type CouponRepository interface {
	// GetByCode retrieves a coupon by code, case-insensitively; returns
	// nil when not found.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// RecordUsage atomically increments usage_count inside tx, guarded by
	// the usage limit. Returns false when the cap was already reached.
	RecordUsage(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error)
}

// OrderRepository persists orders and order lines.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts order lines within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines; nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderLine, error)

	// ListByCustomer retrieves a customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Order, error)

	// Update persists the order's mutable fields (statuses, gateway ids,
	// refund details, tracking number, timestamps).
	Update(ctx context.Context, order *model.Order) error
}

// ShipmentRepository persists shipment rows, 1:1 with orders.
type ShipmentRepository interface {
	// Create inserts a shipment. Returns model.ErrShipmentExists when the
	// order already has one.
	Create(ctx context.Context, shipment *model.Shipment) error

	// GetByID retrieves a shipment; nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error)

	// GetByOrderID retrieves the shipment for an order; nil when none.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Shipment, error)

	// Update persists the shipment's mutable fields (status, URLs, raw
	// payload).
	Update(ctx context.Context, shipment *model.Shipment) error
}
