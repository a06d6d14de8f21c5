package service

import (
	"context"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/shipping"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService defines cart operations.
type CartService interface {
	// GetCart retrieves the customer's cart with computed totals.
	GetCart(ctx context.Context, customerID uuid.UUID) (*model.CartResponse, error)

	// AddItem adds a product (optionally a variant) to the cart, merging
	// into an existing line for the same pair.
	AddItem(ctx context.Context, customerID uuid.UUID, req *model.AddCartItemRequest) (*model.CartResponse, error)

	// UpdateItem sets a line's quantity; zero or less removes the line.
	UpdateItem(ctx context.Context, customerID, lineID uuid.UUID, quantity int) (*model.CartResponse, error)

	// RemoveItem removes a line.
	RemoveItem(ctx context.Context, customerID, lineID uuid.UUID) (*model.CartResponse, error)

	// Clear removes all lines; the cart row persists.
	Clear(ctx context.Context, customerID uuid.UUID) error
}

// OrderService defines the order lifecycle operations.
type OrderService interface {
	// Checkout converts the customer's cart into an order.
	Checkout(ctx context.Context, customerID uuid.UUID, req *model.CheckoutRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// ListByCustomer retrieves a customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Order, error)

	// Cancel cancels an order while it is still pending or confirmed.
	Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// UpdateStatus applies an admin-driven status transition.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// BulkUpdateStatus applies one target status to several orders,
	// reporting per-order outcomes.
	BulkUpdateStatus(ctx context.Context, req *model.BulkStatusRequest) (*model.BulkStatusResult, error)

	// ConfirmPayment verifies the gateway callback signature and, on
	// success, marks the order paid and confirmed.
	ConfirmPayment(ctx context.Context, req *model.ConfirmPaymentRequest) (*model.Order, error)

	// FailPayment records a failed gateway payment; the order remains
	// cancellable and payment-retryable.
	FailPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// RetryPayment creates a fresh payment intent for a gateway order
	// whose payment is awaited or failed.
	RetryPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// InitiateRefund starts a refund against the order's gateway payment.
	InitiateRefund(ctx context.Context, orderID uuid.UUID, req *model.RefundRequest) (*model.Order, error)
}

// ShipmentService orchestrates fulfillment against the shipping aggregator.
type ShipmentService interface {
	// CreateShipment registers the order with the aggregator, obtains an
	// AWB and persists the shipment. At most one shipment per order.
	CreateShipment(ctx context.Context, orderID uuid.UUID, carrierID *int) (*model.Shipment, error)

	// RefreshTracking polls the carrier and reconciles the order status.
	RefreshTracking(ctx context.Context, shipmentID uuid.UUID) (*model.Shipment, error)

	// CancelShipment cancels the shipment remotely and locally, and
	// cancels the order.
	CancelShipment(ctx context.Context, shipmentID uuid.UUID) (*model.Shipment, error)

	// GenerateLabel returns the label URL, requesting one on first call.
	GenerateLabel(ctx context.Context, shipmentID uuid.UUID) (string, error)

	// Serviceability returns carrier quotes for a delivery postcode.
	Serviceability(ctx context.Context, deliveryPostcode string, weightKg decimal.Decimal, cod bool) ([]shipping.Rate, error)
}

// PaymentGateway is the slice of the gateway client the order service uses.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string, notes map[string]string) (*gateway.GatewayOrder, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	CreateRefund(ctx context.Context, paymentID string, amountMinorUnits int64) (*gateway.Refund, error)
}

// Aggregator is the slice of the shipping client the shipment service uses.
type Aggregator interface {
	CreateOrder(ctx context.Context, payload *shipping.OrderPayload) (*shipping.CreatedOrder, error)
	AssignAWB(ctx context.Context, externalShipmentID string, carrierID *int) (*shipping.AWBAssignment, error)
	TrackShipment(ctx context.Context, awbCode string) (*shipping.TrackingResult, error)
	CancelShipments(ctx context.Context, awbCodes []string) error
	GenerateLabel(ctx context.Context, externalShipmentIDs []string) (string, error)
	Serviceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKg decimal.Decimal, cod bool) ([]shipping.Rate, error)
}
