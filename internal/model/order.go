package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment axis of the order lifecycle.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the money-in axis.
type PaymentStatus string

const (
	PaymentAwaiting PaymentStatus = "awaiting_payment"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// RefundStatus is the money-out axis, independent of fulfillment.
type RefundStatus string

const (
	RefundNone       RefundStatus = "no_refund"
	RefundPending    RefundStatus = "refund_pending"
	RefundProcessing RefundStatus = "refund_processing"
	RefundCompleted  RefundStatus = "refund_completed"
	RefundFailed     RefundStatus = "refund_failed"
)

// Payment methods
const (
	PaymentMethodGateway        = "gateway"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// ValidOrderStatus reports whether s is a known fulfillment status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Address is a value snapshot copied onto the order at checkout. Later
// address-book edits never alter historical orders.
type Address struct {
	Name     string `json:"name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Order is the aggregate root created by checkout. Line items are frozen at
// creation; everything after is status transitions and metadata.
type Order struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrderNumber string     `json:"orderNumber" db:"order_number"`
	CustomerID  uuid.UUID  `json:"customerId" db:"customer_id"`
	CouponID    *uuid.UUID `json:"couponId,omitempty" db:"coupon_id"`

	Status        OrderStatus   `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus" db:"payment_status"`
	RefundStatus  RefundStatus  `json:"refundStatus" db:"refund_status"`
	PaymentMethod string        `json:"paymentMethod" db:"payment_method"`

	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax          decimal.Decimal `json:"tax" db:"tax"`
	ShippingCost decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	Discount     decimal.Decimal `json:"discount" db:"discount"`
	Total        decimal.Decimal `json:"total" db:"total"`

	ShippingAddress Address `json:"shippingAddress" db:"shipping_address"`
	BillingAddress  Address `json:"billingAddress" db:"billing_address"`

	GatewayOrderID   *string          `json:"gatewayOrderId,omitempty" db:"gateway_order_id"`
	GatewayPaymentID *string          `json:"gatewayPaymentId,omitempty" db:"gateway_payment_id"`
	RefundID         *string          `json:"refundId,omitempty" db:"refund_id"`
	RefundAmount     *decimal.Decimal `json:"refundAmount,omitempty" db:"refund_amount"`
	RefundReason     *string          `json:"refundReason,omitempty" db:"refund_reason"`
	RefundedAt       *time.Time       `json:"refundedAt,omitempty" db:"refunded_at"`

	TrackingNumber *string          `json:"trackingNumber,omitempty" db:"tracking_number"`
	WeightKg       *decimal.Decimal `json:"weightKg,omitempty" db:"weight_kg"`

	ShippedAt   *time.Time `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty" db:"delivered_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// ProductSnapshot freezes the catalogue fields an order line needs so later
// catalogue edits never rewrite order history.
type ProductSnapshot struct {
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Description string            `json:"description"`
	VariantName string            `json:"variantName,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// OrderLine is an immutable snapshot of a cart line captured at checkout.
type OrderLine struct {
	ID              uuid.UUID       `json:"-" db:"id"`
	OrderID         uuid.UUID       `json:"-" db:"order_id"`
	ProductID       uuid.UUID       `json:"productId" db:"product_id"`
	VariantID       *uuid.UUID      `json:"variantId,omitempty" db:"variant_id"`
	ProductSnapshot ProductSnapshot `json:"productSnapshot" db:"product_snapshot"`
	Quantity        int             `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice" db:"unit_price"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
}

// CheckoutRequest is the payload for POST /api/orders.
type CheckoutRequest struct {
	PaymentMethod   string   `json:"paymentMethod"`
	ShippingAddress Address  `json:"shippingAddress"`
	BillingAddress  *Address `json:"billingAddress,omitempty"`
	CouponCode      *string  `json:"couponCode,omitempty"`
}

// OrderResponse is the order view returned by checkout and reads.
type OrderResponse struct {
	Order           *Order      `json:"order"`
	Lines           []OrderLine `json:"lines"`
	DiscountApplied bool        `json:"discountApplied"`
}

// UpdateStatusRequest is the admin payload for a direct status change.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// BulkStatusRequest updates several orders to one target status.
type BulkStatusRequest struct {
	OrderIDs []uuid.UUID `json:"orderIds"`
	Status   OrderStatus `json:"status"`
}

// BulkStatusResult reports the per-order outcome of a bulk update.
type BulkStatusResult struct {
	Updated []uuid.UUID          `json:"updated"`
	Failed  map[string]string    `json:"failed,omitempty"`
}

// ConfirmPaymentRequest carries the gateway callback parameters.
type ConfirmPaymentRequest struct {
	OrderID          uuid.UUID `json:"orderId"`
	GatewayOrderID   string    `json:"gatewayOrderId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	Signature        string    `json:"signature"`
}

// RefundRequest is the admin payload to initiate a refund. A nil amount
// refunds the full order total.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason"`
}
