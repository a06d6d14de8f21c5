// Package notify dispatches order lifecycle notifications. Events are
// published to a Kafka topic consumed by the notification service; when
// Kafka is disabled they are logged instead.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event kinds
const (
	EventOrderConfirmed  = "order.confirmed"
	EventOrderShipped    = "order.shipped"
	EventOrderDelivered  = "order.delivered"
	EventOrderCancelled  = "order.cancelled"
	EventRefundInitiated = "refund.initiated"
	EventRefundFailed    = "refund.failed"
)

// Event is one order lifecycle notification.
type Event struct {
	Kind        string    `json:"kind"`
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  uuid.UUID `json:"customerId"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher dispatches notification events. Publish failures must not
// affect order state; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
