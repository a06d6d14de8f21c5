// Package order governs the order lifecycle: the three status axes, their
// allowed transitions, the guard functions that gate admin/customer actions,
// and the post-transition hooks that carry side effects.
package order

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// transitionKey identifies one edge of the fulfillment status graph.
type transitionKey struct {
	From model.OrderStatus
	To   model.OrderStatus
}

// allowedTransitions is the full fulfillment-status graph. Delivered and
// cancelled are terminal.
var allowedTransitions = map[transitionKey]bool{
	{model.StatusPending, model.StatusConfirmed}:    true,
	{model.StatusPending, model.StatusCancelled}:    true,
	{model.StatusPending, model.StatusProcessing}:   true, // COD orders skip confirmation
	{model.StatusConfirmed, model.StatusProcessing}: true,
	{model.StatusConfirmed, model.StatusCancelled}:  true,
	{model.StatusProcessing, model.StatusShipped}:   true,
	{model.StatusProcessing, model.StatusCancelled}: true, // carrier RTO / remote cancellation only
	{model.StatusShipped, model.StatusDelivered}:    true,
	{model.StatusShipped, model.StatusCancelled}:    true, // carrier RTO
}

// Hook runs after a transition has been applied and persisted. Hook errors
// are logged by the machine and never roll back the transition.
type Hook func(ctx context.Context, o *model.Order) error

// Machine validates and applies status transitions and fires the hooks
// registered for each (from, to) edge.
type Machine struct {
	hooks  map[transitionKey][]Hook
	logger zerolog.Logger
}

// NewMachine creates a state machine with no hooks registered.
func NewMachine(logger zerolog.Logger) *Machine {
	return &Machine{
		hooks:  make(map[transitionKey][]Hook),
		logger: logger.With().Str("component", "order-state-machine").Logger(),
	}
}

// OnTransition registers a hook for the (from, to) edge.
func (m *Machine) OnTransition(from, to model.OrderStatus, hook Hook) {
	key := transitionKey{From: from, To: to}
	m.hooks[key] = append(m.hooks[key], hook)
}

// CanTransition reports whether moving from one fulfillment status to
// another is permitted.
func (m *Machine) CanTransition(from, to model.OrderStatus) bool {
	return allowedTransitions[transitionKey{From: from, To: to}]
}

// Apply mutates the order's fulfillment status in memory, stamping
// shipped_at/delivered_at exactly once. It does not persist and does not
// fire hooks; callers persist the order and then call FireHooks. Applying
// the current status is a no-op so reconciliation can be re-run safely.
func (m *Machine) Apply(o *model.Order, to model.OrderStatus) error {
	if o.Status == to {
		return nil
	}
	if !m.CanTransition(o.Status, to) {
		return model.NewPreconditionError(
			model.ErrCodeInvalidTransition,
			fmt.Sprintf("cannot transition order from %s to %s", o.Status, to),
		)
	}

	now := time.Now()
	switch to {
	case model.StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case model.StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	}

	o.Status = to
	o.UpdatedAt = now
	return nil
}

// FireHooks runs the hooks registered for the (from, to) edge. Each hook
// fires once per transition; failures are logged with order context.
func (m *Machine) FireHooks(ctx context.Context, from, to model.OrderStatus, o *model.Order) {
	for _, hook := range m.hooks[transitionKey{From: from, To: to}] {
		if err := hook(ctx, o); err != nil {
			m.logger.Error().
				Err(err).
				Str("order_number", o.OrderNumber).
				Str("from", string(from)).
				Str("to", string(to)).
				Msg("post-transition hook failed")
		}
	}
}

// CanCancel reports whether the customer may still cancel the order.
func CanCancel(o *model.Order) bool {
	return o.Status == model.StatusPending || o.Status == model.StatusConfirmed
}

// CanRefund reports whether a refund may be initiated or retried.
func CanRefund(o *model.Order) bool {
	if o.PaymentStatus != model.PaymentPaid {
		return false
	}
	if o.Status == model.StatusCancelled {
		return false
	}
	return o.RefundStatus == model.RefundNone || o.RefundStatus == model.RefundFailed
}

// PaymentEligible reports whether the order is settled enough to fulfil:
// paid, or cash on delivery.
func PaymentEligible(o *model.Order) bool {
	return o.PaymentStatus == model.PaymentPaid || o.PaymentMethod == model.PaymentMethodCashOnDelivery
}

// CanCreateShipment reports whether a shipment may be created for the order.
// The absence of an existing shipment row is checked by the orchestrator.
func CanCreateShipment(o *model.Order) bool {
	if !PaymentEligible(o) {
		return false
	}
	return o.Status == model.StatusConfirmed || o.Status == model.StatusProcessing
}

// CanRetryPayment reports whether the customer may retry a gateway payment.
func CanRetryPayment(o *model.Order) bool {
	if o.PaymentMethod != model.PaymentMethodGateway {
		return false
	}
	if o.Status == model.StatusCancelled {
		return false
	}
	return o.PaymentStatus == model.PaymentAwaiting || o.PaymentStatus == model.PaymentFailed
}
