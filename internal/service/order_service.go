package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/order"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderNumberAttempts bounds collision retries during checkout.
const orderNumberAttempts = 5

var minorUnitFactor = decimal.NewFromInt(100)

// MinorUnits converts an amount to the gateway's minor currency units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitFactor).Round(0).IntPart()
}

// orderService implements OrderService.
type orderService struct {
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	couponRepo   repository.CouponRepository
	shipmentRepo repository.ShipmentRepository
	machine      *order.Machine
	gateway      PaymentGateway
	publisher    notify.Publisher
	shipments    ShipmentService
	calc         *cart.Calculator
	checkoutCfg  config.CheckoutConfig
	logger       zerolog.Logger
}

// NewOrderService creates the order service and registers the
// post-transition hooks: lifecycle notifications and automatic shipment
// creation on entry to processing.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	shipmentRepo repository.ShipmentRepository,
	machine *order.Machine,
	gw PaymentGateway,
	publisher notify.Publisher,
	shipments ShipmentService,
	calc *cart.Calculator,
	checkoutCfg config.CheckoutConfig,
	logger zerolog.Logger,
) OrderService {
	s := &orderService{
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
		shipmentRepo: shipmentRepo,
		machine:      machine,
		gateway:      gw,
		publisher:    publisher,
		shipments:    shipments,
		calc:         calc,
		checkoutCfg:  checkoutCfg,
		logger:       logger.With().Str("service", "order").Logger(),
	}
	s.registerHooks()
	return s
}

// registerHooks wires the side-effect table. Each hook fires once per
// persisted transition; the machine logs hook failures without rolling the
// transition back.
func (s *orderService) registerHooks() {
	// Confirmation notification for the gateway path. Cash-on-delivery
	// orders are notified at creation instead.
	s.machine.OnTransition(model.StatusPending, model.StatusConfirmed, func(ctx context.Context, o *model.Order) error {
		if o.PaymentMethod != model.PaymentMethodGateway {
			return nil
		}
		return s.publish(ctx, notify.EventOrderConfirmed, o)
	})

	// Automatic shipment creation on entry to processing. When the
	// orchestrator itself drove the transition a shipment row already
	// exists and the hook no-ops.
	autoShip := func(ctx context.Context, o *model.Order) error {
		if !order.CanCreateShipment(o) {
			return nil
		}
		existing, err := s.shipmentRepo.GetByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		if _, err := s.shipments.CreateShipment(ctx, o.ID, nil); err != nil {
			// Logged and left for a manual or scheduled retry; the
			// status transition stands.
			s.logger.Error().
				Err(err).
				Str("order_number", o.OrderNumber).
				Msg("automatic shipment creation failed")
		}
		return nil
	}
	s.machine.OnTransition(model.StatusPending, model.StatusProcessing, autoShip)
	s.machine.OnTransition(model.StatusConfirmed, model.StatusProcessing, autoShip)

	for _, from := range []model.OrderStatus{model.StatusProcessing} {
		s.machine.OnTransition(from, model.StatusShipped, func(ctx context.Context, o *model.Order) error {
			return s.publish(ctx, notify.EventOrderShipped, o)
		})
	}
	s.machine.OnTransition(model.StatusShipped, model.StatusDelivered, func(ctx context.Context, o *model.Order) error {
		return s.publish(ctx, notify.EventOrderDelivered, o)
	})
	for _, from := range []model.OrderStatus{
		model.StatusPending, model.StatusConfirmed, model.StatusProcessing, model.StatusShipped,
	} {
		s.machine.OnTransition(from, model.StatusCancelled, func(ctx context.Context, o *model.Order) error {
			return s.publish(ctx, notify.EventOrderCancelled, o)
		})
	}
}

// publish dispatches one lifecycle notification.
func (s *orderService) publish(ctx context.Context, kind string, o *model.Order) error {
	return s.publisher.Publish(ctx, notify.Event{
		Kind:        kind,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		Total:       o.Total.StringFixed(2),
		OccurredAt:  time.Now(),
	})
}

// transition applies a status change, persists it, and fires its hooks.
// A same-status call still persists, so mutable fields set by the caller
// (payment status, gateway ids) are never lost.
func (s *orderService) transition(ctx context.Context, o *model.Order, to model.OrderStatus) error {
	from := o.Status
	if from == to {
		return s.orderRepo.Update(ctx, o)
	}
	if err := s.machine.Apply(o, to); err != nil {
		return err
	}
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return err
	}
	s.machine.FireHooks(ctx, from, to, o)
	return nil
}

// Checkout converts the customer's cart into an order inside one
// transaction: order row, line snapshots, coupon usage and (for cash on
// delivery) cart clearing all commit or roll back together. The gateway
// payment intent is created after commit so a slow provider can never hold
// the transaction open.
func (s *orderService) Checkout(ctx context.Context, customerID uuid.UUID, req *model.CheckoutRequest) (*model.OrderResponse, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	c, err := s.cartRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(c.Lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	lines, err := s.snapshotLines(ctx, c.Lines)
	if err != nil {
		return nil, err
	}

	subtotal := s.calc.Subtotal(c.Lines)
	tax := s.calc.TaxAmount(subtotal)
	shippingCost := decimal.Zero

	// Checkout-time coupon re-validation. An invalid or exhausted coupon
	// degrades to zero discount; checkout proceeds at full price.
	var appliedCoupon *model.Coupon
	discount := decimal.Zero
	if req.CouponCode != nil && *req.CouponCode != "" {
		appliedCoupon, err = s.couponRepo.GetByCode(ctx, *req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("failed to load coupon: %w", err)
		}
		discount = coupon.Discount(appliedCoupon, subtotal, time.Now())
		if discount.IsZero() {
			appliedCoupon = nil
		}
	}

	paymentStatus := model.PaymentAwaiting
	if req.PaymentMethod == model.PaymentMethodCashOnDelivery {
		paymentStatus = model.PaymentPending
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback checkout transaction")
			}
		}
	}()

	// The counter update is atomic and guarded by the usage limit; losing
	// the race means the last slot went to a concurrent checkout and this
	// order proceeds undiscounted.
	if appliedCoupon != nil {
		recorded, usageErr := s.couponRepo.RecordUsage(ctx, tx, appliedCoupon.ID)
		if usageErr != nil {
			err = usageErr
			return nil, fmt.Errorf("failed to record coupon usage: %w", usageErr)
		}
		if !recorded {
			s.logger.Warn().
				Str("coupon_code", appliedCoupon.Code).
				Msg("coupon usage limit reached during checkout, proceeding without discount")
			appliedCoupon = nil
			discount = decimal.Zero
		}
	}

	total := subtotal.Add(tax).Add(shippingCost).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	now := time.Now()
	o := &model.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Status:          model.StatusPending,
		PaymentStatus:   paymentStatus,
		RefundStatus:    model.RefundNone,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    shippingCost,
		Discount:        discount,
		Total:           total,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		WeightKg:        &s.checkoutCfg.DefaultWeightKg,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if appliedCoupon != nil {
		o.CouponID = &appliedCoupon.ID
	}

	if err = s.insertWithNumberRetry(ctx, tx, o, now); err != nil {
		return nil, err
	}

	for i := range lines {
		lines[i].OrderID = o.ID
	}
	if err = s.orderRepo.CreateOrderLines(ctx, tx, lines); err != nil {
		return nil, fmt.Errorf("failed to create order lines: %w", err)
	}

	// A cash-on-delivery cart is spent; a gateway cart survives until the
	// payment is confirmed so an abandoned payment leaves it intact.
	if req.PaymentMethod == model.PaymentMethodCashOnDelivery {
		if err = s.cartRepo.Clear(ctx, tx, c.ID); err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	s.logger.Info().
		Str("order_number", o.OrderNumber).
		Str("customer_id", customerID.String()).
		Str("payment_method", o.PaymentMethod).
		Str("total", o.Total.StringFixed(2)).
		Msg("order created")

	switch req.PaymentMethod {
	case model.PaymentMethodCashOnDelivery:
		if pubErr := s.publish(ctx, notify.EventOrderConfirmed, o); pubErr != nil {
			s.logger.Error().Err(pubErr).Str("order_number", o.OrderNumber).Msg("failed to dispatch order confirmation")
		}
	case model.PaymentMethodGateway:
		s.createGatewayOrder(ctx, o)
	}

	return &model.OrderResponse{
		Order:           o,
		Lines:           lines,
		DiscountApplied: appliedCoupon != nil,
	}, nil
}

// insertWithNumberRetry inserts the order, regenerating the order number on
// a unique-violation collision.
func (s *orderService) insertWithNumberRetry(ctx context.Context, tx pgx.Tx, o *model.Order, now time.Time) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := order.NewNumber(now)
		if err != nil {
			return err
		}
		o.OrderNumber = number

		err = s.orderRepo.CreateOrder(ctx, tx, o)
		if err == nil {
			return nil
		}
		if !repository.IsUniqueViolation(err) {
			return err
		}
		s.logger.Warn().
			Str("order_number", number).
			Int("attempt", attempt+1).
			Msg("order number collision, regenerating")
	}
	return &model.DomainError{
		Code:     model.ErrCodeDuplicateOrderNo,
		Category: model.CategoryConsistency,
		Message:  "could not allocate a unique order number",
	}
}

// snapshotLines freezes the cart lines into order lines, re-checking
// purchasability so a product retired since it was carted fails checkout.
func (s *orderService) snapshotLines(ctx context.Context, cartLines []model.CartLine) ([]model.OrderLine, error) {
	lines := make([]model.OrderLine, 0, len(cartLines))
	for _, cl := range cartLines {
		product, err := s.productRepo.GetByID(ctx, cl.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		if !product.Purchasable() {
			return nil, model.ErrNotPurchasable
		}

		snapshot := model.ProductSnapshot{
			Name:        product.Name,
			SKU:         product.SKU,
			Description: product.Description,
		}
		unitPrice := product.Price

		if cl.VariantID != nil {
			variant, err := s.productRepo.GetVariantByID(ctx, *cl.VariantID)
			if err != nil {
				return nil, fmt.Errorf("failed to load variant: %w", err)
			}
			if variant == nil {
				return nil, model.ErrProductNotFound
			}
			if variant.ProductID != product.ID {
				return nil, model.ErrVariantMismatch
			}
			if !variant.Purchasable() {
				return nil, model.ErrNotPurchasable
			}
			snapshot.VariantName = variant.Name
			snapshot.Attributes = variant.Attributes
			snapshot.SKU = variant.SKU
			unitPrice = variant.Price
		}

		lines = append(lines, model.OrderLine{
			ID:              uuid.New(),
			ProductID:       cl.ProductID,
			VariantID:       cl.VariantID,
			ProductSnapshot: snapshot,
			Quantity:        cl.Quantity,
			UnitPrice:       unitPrice,
			TotalPrice:      unitPrice.Mul(decimal.NewFromInt(int64(cl.Quantity))),
		})
	}
	return lines, nil
}

// createGatewayOrder requests a payment intent and stores its id on the
// order. Provider failure is logged and left for a retry; it never fails
// the committed order.
func (s *orderService) createGatewayOrder(ctx context.Context, o *model.Order) {
	gwOrder, err := s.gateway.CreateOrder(ctx, MinorUnits(o.Total), o.OrderNumber, map[string]string{
		"order_id": o.ID.String(),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_number", o.OrderNumber).
			Msg("gateway order creation failed, payment can be retried")
		return
	}

	o.GatewayOrderID = &gwOrder.ID
	if err := s.orderRepo.Update(ctx, o); err != nil {
		s.logger.Error().Err(err).Str("order_number", o.OrderNumber).Msg("failed to store gateway order id")
	}
}

// GetByID retrieves an order with its lines.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	o, lines, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return nil, nil
	}
	return &model.OrderResponse{Order: o, Lines: lines, DiscountApplied: o.CouponID != nil}, nil
}

// ListByCustomer retrieves a customer's orders, newest first.
func (s *orderService) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.ListByCustomer(ctx, customerID, limit, offset)
}

// Cancel cancels an order that is still pending or confirmed.
func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanCancel(o) {
		return nil, model.ErrNotCancellable
	}
	if err := s.transition(ctx, o, model.StatusCancelled); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus applies an admin-driven status transition.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, model.NewValidationError(model.ErrCodeInvalidStatus, fmt.Sprintf("unknown order status %q", status))
	}

	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, o, status); err != nil {
		return nil, err
	}
	return o, nil
}

// BulkUpdateStatus applies one target status to several orders. Each order
// succeeds or fails on its own.
func (s *orderService) BulkUpdateStatus(ctx context.Context, req *model.BulkStatusRequest) (*model.BulkStatusResult, error) {
	if !model.ValidOrderStatus(req.Status) {
		return nil, model.NewValidationError(model.ErrCodeInvalidStatus, fmt.Sprintf("unknown order status %q", req.Status))
	}
	if len(req.OrderIDs) == 0 {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "orderIds is required")
	}

	result := &model.BulkStatusResult{Failed: make(map[string]string)}
	for _, id := range req.OrderIDs {
		if _, err := s.UpdateStatus(ctx, id, req.Status); err != nil {
			result.Failed[id.String()] = err.Error()
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result, nil
}

// ConfirmPayment verifies the gateway callback and promotes the order to
// paid + confirmed. A signature mismatch changes nothing.
func (s *orderService) ConfirmPayment(ctx context.Context, req *model.ConfirmPaymentRequest) (*model.Order, error) {
	o, err := s.load(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.GatewayOrderID == nil || *o.GatewayOrderID != req.GatewayOrderID {
		return nil, model.ErrSignatureMismatch
	}
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.logger.Warn().
			Str("order_number", o.OrderNumber).
			Str("gateway_order_id", req.GatewayOrderID).
			Msg("payment signature verification failed")
		return nil, model.ErrSignatureMismatch
	}

	o.PaymentStatus = model.PaymentPaid
	o.GatewayPaymentID = &req.GatewayPaymentID
	if err := s.transition(ctx, o, model.StatusConfirmed); err != nil {
		return nil, err
	}

	// Payment done, the cart is spent.
	if c, cartErr := s.cartRepo.GetByCustomer(ctx, o.CustomerID); cartErr == nil {
		if clearErr := s.cartRepo.Clear(ctx, nil, c.ID); clearErr != nil {
			s.logger.Error().Err(clearErr).Str("order_number", o.OrderNumber).Msg("failed to clear cart after payment")
		}
	}

	s.logger.Info().
		Str("order_number", o.OrderNumber).
		Str("gateway_payment_id", req.GatewayPaymentID).
		Msg("payment confirmed")

	return o, nil
}

// FailPayment records a failed gateway payment. The order stays
// cancellable and payment-retryable.
func (s *orderService) FailPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != model.PaymentMethodGateway {
		return nil, model.ErrPaymentNotRetryable
	}
	// A late failure callback must not claw back a settled payment.
	if o.PaymentStatus != model.PaymentAwaiting {
		return nil, model.ErrPaymentNotRetryable
	}

	o.PaymentStatus = model.PaymentFailed
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_number", o.OrderNumber).Msg("payment marked failed")
	return o, nil
}

// RetryPayment creates a fresh payment intent for an order whose gateway
// payment is awaited or failed.
func (s *orderService) RetryPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanRetryPayment(o) {
		return nil, model.ErrPaymentNotRetryable
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, MinorUnits(o.Total), o.OrderNumber, map[string]string{
		"order_id": o.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	o.GatewayOrderID = &gwOrder.ID
	o.PaymentStatus = model.PaymentAwaiting
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// InitiateRefund starts a refund against the order's gateway payment. A
// provider failure persists refund_failed so the attempt is visible and
// retryable.
func (s *orderService) InitiateRefund(ctx context.Context, orderID uuid.UUID, req *model.RefundRequest) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanRefund(o) {
		return nil, model.ErrNotRefundable
	}
	if o.GatewayPaymentID == nil {
		return nil, model.NewPreconditionError(model.ErrCodeNotRefundable, "order has no gateway payment to refund")
	}

	amount := o.Total
	if req.Amount != nil {
		amount = *req.Amount
		if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(o.Total) {
			return nil, model.NewValidationError(model.ErrCodeMissingField, "refund amount must be positive and at most the order total")
		}
	}

	o.RefundStatus = model.RefundPending
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	refund, err := s.gateway.CreateRefund(ctx, *o.GatewayPaymentID, MinorUnits(amount))
	if err != nil {
		o.RefundStatus = model.RefundFailed
		if updateErr := s.orderRepo.Update(ctx, o); updateErr != nil {
			s.logger.Error().Err(updateErr).Str("order_number", o.OrderNumber).Msg("failed to persist refund failure")
		}
		if pubErr := s.publish(ctx, notify.EventRefundFailed, o); pubErr != nil {
			s.logger.Error().Err(pubErr).Str("order_number", o.OrderNumber).Msg("failed to dispatch refund failure notification")
		}
		return nil, err
	}

	now := time.Now()
	reason := req.Reason
	o.RefundStatus = model.RefundProcessing
	o.RefundID = &refund.ID
	o.RefundAmount = &amount
	o.RefundReason = &reason
	o.RefundedAt = &now
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if pubErr := s.publish(ctx, notify.EventRefundInitiated, o); pubErr != nil {
		s.logger.Error().Err(pubErr).Str("order_number", o.OrderNumber).Msg("failed to dispatch refund notification")
	}

	s.logger.Info().
		Str("order_number", o.OrderNumber).
		Str("refund_id", refund.ID).
		Str("amount", amount.StringFixed(2)).
		Msg("refund initiated")

	return o, nil
}

// load fetches an order or returns ErrOrderNotFound.
func (s *orderService) load(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	o, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

// validateCheckoutRequest rejects malformed requests before any side
// effect, with field-level detail.
func validateCheckoutRequest(req *model.CheckoutRequest) error {
	if req == nil {
		return model.NewValidationError(model.ErrCodeInvalidJSON, "request body is required")
	}
	if req.PaymentMethod != model.PaymentMethodGateway && req.PaymentMethod != model.PaymentMethodCashOnDelivery {
		return model.NewValidationError(model.ErrCodeMissingField, "paymentMethod must be gateway or cash_on_delivery")
	}
	return validateAddress("shippingAddress", &req.ShippingAddress)
}

// validateAddress checks the fields a carrier needs.
func validateAddress(field string, a *model.Address) error {
	required := map[string]string{
		"name":     a.Name,
		"line1":    a.Line1,
		"city":     a.City,
		"state":    a.State,
		"postcode": a.Postcode,
		"country":  a.Country,
		"phone":    a.Phone,
	}
	for name, value := range required {
		if value == "" {
			return model.NewValidationError(model.ErrCodeMissingField, fmt.Sprintf("%s.%s is required", field, name))
		}
	}
	return nil
}
