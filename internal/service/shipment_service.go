package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/order"
	"storefront/internal/repository"
	"storefront/internal/shipping"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// shipmentService implements ShipmentService.
type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	orderRepo    repository.OrderRepository
	machine      *order.Machine
	aggregator   Aggregator
	archiver     shipping.LabelArchiver
	checkoutCfg  config.CheckoutConfig
	logger       zerolog.Logger
}

// NewShipmentService creates the shipment orchestrator. archiver may be nil;
// labels are then served from the aggregator URL only.
func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	orderRepo repository.OrderRepository,
	machine *order.Machine,
	aggregator Aggregator,
	archiver shipping.LabelArchiver,
	checkoutCfg config.CheckoutConfig,
	logger zerolog.Logger,
) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		machine:      machine,
		aggregator:   aggregator,
		archiver:     archiver,
		checkoutCfg:  checkoutCfg,
		logger:       logger.With().Str("service", "shipment").Logger(),
	}
}

// CreateShipment registers the order with the aggregator, obtains an AWB
// and persists the shipment. The remote calls happen before any row is
// written, so a provider failure leaves nothing to clean up; the unique
// order_id constraint is the backstop against a concurrent duplicate.
func (s *shipmentService) CreateShipment(ctx context.Context, orderID uuid.UUID, carrierID *int) (*model.Shipment, error) {
	o, lines, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return nil, model.ErrOrderNotFound
	}
	if !order.CanCreateShipment(o) {
		return nil, model.ErrShipmentNotReady
	}

	existing, err := s.shipmentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing shipment: %w", err)
	}
	if existing != nil {
		return nil, model.ErrShipmentExists
	}

	created, err := s.aggregator.CreateOrder(ctx, s.buildPayload(o, lines))
	if err != nil {
		return nil, err
	}

	awb, err := s.aggregator.AssignAWB(ctx, created.ExternalShipmentID.String(), carrierID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	shipment := &model.Shipment{
		ID:                 uuid.New(),
		OrderID:            o.ID,
		ExternalOrderID:    created.ExternalOrderID.String(),
		ExternalShipmentID: created.ExternalShipmentID.String(),
		AWBCode:            awb.AWBCode,
		CarrierID:          &awb.CarrierID,
		CarrierName:        awb.CarrierName,
		Status:             created.Status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if awb.TrackingURL != "" {
		shipment.TrackingURL = &awb.TrackingURL
	}
	if awb.LabelURL != "" {
		shipment.LabelURL = &awb.LabelURL
	}

	if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
		return nil, err
	}

	o.TrackingNumber = &shipment.AWBCode
	if err := s.driveOrder(ctx, o, model.StatusProcessing); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_number", o.OrderNumber).
		Str("awb_code", shipment.AWBCode).
		Str("carrier", shipment.CarrierName).
		Msg("shipment created")

	return shipment, nil
}

// RefreshTracking polls the carrier and reconciles the shipment and order
// statuses. Unknown carrier statuses and transitions the order cannot make
// are recorded on the shipment but leave the order untouched.
func (s *shipmentService) RefreshTracking(ctx context.Context, shipmentID uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	if shipment == nil {
		return nil, model.ErrShipmentNotFound
	}

	tracking, err := s.aggregator.TrackShipment(ctx, shipment.AWBCode)
	if err != nil {
		return nil, err
	}

	shipment.Status = tracking.Status
	shipment.RawStatus = tracking.Raw
	shipment.UpdatedAt = time.Now()
	if err := s.shipmentRepo.Update(ctx, shipment); err != nil {
		return nil, fmt.Errorf("failed to update shipment: %w", err)
	}

	s.syncOrderStatus(ctx, shipment, tracking.Status)
	return shipment, nil
}

// syncOrderStatus maps a carrier status onto the order's state machine.
// Re-polls of an unchanged status and regressions the machine rejects are
// both no-ops, so the refresh is safe to call on a schedule.
func (s *shipmentService) syncOrderStatus(ctx context.Context, shipment *model.Shipment, carrierStatus string) {
	target, ok := order.MapCarrierStatus(carrierStatus)
	if !ok {
		s.logger.Debug().
			Str("awb_code", shipment.AWBCode).
			Str("carrier_status", carrierStatus).
			Msg("carrier status has no order mapping")
		return
	}

	o, _, err := s.orderRepo.GetByID(ctx, shipment.OrderID)
	if err != nil || o == nil {
		s.logger.Error().Err(err).Str("awb_code", shipment.AWBCode).Msg("failed to load order for tracking sync")
		return
	}
	if o.Status == target {
		return
	}
	if !s.machine.CanTransition(o.Status, target) {
		s.logger.Warn().
			Str("order_number", o.OrderNumber).
			Str("from", string(o.Status)).
			Str("to", string(target)).
			Str("carrier_status", carrierStatus).
			Msg("carrier status maps to an invalid transition, skipping")
		return
	}
	if err := s.driveOrder(ctx, o, target); err != nil {
		s.logger.Error().Err(err).Str("order_number", o.OrderNumber).Msg("failed to sync order status from tracking")
	}
}

// CancelShipment cancels the shipment at the aggregator, marks the local
// row and cancels the order. The row is never deleted.
func (s *shipmentService) CancelShipment(ctx context.Context, shipmentID uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	if shipment == nil {
		return nil, model.ErrShipmentNotFound
	}

	if err := s.aggregator.CancelShipments(ctx, []string{shipment.AWBCode}); err != nil {
		return nil, err
	}

	shipment.Status = "Canceled"
	shipment.UpdatedAt = time.Now()
	if err := s.shipmentRepo.Update(ctx, shipment); err != nil {
		return nil, fmt.Errorf("failed to update shipment: %w", err)
	}

	o, _, err := s.orderRepo.GetByID(ctx, shipment.OrderID)
	if err != nil || o == nil {
		s.logger.Error().Err(err).Str("awb_code", shipment.AWBCode).Msg("failed to load order for shipment cancellation")
		return shipment, nil
	}
	if o.Status != model.StatusCancelled {
		if err := s.driveOrder(ctx, o, model.StatusCancelled); err != nil {
			s.logger.Error().Err(err).Str("order_number", o.OrderNumber).Msg("failed to cancel order after shipment cancellation")
		}
	}

	s.logger.Info().Str("awb_code", shipment.AWBCode).Msg("shipment cancelled")
	return shipment, nil
}

// GenerateLabel returns the shipment's label URL, requesting one from the
// aggregator on first call and archiving a durable copy when an archiver
// is configured. Subsequent calls return the stored URL.
func (s *shipmentService) GenerateLabel(ctx context.Context, shipmentID uuid.UUID) (string, error) {
	shipment, err := s.shipmentRepo.GetByID(ctx, shipmentID)
	if err != nil {
		return "", fmt.Errorf("failed to get shipment: %w", err)
	}
	if shipment == nil {
		return "", model.ErrShipmentNotFound
	}

	if shipment.ArchivedLabelURL != nil {
		return *shipment.ArchivedLabelURL, nil
	}
	if shipment.LabelURL != nil {
		return s.archiveLabel(ctx, shipment, *shipment.LabelURL), nil
	}

	labelURL, err := s.aggregator.GenerateLabel(ctx, []string{shipment.ExternalShipmentID})
	if err != nil {
		return "", err
	}

	shipment.LabelURL = &labelURL
	url := s.archiveLabel(ctx, shipment, labelURL)
	return url, nil
}

// archiveLabel stores a durable copy of the label and persists whichever
// URLs it ends up with. Archive failure falls back to the carrier URL.
func (s *shipmentService) archiveLabel(ctx context.Context, shipment *model.Shipment, labelURL string) string {
	url := labelURL
	if s.archiver != nil {
		key := fmt.Sprintf("labels/%s/%s.pdf", shipment.CreatedAt.Format("2006/01"), shipment.AWBCode)
		archived, err := s.archiver.Archive(ctx, labelURL, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("awb_code", shipment.AWBCode).Msg("label archive failed, serving carrier URL")
		} else {
			shipment.ArchivedLabelURL = &archived
			url = archived
		}
	}

	shipment.UpdatedAt = time.Now()
	if err := s.shipmentRepo.Update(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Str("awb_code", shipment.AWBCode).Msg("failed to store label URL")
	}
	return url
}

// Serviceability returns carrier quotes from the configured pickup
// postcode to the delivery postcode.
func (s *shipmentService) Serviceability(ctx context.Context, deliveryPostcode string, weightKg decimal.Decimal, cod bool) ([]shipping.Rate, error) {
	if deliveryPostcode == "" {
		return nil, model.NewValidationError(model.ErrCodeMissingField, "deliveryPostcode is required")
	}
	if weightKg.IsZero() || weightKg.IsNegative() {
		weightKg = s.checkoutCfg.DefaultWeightKg
	}
	return s.aggregator.Serviceability(ctx, s.checkoutCfg.PickupPostcode, deliveryPostcode, weightKg, cod)
}

// driveOrder applies a machine transition, persists the order and fires
// the transition's hooks.
func (s *shipmentService) driveOrder(ctx context.Context, o *model.Order, to model.OrderStatus) error {
	from := o.Status
	if from == to {
		if err := s.orderRepo.Update(ctx, o); err != nil {
			return err
		}
		return nil
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

// buildPayload shapes an order into the aggregator's creation payload.
func (s *shipmentService) buildPayload(o *model.Order, lines []model.OrderLine) *shipping.OrderPayload {
	items := make([]shipping.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, shipping.OrderItem{
			Name:  line.ProductSnapshot.Name,
			SKU:   line.ProductSnapshot.SKU,
			Units: line.Quantity,
			Price: line.UnitPrice.StringFixed(2),
		})
	}

	method := "Prepaid"
	if o.PaymentMethod == model.PaymentMethodCashOnDelivery {
		method = "COD"
	}

	weight := s.checkoutCfg.DefaultWeightKg
	if o.WeightKg != nil && o.WeightKg.IsPositive() {
		weight = *o.WeightKg
	}

	addr := o.ShippingAddress
	return &shipping.OrderPayload{
		OrderNumber:       o.OrderNumber,
		OrderDate:         o.CreatedAt.Format("2006-01-02 15:04"),
		PickupPostcode:    s.checkoutCfg.PickupPostcode,
		BillingName:       addr.Name,
		BillingAddress:    addr.Line1,
		BillingCity:       addr.City,
		BillingState:      addr.State,
		BillingPostcode:   addr.Postcode,
		BillingCountry:    addr.Country,
		BillingEmail:      addr.Email,
		BillingPhone:      addr.Phone,
		ShippingIsBilling: true,
		Items:             items,
		PaymentMethod:     method,
		SubTotal:          o.Subtotal.StringFixed(2),
		WeightKg:          weight.String(),
	}
}
