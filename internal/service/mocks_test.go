package service

import (
	"context"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/shipping"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderLine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	lines, _ := args.Get(1).([]model.OrderLine)
	return args.Get(0).(*model.Order), lines, args.Error(2)
}

func (m *MockOrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) UpsertLine(ctx context.Context, line *model.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockCartRepository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	args := m.Called(ctx, lineID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	args := m.Called(ctx, lineID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	args := m.Called(ctx, tx, cartID)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetVariantByID(ctx context.Context, id uuid.UUID) (*model.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Variant), args.Error(1)
}

// MockCouponRepository is a mock implementation of CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) RecordUsage(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, couponID)
	return args.Bool(0), args.Error(1)
}

// MockShipmentRepository is a mock implementation of ShipmentRepository.
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

func (m *MockShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) Update(ctx context.Context, shipment *model.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

// MockGateway is a mock implementation of PaymentGateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string, notes map[string]string) (*gateway.GatewayOrder, error) {
	args := m.Called(ctx, amountMinorUnits, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.GatewayOrder), args.Error(1)
}

func (m *MockGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	args := m.Called(gatewayOrderID, gatewayPaymentID, signature)
	return args.Bool(0)
}

func (m *MockGateway) CreateRefund(ctx context.Context, paymentID string, amountMinorUnits int64) (*gateway.Refund, error) {
	args := m.Called(ctx, paymentID, amountMinorUnits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Refund), args.Error(1)
}

// MockAggregator is a mock implementation of Aggregator.
type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) CreateOrder(ctx context.Context, payload *shipping.OrderPayload) (*shipping.CreatedOrder, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CreatedOrder), args.Error(1)
}

func (m *MockAggregator) AssignAWB(ctx context.Context, externalShipmentID string, carrierID *int) (*shipping.AWBAssignment, error) {
	args := m.Called(ctx, externalShipmentID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.AWBAssignment), args.Error(1)
}

func (m *MockAggregator) TrackShipment(ctx context.Context, awbCode string) (*shipping.TrackingResult, error) {
	args := m.Called(ctx, awbCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.TrackingResult), args.Error(1)
}

func (m *MockAggregator) CancelShipments(ctx context.Context, awbCodes []string) error {
	args := m.Called(ctx, awbCodes)
	return args.Error(0)
}

func (m *MockAggregator) GenerateLabel(ctx context.Context, externalShipmentIDs []string) (string, error) {
	args := m.Called(ctx, externalShipmentIDs)
	return args.String(0), args.Error(1)
}

func (m *MockAggregator) Serviceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKg decimal.Decimal, cod bool) ([]shipping.Rate, error) {
	args := m.Called(ctx, pickupPostcode, deliveryPostcode, weightKg, cod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Rate), args.Error(1)
}

// MockPublisher is a mock implementation of notify.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event notify.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockShipmentService is a mock implementation of ShipmentService, used
// where the order service's auto-shipment hook is under test.
type MockShipmentService struct {
	mock.Mock
}

func (m *MockShipmentService) CreateShipment(ctx context.Context, orderID uuid.UUID, carrierID *int) (*model.Shipment, error) {
	args := m.Called(ctx, orderID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockShipmentService) RefreshTracking(ctx context.Context, shipmentID uuid.UUID) (*model.Shipment, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockShipmentService) CancelShipment(ctx context.Context, shipmentID uuid.UUID) (*model.Shipment, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockShipmentService) GenerateLabel(ctx context.Context, shipmentID uuid.UUID) (string, error) {
	args := m.Called(ctx, shipmentID)
	return args.String(0), args.Error(1)
}

func (m *MockShipmentService) Serviceability(ctx context.Context, deliveryPostcode string, weightKg decimal.Decimal, cod bool) ([]shipping.Rate, error) {
	args := m.Called(ctx, deliveryPostcode, weightKg, cod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Rate), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
