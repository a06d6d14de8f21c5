package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, customerID uuid.UUID, req *model.CheckoutRequest) (*model.OrderResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) BulkUpdateStatus(ctx context.Context, req *model.BulkStatusRequest) (*model.BulkStatusResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BulkStatusResult), args.Error(1)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, req *model.ConfirmPaymentRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) FailPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) RetryPayment(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) InitiateRefund(ctx context.Context, orderID uuid.UUID, req *model.RefundRequest) (*model.Order, error) {
	args := m.Called(ctx, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func validCheckoutBody() string {
	return `{
		"paymentMethod": "cash_on_delivery",
		"shippingAddress": {
			"name": "A Customer", "line1": "1 Main St", "city": "Delhi",
			"state": "DL", "postcode": "110001", "country": "IN",
			"phone": "9999999999", "email": "a@example.com"
		}
	}`
}

func TestOrderHandler_Checkout(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())
	customerID := uuid.New()

	resp := &model.OrderResponse{
		Order: &model.Order{
			ID:          uuid.New(),
			OrderNumber: "ORD-20260828-deadbeef",
			Status:      model.StatusPending,
			Total:       decimal.RequireFromString("110.00"),
		},
	}
	mockService.On("Checkout", mock.Anything, customerID, mock.AnythingOfType("*model.CheckoutRequest")).
		Return(resp, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(validCheckoutBody()))
	r.Header.Set(customerHeader, customerID.String())
	rec := httptest.NewRecorder()

	h.Checkout(rec, r)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_Checkout_MissingCustomerHeader(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())

	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(validCheckoutBody()))
	rec := httptest.NewRecorder()

	h.Checkout(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandler_Checkout_MalformedJSON(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())

	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{not json`))
	r.Header.Set(customerHeader, uuid.New().String())
	rec := httptest.NewRecorder()

	h.Checkout(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, model.ErrCodeInvalidJSON, envelope.Error.Code)
}

func TestOrderHandler_Checkout_EmptyCart(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())
	customerID := uuid.New()

	mockService.On("Checkout", mock.Anything, customerID, mock.Anything).
		Return(nil, model.ErrEmptyCart)

	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(validCheckoutBody()))
	r.Header.Set(customerHeader, customerID.String())
	rec := httptest.NewRecorder()

	h.Checkout(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, model.ErrCodeEmptyCart, envelope.Error.Code)
}

func TestOrderHandler_GetByID_NotFound(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())
	orderID := uuid.New()

	mockService.On("GetByID", mock.Anything, orderID).Return(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/orders/"+orderID.String(), nil)
	rec := httptest.NewRecorder()

	h.GetByID(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderHandler_Cancel_Conflict(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())
	orderID := uuid.New()

	mockService.On("Cancel", mock.Anything, orderID).Return(nil, model.ErrNotCancellable)

	r := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/cancel", nil)
	rec := httptest.NewRecorder()

	h.Cancel(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, model.ErrCodeNotCancellable, envelope.Error.Code)
}

func TestOrderHandler_BulkUpdateStatus_EmptyIDs(t *testing.T) {
	mockService := new(MockOrderService)
	h := NewOrderHandler(mockService, zerolog.Nop())

	r := httptest.NewRequest(http.MethodPost, "/api/admin/orders/bulk-status",
		strings.NewReader(`{"orderIds": [], "status": "cancelled"}`))
	rec := httptest.NewRecorder()

	h.BulkUpdateStatus(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "BulkUpdateStatus", mock.Anything, mock.Anything)
}
