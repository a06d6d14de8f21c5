package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    *model.DomainError
		status int
	}{
		{name: "validation", err: model.ErrEmptyCart, status: http.StatusBadRequest},
		{name: "not found", err: model.ErrOrderNotFound, status: http.StatusNotFound},
		{name: "shipment not found", err: model.ErrShipmentNotFound, status: http.StatusNotFound},
		{name: "precondition", err: model.ErrNotCancellable, status: http.StatusConflict},
		{name: "signature mismatch", err: model.ErrSignatureMismatch, status: http.StatusConflict},
		{name: "external", err: model.NewExternalError(model.ErrCodeGatewayFailure, "down"), status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestWriteError_DomainErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, model.ErrNotCancellable, zerolog.Nop())

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, model.ErrCodeNotCancellable, envelope.Error.Code)
	assert.Equal(t, model.CategoryPrecondition, envelope.Error.Category)
	assert.False(t, envelope.Error.Retryable)
}

func TestWriteError_UnknownErrorIsOpaque500(t *testing.T) {
	rec := httptest.NewRecorder()

	writeError(rec, assert.AnError, zerolog.Nop())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope model.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, model.ErrCodeInternalError, envelope.Error.Code)
	assert.NotContains(t, envelope.Error.Message, assert.AnError.Error())
}

func TestCustomerID(t *testing.T) {
	id := uuid.New()

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set(customerHeader, id.String())

	got, err := customerID(r)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestCustomerID_MissingOrMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	_, err := customerID(r)
	require.Error(t, err)

	r.Header.Set(customerHeader, "not-a-uuid")
	_, err = customerID(r)
	require.Error(t, err)
}

func TestPathID(t *testing.T) {
	id := uuid.New()

	got, err := pathID("/api/orders/"+id.String(), "/api/orders/")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = pathID("/api/orders/"+id.String()+"/cancel", "/api/orders/")
	require.NoError(t, err)
	assert.Equal(t, id, got, "trailing segments are ignored")

	_, err = pathID("/api/orders/", "/api/orders/")
	require.Error(t, err)

	_, err = pathID("/api/orders/garbage", "/api/orders/")
	require.Error(t, err)
}
