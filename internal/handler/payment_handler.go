package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler handles gateway payment callbacks and retries.
type PaymentHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.OrderService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// Confirm handles POST /api/payments/confirm, the gateway success callback.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.ConfirmPayment(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Fail handles POST /api/payments/{orderId}/fail, the gateway failure
// callback.
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/payments/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.FailPayment(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Retry handles POST /api/payments/{orderId}/retry.
func (h *PaymentHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/payments/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.RetryPayment(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
