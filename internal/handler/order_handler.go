package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order HTTP requests, customer-facing and admin.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/orders.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.Checkout(r.Context(), cid, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/orders with pagination.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.service.ListByCustomer(r.Context(), cid, limit, offset)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/orders/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if resp == nil {
		writeError(w, model.ErrOrderNotFound, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/orders/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/admin/orders/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// BulkUpdateStatus handles POST /api/admin/orders/bulk-status.
func (h *OrderHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.BulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if len(req.OrderIDs) == 0 {
		writeError(w, model.NewValidationError(model.ErrCodeMissingField, "orderIds must not be empty"), h.logger)
		return
	}

	result, err := h.service.BulkUpdateStatus(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Refund handles POST /api/admin/orders/{id}/refund.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/admin/orders/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.InitiateRefund(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
