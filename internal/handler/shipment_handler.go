package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ShipmentHandler handles admin shipment operations and the serviceability
// lookup.
type ShipmentHandler struct {
	service service.ShipmentService
	logger  zerolog.Logger
}

// NewShipmentHandler creates a new shipment handler.
func NewShipmentHandler(service service.ShipmentService, logger zerolog.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		service: service,
		logger:  logger.With().Str("handler", "shipment").Logger(),
	}
}

// Create handles POST /api/admin/orders/{id}/shipment.
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r.URL.Path, "/api/admin/orders/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.CreateShipmentRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err, h.logger)
			return
		}
	}

	shipment, err := h.service.CreateShipment(r.Context(), orderID, req.CarrierID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, shipment)
}

// Refresh handles POST /api/admin/shipments/{id}/refresh.
func (h *ShipmentHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/admin/shipments/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	shipment, err := h.service.RefreshTracking(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// Cancel handles POST /api/admin/shipments/{id}/cancel.
func (h *ShipmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/admin/shipments/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	shipment, err := h.service.CancelShipment(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// Label handles POST /api/admin/shipments/{id}/label.
func (h *ShipmentHandler) Label(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/admin/shipments/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	url, err := h.service.GenerateLabel(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"labelUrl": url})
}

// Serviceability handles GET /api/shipping/serviceability.
func (h *ShipmentHandler) Serviceability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	weight := decimal.Zero
	if raw := q.Get("weight"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, model.NewValidationError(model.ErrCodeMissingField, "weight must be a decimal number"), h.logger)
			return
		}
		weight = parsed
	}
	cod := q.Get("cod") == "1" || q.Get("cod") == "true"

	rates, err := h.service.Serviceability(r.Context(), q.Get("deliveryPostcode"), weight, cod)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}
