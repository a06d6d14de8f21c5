package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.GetCart(r.Context(), cid)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AddCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.AddItem(r.Context(), cid, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateItem handles PUT /api/cart/items/{id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	lineID, err := pathID(r.URL.Path, "/api/cart/items/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.UpdateItem(r.Context(), cid, lineID, req.Quantity)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveItem handles DELETE /api/cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	lineID, err := pathID(r.URL.Path, "/api/cart/items/")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.RemoveItem(r.Context(), cid, lineID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cid, err := customerID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Clear(r.Context(), cid); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
