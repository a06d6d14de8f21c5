package router

import (
	"net/http"
	"strings"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates the HTTP router with all routes and middleware configured.
// Admin routes additionally require the admin API key.
func New(
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	shipmentHandler *handler.ShipmentHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Cart routes
	cartRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		switch {
		case path == "/api/cart" && r.Method == http.MethodGet:
			cartHandler.Get(w, r)
		case path == "/api/cart" && r.Method == http.MethodDelete:
			cartHandler.Clear(w, r)
		case path == "/api/cart/items" && r.Method == http.MethodPost:
			cartHandler.AddItem(w, r)
		case strings.HasPrefix(path, "/api/cart/items/") && r.Method == http.MethodPut:
			cartHandler.UpdateItem(w, r)
		case strings.HasPrefix(path, "/api/cart/items/") && r.Method == http.MethodDelete:
			cartHandler.RemoveItem(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/cart", cartRouteHandler)
	mux.HandleFunc("/api/cart/", cartRouteHandler)

	// Customer order routes
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		switch {
		case path == "/api/orders" && r.Method == http.MethodPost:
			orderHandler.Checkout(w, r)
		case path == "/api/orders" && r.Method == http.MethodGet:
			orderHandler.List(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			orderHandler.Cancel(w, r)
		case strings.HasPrefix(path, "/api/orders/") && r.Method == http.MethodGet:
			orderHandler.GetByID(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Payment callback and retry routes
	paymentRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		switch {
		case path == "/api/payments/confirm":
			paymentHandler.Confirm(w, r)
		case strings.HasSuffix(path, "/fail"):
			paymentHandler.Fail(w, r)
		case strings.HasSuffix(path, "/retry"):
			paymentHandler.Retry(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/payments/", paymentRouteHandler)

	// Serviceability lookup
	mux.HandleFunc("/api/shipping/serviceability", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		shipmentHandler.Serviceability(w, r)
	})

	// Admin routes
	adminRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		switch {
		case path == "/api/admin/orders/bulk-status" && r.Method == http.MethodPost:
			orderHandler.BulkUpdateStatus(w, r)
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPut:
			orderHandler.UpdateStatus(w, r)
		case strings.HasSuffix(path, "/refund") && r.Method == http.MethodPost:
			orderHandler.Refund(w, r)
		case strings.HasSuffix(path, "/shipment") && r.Method == http.MethodPost:
			shipmentHandler.Create(w, r)
		case strings.HasPrefix(path, "/api/admin/shipments/") && strings.HasSuffix(path, "/refresh") && r.Method == http.MethodPost:
			shipmentHandler.Refresh(w, r)
		case strings.HasPrefix(path, "/api/admin/shipments/") && strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			shipmentHandler.Cancel(w, r)
		case strings.HasPrefix(path, "/api/admin/shipments/") && strings.HasSuffix(path, "/label") && r.Method == http.MethodPost:
			shipmentHandler.Label(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/admin/", adminRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
