package order

import (
	"strings"

	"storefront/internal/model"
)

// carrierStatusMap maps the aggregator's external status strings onto the
// fulfillment axis. Keys are lowercased for lookup.
var carrierStatusMap = map[string]model.OrderStatus{
	"pickup scheduled":  model.StatusProcessing,
	"pickup queued":     model.StatusProcessing,
	"out for pickup":    model.StatusProcessing,
	"shipped":           model.StatusShipped,
	"in transit":        model.StatusShipped,
	"out for delivery":  model.StatusShipped,
	"delivered":         model.StatusDelivered,
	"rto initiated":     model.StatusCancelled,
	"rto delivered":     model.StatusCancelled,
	"canceled":          model.StatusCancelled,
	"cancelled":         model.StatusCancelled,
}

// MapCarrierStatus translates an aggregator status string into an order
// status. The second return is false for statuses with no local meaning
// (holds, exceptions); those leave the order untouched.
func MapCarrierStatus(external string) (model.OrderStatus, bool) {
	status, ok := carrierStatusMap[strings.ToLower(strings.TrimSpace(external))]
	return status, ok
}
