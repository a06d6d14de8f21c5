package model

import (
	"time"

	"github.com/google/uuid"
)

// Shipment is the local record of the aggregator-side shipment. At most one
// per order; cancellation is a status value, the row is never deleted.
type Shipment struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	OrderID            uuid.UUID `json:"orderId" db:"order_id"`
	ExternalOrderID    string    `json:"externalOrderId" db:"external_order_id"`
	ExternalShipmentID string    `json:"externalShipmentId" db:"external_shipment_id"`
	AWBCode            string    `json:"awbCode" db:"awb_code"`
	CarrierID          *int      `json:"carrierId,omitempty" db:"carrier_id"`
	CarrierName        string    `json:"carrierName" db:"carrier_name"`
	Status             string    `json:"status" db:"status"`
	TrackingURL        *string   `json:"trackingUrl,omitempty" db:"tracking_url"`
	LabelURL           *string   `json:"labelUrl,omitempty" db:"label_url"`
	ArchivedLabelURL   *string   `json:"archivedLabelUrl,omitempty" db:"archived_label_url"`
	RawStatus          []byte    `json:"-" db:"raw_status"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateShipmentRequest is the admin payload; a nil carrier lets the
// aggregator pick one.
type CreateShipmentRequest struct {
	CarrierID *int `json:"carrierId,omitempty"`
}
