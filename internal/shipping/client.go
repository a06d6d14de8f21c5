// Package shipping wraps the external shipping aggregator: order creation,
// AWB assignment, tracking, label generation, cancellation and the
// serviceability lookup. Authentication tokens are cached with an expiry.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client is the shipping-aggregator REST client.
type Client struct {
	baseURL    string
	email      string
	password   string
	channelID  string
	tokenTTL   time.Duration
	tokens     TokenCache
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an aggregator client from configuration.
func NewClient(cfg config.AggregatorConfig, tokens TokenCache, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		email:      cfg.Email,
		password:   cfg.Password,
		channelID:  cfg.ChannelID,
		tokenTTL:   cfg.TokenTTL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "shipping-aggregator").Logger(),
	}
}

// OrderItem is one line of the aggregator order payload.
type OrderItem struct {
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Units int    `json:"units"`
	Price string `json:"selling_price"`
}

// OrderPayload describes the parcel and its destination.
type OrderPayload struct {
	OrderNumber       string      `json:"order_id"`
	OrderDate         string      `json:"order_date"`
	PickupPostcode    string      `json:"pickup_postcode"`
	ChannelID         string      `json:"channel_id,omitempty"`
	BillingName       string      `json:"billing_customer_name"`
	BillingAddress    string      `json:"billing_address"`
	BillingCity       string      `json:"billing_city"`
	BillingState      string      `json:"billing_state"`
	BillingPostcode   string      `json:"billing_pincode"`
	BillingCountry    string      `json:"billing_country"`
	BillingEmail      string      `json:"billing_email"`
	BillingPhone      string      `json:"billing_phone"`
	ShippingIsBilling bool        `json:"shipping_is_billing"`
	Items             []OrderItem `json:"order_items"`
	PaymentMethod     string      `json:"payment_method"` // "Prepaid" or "COD"
	SubTotal          string      `json:"sub_total"`
	WeightKg          string      `json:"weight"`
}

// CreatedOrder is the aggregator's handle for a created shipment order.
type CreatedOrder struct {
	ExternalOrderID    json.Number `json:"order_id"`
	ExternalShipmentID json.Number `json:"shipment_id"`
	Status             string      `json:"status"`
}

// AWBAssignment carries the tracking code and carrier details.
type AWBAssignment struct {
	AWBCode     string `json:"awb_code"`
	CarrierID   int    `json:"courier_company_id"`
	CarrierName string `json:"courier_name"`
	LabelURL    string `json:"label_url"`
	TrackingURL string `json:"tracking_url"`
}

// TrackingResult is the carrier's current view of a shipment.
type TrackingResult struct {
	Status string
	Raw    []byte
}

// Rate is one serviceability quote.
type Rate struct {
	CarrierID   int             `json:"courier_company_id"`
	CarrierName string          `json:"courier_name"`
	Charge      decimal.Decimal `json:"rate"`
	ETADays     string          `json:"etd"`
}

// authResponse is the aggregator login response.
type authResponse struct {
	Token string `json:"token"`
}

// authenticate logs in and caches the token. Called on cache miss only.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	payload := map[string]string{"email": c.email, "password": c.password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		c.logger.Error().Err(err).Msg("aggregator authentication failed")
		return "", err
	}
	if resp.Token == "" {
		return "", model.NewExternalError(model.ErrCodeAggregatorFailure, "aggregator returned an empty auth token")
	}

	c.tokens.Set(ctx, resp.Token, c.tokenTTL)
	c.logger.Info().Msg("aggregator token refreshed")
	return resp.Token, nil
}

// token returns a valid auth token, re-authenticating on cache miss.
func (c *Client) token(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(ctx); ok {
		return token, nil
	}
	return c.authenticate(ctx)
}

// CreateOrder registers a shipment order with the aggregator.
func (c *Client) CreateOrder(ctx context.Context, payload *OrderPayload) (*CreatedOrder, error) {
	if payload.ChannelID == "" {
		payload.ChannelID = c.channelID
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var created CreatedOrder
	if err := c.do(ctx, http.MethodPost, "/orders/create/adhoc", token, payload, &created); err != nil {
		c.logger.Error().Err(err).Str("order_number", payload.OrderNumber).Msg("failed to create aggregator order")
		return nil, err
	}

	c.logger.Info().
		Str("order_number", payload.OrderNumber).
		Str("external_order_id", created.ExternalOrderID.String()).
		Str("external_shipment_id", created.ExternalShipmentID.String()).
		Msg("aggregator order created")

	return &created, nil
}

// AssignAWB requests a tracking code for the shipment. A nil carrier lets
// the aggregator choose.
func (c *Client) AssignAWB(ctx context.Context, externalShipmentID string, carrierID *int) (*AWBAssignment, error) {
	payload := map[string]any{"shipment_id": externalShipmentID}
	if carrierID != nil {
		payload["courier_id"] = *carrierID
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	// The aggregator nests the assignment under response_data.
	var resp struct {
		AWBAssignStatus int           `json:"awb_assign_status"`
		Response        AWBAssignment `json:"response_data"`
	}
	if err := c.do(ctx, http.MethodPost, "/courier/assign/awb", token, payload, &resp); err != nil {
		c.logger.Error().Err(err).Str("external_shipment_id", externalShipmentID).Msg("failed to assign AWB")
		return nil, err
	}
	if resp.Response.AWBCode == "" {
		return nil, model.NewExternalError(model.ErrCodeAggregatorFailure, "aggregator did not assign an AWB code")
	}

	c.logger.Info().
		Str("external_shipment_id", externalShipmentID).
		Str("awb_code", resp.Response.AWBCode).
		Str("carrier", resp.Response.CarrierName).
		Msg("AWB assigned")

	return &resp.Response, nil
}

// TrackShipment polls the carrier's current status for an AWB code.
func (c *Client) TrackShipment(ctx context.Context, awbCode string) (*TrackingResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.doRaw(ctx, http.MethodGet, "/courier/track/awb/"+awbCode, token, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("awb_code", awbCode).Msg("failed to track shipment")
		return nil, err
	}

	var resp struct {
		TrackingData struct {
			ShipmentStatus string `json:"current_status"`
		} `json:"tracking_data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, model.NewExternalError(model.ErrCodeAggregatorFailure, fmt.Sprintf("failed to decode tracking response: %v", err))
	}

	return &TrackingResult{Status: resp.TrackingData.ShipmentStatus, Raw: raw}, nil
}

// CancelShipments requests cancellation of the given AWB codes.
func (c *Client) CancelShipments(ctx context.Context, awbCodes []string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{"awbs": awbCodes}
	if err := c.do(ctx, http.MethodPost, "/orders/cancel/shipment/awbs", token, payload, nil); err != nil {
		c.logger.Error().Err(err).Strs("awb_codes", awbCodes).Msg("failed to cancel shipments")
		return err
	}

	c.logger.Info().Strs("awb_codes", awbCodes).Msg("shipments cancelled at aggregator")
	return nil
}

// GenerateLabel requests a label document for the given shipment ids.
func (c *Client) GenerateLabel(ctx context.Context, externalShipmentIDs []string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{"shipment_id": externalShipmentIDs}

	var resp struct {
		LabelCreated int    `json:"label_created"`
		LabelURL     string `json:"label_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/courier/generate/label", token, payload, &resp); err != nil {
		c.logger.Error().Err(err).Strs("shipment_ids", externalShipmentIDs).Msg("failed to generate label")
		return "", err
	}
	if resp.LabelURL == "" {
		return "", model.NewExternalError(model.ErrCodeAggregatorFailure, "aggregator did not return a label URL")
	}

	return resp.LabelURL, nil
}

// Serviceability returns carrier quotes for a route and parcel weight.
func (c *Client) Serviceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKg decimal.Decimal, cod bool) ([]Rate, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	codFlag := "0"
	if cod {
		codFlag = "1"
	}
	path := fmt.Sprintf("/courier/serviceability/?pickup_postcode=%s&delivery_postcode=%s&weight=%s&cod=%s",
		pickupPostcode, deliveryPostcode, weightKg.String(), codFlag)

	var resp struct {
		Data struct {
			AvailableCouriers []Rate `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		c.logger.Error().Err(err).Msg("serviceability lookup failed")
		return nil, err
	}

	return resp.Data.AvailableCouriers, nil
}

// do executes one aggregator call and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	raw, err := c.doRaw(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return model.NewExternalError(model.ErrCodeAggregatorFailure, fmt.Sprintf("failed to decode aggregator response: %v", err))
		}
	}
	return nil
}

// doRaw executes one aggregator call and returns the raw response body.
// Non-2xx responses become typed external errors.
func (c *Client) doRaw(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode aggregator request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewExternalError(model.ErrCodeAggregatorFailure, fmt.Sprintf("aggregator request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewExternalError(model.ErrCodeAggregatorFailure, fmt.Sprintf("failed to read aggregator response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var provider struct {
			Message string `json:"message"`
		}
		detail := fmt.Sprintf("aggregator returned status %d", resp.StatusCode)
		if err := json.Unmarshal(raw, &provider); err == nil && provider.Message != "" {
			detail = provider.Message
		}
		return nil, model.NewExternalError(model.ErrCodeAggregatorFailure, detail)
	}

	return raw, nil
}
