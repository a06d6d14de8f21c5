// Package gateway wraps the external payment provider: payment-intent
// creation, callback signature verification, capture and refunds. Every
// call is bounded by the configured timeout and degrades to a typed
// external error, never a panic or a hang.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Client is the payment-provider REST client.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	currency   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "payment-gateway").Logger(),
	}
}

// GatewayOrder is the provider's representation of a pending charge.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PaymentDetails is the provider's view of a captured or pending payment.
type PaymentDetails struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// Refund is the provider's refund record.
type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// CreateOrder requests a payment intent for the given amount in minor
// currency units, keyed by the order number as receipt.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string, notes map[string]string) (*GatewayOrder, error) {
	payload := map[string]any{
		"amount":   amountMinorUnits,
		"currency": c.currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	var order GatewayOrder
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &order); err != nil {
		c.logger.Error().
			Err(err).
			Str("receipt", receipt).
			Int64("amount", amountMinorUnits).
			Msg("failed to create gateway order")
		return nil, err
	}

	c.logger.Info().
		Str("gateway_order_id", order.ID).
		Str("receipt", receipt).
		Msg("gateway order created")

	return &order, nil
}

// FetchPayment retrieves a payment by its provider id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	var payment PaymentDetails
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CapturePayment captures an authorized payment for the given amount.
func (c *Client) CapturePayment(ctx context.Context, paymentID string, amountMinorUnits int64) (*PaymentDetails, error) {
	payload := map[string]any{
		"amount":   amountMinorUnits,
		"currency": c.currency,
	}

	var payment PaymentDetails
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/capture", payload, &payment); err != nil {
		c.logger.Error().Err(err).Str("gateway_payment_id", paymentID).Msg("failed to capture payment")
		return nil, err
	}
	return &payment, nil
}

// CreateRefund requests a refund against a captured payment.
func (c *Client) CreateRefund(ctx context.Context, paymentID string, amountMinorUnits int64) (*Refund, error) {
	payload := map[string]any{
		"amount": amountMinorUnits,
	}

	var refund Refund
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", payload, &refund); err != nil {
		c.logger.Error().
			Err(err).
			Str("gateway_payment_id", paymentID).
			Int64("amount", amountMinorUnits).
			Msg("failed to create refund")
		return nil, err
	}

	c.logger.Info().
		Str("refund_id", refund.ID).
		Str("gateway_payment_id", paymentID).
		Msg("gateway refund created")

	return &refund, nil
}

// do executes one provider call: Basic auth, JSON in, JSON out. Non-2xx
// responses become typed external errors carrying the provider's message.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewExternalError(model.ErrCodeGatewayFailure, fmt.Sprintf("gateway request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var provider struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		detail := fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&provider); err == nil && provider.Error.Description != "" {
			detail = provider.Error.Description
		}
		return model.NewExternalError(model.ErrCodeGatewayFailure, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return model.NewExternalError(model.ErrCodeGatewayFailure, fmt.Sprintf("failed to decode gateway response: %v", err))
		}
	}

	return nil
}
