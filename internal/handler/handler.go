package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// customerHeader carries the authenticated customer's id. Identity is
// resolved upstream; the backend trusts the header.
const customerHeader = "X-Customer-ID"

// writeJSON writes an enveloped success response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(model.Envelope{Success: true, Data: data}); err != nil {
		return
	}
}

// writeError translates an error into the enveloped error shape. Domain
// errors map by category; anything else is an opaque 500.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("handler error")
		writeDomainError(w, http.StatusInternalServerError, &model.DomainError{
			Code:     model.ErrCodeInternalError,
			Category: model.CategoryConsistency,
			Message:  "internal server error",
		})
		return
	}

	logger.Warn().
		Str("code", domainErr.Code).
		Str("category", domainErr.Category).
		Msg(domainErr.Message)
	writeDomainError(w, statusFor(domainErr), domainErr)
}

// writeDomainError writes the enveloped error body.
func writeDomainError(w http.ResponseWriter, status int, domainErr *model.DomainError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.Envelope{
		Success: false,
		Error: &model.ErrorResponse{
			Code:      domainErr.Code,
			Category:  domainErr.Category,
			Message:   domainErr.Message,
			Retryable: domainErr.Retryable,
		},
	})
}

// statusFor maps a domain error onto an HTTP status.
func statusFor(e *model.DomainError) int {
	switch e.Code {
	case model.ErrCodeOrderNotFound, model.ErrCodeShipmentNotFound, model.ErrCodeProductNotFound:
		return http.StatusNotFound
	}
	switch e.Category {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryPrecondition:
		return http.StatusConflict
	case model.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewValidationError(model.ErrCodeInvalidJSON, "invalid JSON payload")
	}
	return nil
}

// customerID extracts the customer identity from the request headers.
func customerID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(customerHeader)
	if raw == "" {
		return uuid.Nil, model.NewValidationError(model.ErrCodeMissingField, "X-Customer-ID header is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError(model.ErrCodeMissingField, "X-Customer-ID header must be a UUID")
	}
	return id, nil
}

// pathID parses the UUID path segment that follows prefix, ignoring any
// trailing segments.
func pathID(path, prefix string) (uuid.UUID, error) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return uuid.Nil, model.NewValidationError(model.ErrCodeMissingField, "resource id is required")
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, model.NewValidationError(model.ErrCodeMissingField, "resource id must be a UUID")
	}
	return id, nil
}
