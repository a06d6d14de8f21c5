package model

// Error categories. Every user-visible failure falls into exactly one.
const (
	CategoryValidation   = "validation"
	CategoryPrecondition = "precondition"
	CategoryExternal     = "external"
	CategoryConsistency  = "consistency"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeNotPurchasable    = "PRODUCT_NOT_PURCHASABLE"
	ErrCodeVariantMismatch   = "VARIANT_MISMATCH"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeShipmentNotFound  = "SHIPMENT_NOT_FOUND"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNotCancellable    = "ORDER_NOT_CANCELLABLE"
	ErrCodeNotRefundable     = "ORDER_NOT_REFUNDABLE"
	ErrCodeNotRetryable      = "PAYMENT_NOT_RETRYABLE"
	ErrCodeShipmentNotReady  = "SHIPMENT_NOT_READY"
	ErrCodeShipmentExists    = "SHIPMENT_ALREADY_EXISTS"
	ErrCodeSignatureMismatch = "SIGNATURE_MISMATCH"
	ErrCodeGatewayFailure    = "GATEWAY_FAILURE"
	ErrCodeAggregatorFailure = "AGGREGATOR_FAILURE"
	ErrCodeDuplicateOrderNo  = "DUPLICATE_ORDER_NUMBER"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure with a machine-readable code.
// Retryable tells the caller whether repeating the same request can succeed
// without local state changing first.
type DomainError struct {
	Code      string
	Category  string
	Message   string
	Retryable bool
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationError creates a validation-category domain error.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Category: CategoryValidation, Message: message}
}

// NewPreconditionError creates a precondition-category domain error.
func NewPreconditionError(code, message string) *DomainError {
	return &DomainError{Code: code, Category: CategoryPrecondition, Message: message}
}

// NewExternalError creates an external-integration failure. These are always
// retryable from the caller's point of view.
func NewExternalError(code, message string) *DomainError {
	return &DomainError{Code: code, Category: CategoryExternal, Message: message, Retryable: true}
}

// Common domain errors
var (
	ErrEmptyCart           = NewValidationError(ErrCodeEmptyCart, "Cart has no items")
	ErrInvalidQuantity     = NewValidationError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrProductNotFound     = NewValidationError(ErrCodeProductNotFound, "Product not found")
	ErrNotPurchasable      = NewValidationError(ErrCodeNotPurchasable, "Product is not available for purchase")
	ErrVariantMismatch     = NewValidationError(ErrCodeVariantMismatch, "Variant does not belong to the product")
	ErrOrderNotFound       = NewValidationError(ErrCodeOrderNotFound, "Order not found")
	ErrShipmentNotFound    = NewValidationError(ErrCodeShipmentNotFound, "Shipment not found")
	ErrNotCancellable      = NewPreconditionError(ErrCodeNotCancellable, "Order can only be cancelled while pending or confirmed")
	ErrNotRefundable       = NewPreconditionError(ErrCodeNotRefundable, "Order is not eligible for a refund")
	ErrPaymentNotRetryable = NewPreconditionError(ErrCodeNotRetryable, "Payment cannot be retried for this order")
	ErrShipmentNotReady    = NewPreconditionError(ErrCodeShipmentNotReady, "Order is not ready for shipment")
	ErrShipmentExists      = NewPreconditionError(ErrCodeShipmentExists, "A shipment already exists for this order")
	ErrSignatureMismatch   = NewPreconditionError(ErrCodeSignatureMismatch, "Payment signature verification failed")
)

// ErrorResponse is the error half of the mutating-endpoint envelope.
type ErrorResponse struct {
	Code      string `json:"code"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Envelope is the structured payload every mutating endpoint returns.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}
