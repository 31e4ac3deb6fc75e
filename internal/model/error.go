package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeCartNotFound      = "CART_NOT_FOUND"
	ErrCodeCartClosed        = "CART_CLOSED"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeItemNotFound      = "ITEM_NOT_FOUND"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeZoneNotFound      = "ZONE_NOT_FOUND"
	ErrCodeInvalidChannel    = "INVALID_CHANNEL"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation the client can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrCartNotFound      = NewDomainError(ErrCodeCartNotFound, "Cart not found")
	ErrCartClosed        = NewDomainError(ErrCodeCartClosed, "Cart is no longer open")
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "Cart has no items")
	ErrItemNotFound      = NewDomainError(ErrCodeItemNotFound, "Cart item not found")
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrProductNotFound   = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrZoneNotFound      = NewDomainError(ErrCodeZoneNotFound, "Delivery zone not found")
	ErrInvalidChannel    = NewDomainError(ErrCodeInvalidChannel, "Unknown order channel")
	ErrOrderNotFound     = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "Order status transition not allowed")
)

// InsufficientStockError reports how much stock remains so the client can
// offer a corrected quantity instead of forcing a blind retry.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
