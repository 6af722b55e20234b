package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
	Details       any    `json:"details,omitempty"`
}

// ErrorKind classifies a domain error independently of its specific code.
type ErrorKind string

const (
	KindInvalidArgument   ErrorKind = "INVALID_ARGUMENT"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindConflict          ErrorKind = "CONFLICT"
	KindUnauthenticated   ErrorKind = "UNAUTHENTICATED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindInternal          ErrorKind = "INTERNAL"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodeSizeRequired      = "SIZE_REQUIRED"
	ErrCodeEmptyItems        = "EMPTY_ITEMS"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeCartItemNotFound  = "CART_ITEM_NOT_FOUND"
	ErrCodeNoFields          = "NO_FIELDS"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeOrderNotDeletable = "ORDER_NOT_DELETABLE"
	ErrCodeOrderDeleted      = "ORDER_ALREADY_DELETED"
	ErrCodeDuplicateOrderID  = "DUPLICATE_ORDER_ID"
	ErrCodeStockBatchFailed  = "STOCK_BATCH_FAILED"
	ErrCodeNoFile            = "NO_FILE"
	ErrCodeFileTooLarge      = "FILE_TOO_LARGE"
	ErrCodeUnsupportedMedia  = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business error carrying a taxonomy kind, a stable code and
// optional structured detail for the caller.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Detail  any
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError by code, so sentinel comparisons survive
// copies made with WithDetail.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying the given detail.
func (e *DomainError) WithDetail(detail any) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// InvalidArgument builds an ad hoc validation error.
func InvalidArgument(code, format string, args ...any) *DomainError {
	return NewDomainError(KindInvalidArgument, code, fmt.Sprintf(format, args...))
}

// KindOf reports the taxonomy kind of err. Errors that are not domain errors
// are Internal.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// StockShortage is the detail attached to InsufficientStock errors.
type StockShortage struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size,omitempty"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// InsufficientStock builds the error returned when a reduce asks for more
// units than are available.
func InsufficientStock(shortage StockShortage) *DomainError {
	return ErrInsufficientStock.WithDetail(shortage)
}

// Common domain errors
var (
	ErrInvalidQuantity   = NewDomainError(KindInvalidArgument, ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidStatus     = NewDomainError(KindInvalidArgument, ErrCodeInvalidStatus, "Invalid status value")
	ErrSizeRequired      = NewDomainError(KindInvalidArgument, ErrCodeSizeRequired, "Size is required for size-tracked products")
	ErrEmptyItems        = NewDomainError(KindInvalidArgument, ErrCodeEmptyItems, "Items array is required")
	ErrProductNotFound   = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound     = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrInsufficientStock = NewDomainError(KindInsufficientStock, ErrCodeInsufficientStock, "Insufficient stock")
	ErrOrderNotDeletable = NewDomainError(KindInvalidState, ErrCodeOrderNotDeletable, "Only pending, cancelled or failed orders can be deleted")
	ErrOrderDeleted      = NewDomainError(KindInvalidState, ErrCodeOrderDeleted, "Order is already deleted")
	ErrDuplicateOrderID  = NewDomainError(KindConflict, ErrCodeDuplicateOrderID, "Order ID already exists")
	ErrStockBatchFailed  = NewDomainError(KindInvalidArgument, ErrCodeStockBatchFailed, "Failed to reduce stock for all items")
	ErrNoChanges         = NewDomainError(KindInvalidArgument, ErrCodeNoFields, "No fields to update")
	ErrCartItemNotFound  = NewDomainError(KindNotFound, ErrCodeCartItemNotFound, "Cart item not found")
	ErrNotCartOwner      = NewDomainError(KindForbidden, ErrCodeForbidden, "Cart item belongs to another user")
	ErrUnauthenticated   = NewDomainError(KindUnauthenticated, ErrCodeUnauthorised, "Unauthorized")
)
