// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All ledger failures must use AppError so callers can branch on Code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Ledger rule violations (422)
	CodeInvalidDocument   = "INVALID_DOCUMENT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeBalanceNotFound   = "BALANCE_NOT_FOUND"
	CodeAlreadyExecuted   = "ALREADY_EXECUTED"
	CodeNotExecuted       = "NOT_EXECUTED"
	CodePeriodClosed      = "PERIOD_CLOSED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeDocumentLocked         = "DOCUMENT_LOCKED"
)

// AppError is the standard error type for the ledger.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field, quantities, ids)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidDocument reports a structurally invalid movement document.
func NewInvalidDocument(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidDocument,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewBalanceNotFound is returned when a location has no tracked row for a material.
func NewBalanceNotFound(locationID, materialID any) *AppError {
	return &AppError{
		Code:       CodeBalanceNotFound,
		Message:    "Material is not tracked at the storage location",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"location_id": locationID,
			"material_id": materialID,
		},
	}
}

// NewInsufficientStock creates a stock shortage error for a single unit.
// Quantities are passed as decimal strings to keep full precision in details.
func NewInsufficientStock(unit, available, requested string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("Insufficient stock in %s: available %s, requested %s", unit, available, requested),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"unit":      unit,
			"available": available,
			"requested": requested,
		},
	}
}

// NewAlreadyExecuted is returned when execute is called on a completed movement.
func NewAlreadyExecuted(documentID any) *AppError {
	return &AppError{
		Code:       CodeAlreadyExecuted,
		Message:    "Movement is already executed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document_id": documentID},
	}
}

// NewNotExecuted is returned when cancel is called on a pending movement.
func NewNotExecuted(documentID any) *AppError {
	return &AppError{
		Code:       CodeNotExecuted,
		Message:    "Movement is not executed yet",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document_id": documentID},
	}
}

// NewPeriodClosed creates error when trying to touch a closed period
func NewPeriodClosed(period string) *AppError {
	return &AppError{
		Code:       CodePeriodClosed,
		Message:    fmt.Sprintf("Period %s is closed for modifications", period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period": period},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewDocumentLocked is returned when another process holds the document lock.
func NewDocumentLocked(documentID any) *AppError {
	return &AppError{
		Code:       CodeDocumentLocked,
		Message:    "Movement is being processed by another operation",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document_id": documentID},
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewInternal creates an internal error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool          { return HasCode(err, CodeNotFound) }
func IsBalanceNotFound(err error) bool   { return HasCode(err, CodeBalanceNotFound) }
func IsInsufficientStock(err error) bool { return HasCode(err, CodeInsufficientStock) }
func IsInvalidDocument(err error) bool   { return HasCode(err, CodeInvalidDocument) }
func IsAlreadyExecuted(err error) bool   { return HasCode(err, CodeAlreadyExecuted) }
func IsNotExecuted(err error) bool       { return HasCode(err, CodeNotExecuted) }
func IsDuplicate(err error) bool         { return HasCode(err, CodeDuplicate) }

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}
