// Package errors provides custom error types for the Pricebook API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Master-data lifecycle errors.
var (
	ErrRecordNotFound  = &AppError{Code: "RECORD_NOT_FOUND", Message: "Master-data record not found", StatusCode: http.StatusNotFound}
	ErrUnknownCategory = &AppError{Code: "UNKNOWN_CATEGORY", Message: "Unknown master-data category", StatusCode: http.StatusBadRequest}
	ErrDraftExists     = &AppError{Code: "DRAFT_EXISTS", Message: "A draft already exists for this key; edit it instead", StatusCode: http.StatusConflict}
	ErrActiveConflict  = &AppError{Code: "ACTIVE_CONFLICT", Message: "An active record already exists for this key", StatusCode: http.StatusConflict}
	ErrInvalidState    = &AppError{Code: "INVALID_STATE", Message: "The record's current status does not allow this transition", StatusCode: http.StatusConflict}
)

// Resolution errors. Callers attach the unresolved key via WithMessage so
// operators can tell which master-data category needs populating.
var (
	ErrNoActiveRecord = &AppError{Code: "NO_ACTIVE_RECORD", Message: "No active record for this key", StatusCode: http.StatusUnprocessableEntity}
	ErrMissingPrice   = &AppError{Code: "MISSING_PRICE", Message: "No standard price or LME+FAB pair could be resolved", StatusCode: http.StatusUnprocessableEntity}
	ErrMissingRate    = &AppError{Code: "MISSING_RATE", Message: "No active exchange rate for the requested currency pair", StatusCode: http.StatusUnprocessableEntity}
	ErrMissingFactor  = &AppError{Code: "MISSING_FACTOR", Message: "No active selling factor for the customer's pricing pattern", StatusCode: http.StatusUnprocessableEntity}

	// ErrCurrencyMismatch flags LME/FAB pairs recorded in different
	// currencies; the composer cannot convert.
	ErrCurrencyMismatch = &AppError{Code: "CURRENCY_MISMATCH", Message: "Paired master-data records are in different currencies", StatusCode: http.StatusUnprocessableEntity}
)

// Reference-data errors.
var (
	ErrCustomerNotFound    = &AppError{Code: "CUSTOMER_NOT_FOUND", Message: "Customer not found", StatusCode: http.StatusNotFound}
	ErrProductNotFound     = &AppError{Code: "PRODUCT_NOT_FOUND", Message: "Product not found", StatusCode: http.StatusNotFound}
	ErrRawMaterialNotFound = &AppError{Code: "RAW_MATERIAL_NOT_FOUND", Message: "Raw material not found", StatusCode: http.StatusNotFound}
	ErrEmptyBOM            = &AppError{Code: "EMPTY_BOM", Message: "Product has no bill of materials", StatusCode: http.StatusUnprocessableEntity}
	ErrDuplicateCode       = &AppError{Code: "DUPLICATE_CODE", Message: "A record with this code already exists", StatusCode: http.StatusConflict}
)

// Snapshot errors.
var (
	ErrSnapshotNotFound = &AppError{Code: "SNAPSHOT_NOT_FOUND", Message: "Price calculation snapshot not found", StatusCode: http.StatusNotFound}
)
