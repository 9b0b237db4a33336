// Package errors provides custom error types for the herdsnap API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional internal error and
// optional structured details returned to the caller.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
	Details    any    `json:"details,omitempty"`
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
		Details:    sentinel.Details,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
		Details:    sentinel.Details,
	}
}

// WithDetails creates a new AppError carrying a structured payload for the client.
func WithDetails(sentinel *AppError, details any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
		Details:    details,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput    = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound        = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrPayloadTooLarge = &AppError{Code: "PAYLOAD_TOO_LARGE", Message: "Uploaded file is too large", StatusCode: http.StatusRequestEntityTooLarge}
	ErrInternalServer  = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Census ingestion errors.
var (
	ErrInvalidCensusFile = &AppError{Code: "INVALID_CENSUS_FILE", Message: "The uploaded census could not be read", StatusCode: http.StatusBadRequest}
	ErrNoValidRows       = &AppError{Code: "NO_VALID_ROWS", Message: "No row of the census passed validation", StatusCode: http.StatusUnprocessableEntity}
	ErrStorageFailure    = &AppError{Code: "STORAGE_FAILURE", Message: "The snapshot could not be stored", StatusCode: http.StatusInternalServerError}
)

// Snapshot errors.
var (
	ErrSnapshotNotFound  = &AppError{Code: "SNAPSHOT_NOT_FOUND", Message: "Snapshot not found", StatusCode: http.StatusNotFound}
	ErrSnapshotForbidden = &AppError{Code: "SNAPSHOT_FORBIDDEN", Message: "You do not own this snapshot", StatusCode: http.StatusForbidden}
	ErrArchiveNotFound   = &AppError{Code: "ARCHIVE_NOT_FOUND", Message: "No archived upload for this snapshot", StatusCode: http.StatusNotFound}
)

// Payload returns the JSON body sent to clients: {"error": {code, message, details?}}.
func (e *AppError) Payload() map[string]any {
	body := map[string]any{"code": e.Code, "message": e.Message}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return map[string]any{"error": body}
}
