package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeUnsupportedURL      ErrorCode = "UNSUPPORTED_URL"
	ErrorCodeExtractionFailed    ErrorCode = "EXTRACTION_FAILED"
	ErrorCodeMalformedDescriptor ErrorCode = "MALFORMED_DESCRIPTOR"
	ErrorCodeFormatNotFound      ErrorCode = "FORMAT_NOT_FOUND"
	ErrorCodeNoUsableFormat      ErrorCode = "NO_USABLE_FORMAT"
	ErrorCodeTranscodeFailed     ErrorCode = "TRANSCODE_FAILED"
	ErrorCodeStorageFailed       ErrorCode = "STORAGE_FAILED"
	ErrorCodeValidationError     ErrorCode = "VALIDATION_ERROR"
	ErrorCodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// AppError is the only error shape that reaches the HTTP layer. Err keeps the
// underlying cause for logging and errors.Is; it is never serialized.
type AppError struct {
	Code       ErrorCode              `json:"error_kind"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Err        error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// AsAppError returns err as an *AppError, falling back to an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	internal := NewInternalError()
	internal.Err = err
	return internal
}

// Common error constructors
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewUnsupportedURLError(link string, err error) *AppError {
	return &AppError{
		Code:       ErrorCodeUnsupportedURL,
		Message:    "The provided URL is not supported",
		StatusCode: http.StatusBadRequest,
		Details:    map[string]interface{}{"provided": link},
		Err:        err,
	}
}

func NewExtractionError(err error) *AppError {
	return &AppError{
		Code:       ErrorCodeExtractionFailed,
		Message:    "Failed to extract media from the source platform",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewMalformedDescriptorError(err error) *AppError {
	return &AppError{
		Code:       ErrorCodeMalformedDescriptor,
		Message:    "The source platform returned an unreadable format list",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewFormatNotFoundError(formatID string, err error) *AppError {
	return &AppError{
		Code:       ErrorCodeFormatNotFound,
		Message:    fmt.Sprintf("Format %s is not available for this URL", formatID),
		StatusCode: http.StatusNotFound,
		Err:        err,
	}
}

func NewNoUsableFormatError(err error) *AppError {
	return &AppError{
		Code:       ErrorCodeNoUsableFormat,
		Message:    "Content unavailable: no downloadable format was found",
		StatusCode: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewTranscodeError(err error) *AppError {
	return &AppError{
		Code:       ErrorCodeTranscodeFailed,
		Message:    "Failed to process the downloaded media",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewStorageError(err error) *AppError {
	return &AppError{
		Code:       ErrorCodeStorageFailed,
		Message:    "Failed to store the downloaded media",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
