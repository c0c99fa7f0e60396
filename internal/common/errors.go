package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline failure taxonomy. Wrapped with %w at every boundary so callers
// can classify with errors.Is.
var (
	// ErrImageDecode: input bytes are not an image. Non-retryable per image.
	ErrImageDecode = errors.New("image decode failed")
	// ErrExtraction: the model call itself failed (network, rate limit, auth).
	ErrExtraction = errors.New("extraction failed")
	// ErrExtractionParse: the model answered but not with valid schema JSON.
	ErrExtractionParse = errors.New("extraction response did not match schema")
	// ErrCategorization: model-tier categorization failed. Degrades, never surfaces.
	ErrCategorization = errors.New("categorization failed")
	// ErrLedgerAppend: ledger I/O failed after retries. Fatal for the record.
	ErrLedgerAppend = errors.New("ledger append failed")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
