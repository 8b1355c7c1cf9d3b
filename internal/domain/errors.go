package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies pipeline failures for job records and API responses.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "validation_error"
	ErrCodeFile               ErrorCode = "file_error"
	ErrCodeExtraction         ErrorCode = "extraction_error"
	ErrCodeEnrichment         ErrorCode = "enrichment_error"
	ErrCodeSchema             ErrorCode = "schema_error"
	ErrCodeTimeout            ErrorCode = "timeout_error"
	ErrCodeCancelled          ErrorCode = "cancelled_error"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrCodeInternal           ErrorCode = "internal_error"
)

// Error carries a taxonomy code next to a human-readable message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// CodeOf extracts the taxonomy code from err, defaulting to internal_error.
func CodeOf(err error) ErrorCode {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ErrCodeInternal
}
