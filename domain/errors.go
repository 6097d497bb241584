package domain

import (
	"fmt"
	"strings"
)

type ErrorCode string

const (
	ErrCodeInvalidSymbol   = ErrorCode("InvalidSymbol")
	ErrCodeInvalidNumber   = ErrorCode("InvalidNumber")
	ErrCodeInvalidRange    = ErrorCode("InvalidRange")
	ErrCodeInvalidSide     = ErrorCode("InvalidSide")
	ErrCodeMissingField    = ErrorCode("MissingField")
	ErrCodeUnexpectedField = ErrorCode("UnexpectedField")
)

type ValidationError struct {
	Code    ErrorCode
	Field   string
	message string
}

func NewValidationError(code ErrorCode, field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Field: field, message: fmt.Sprintf(format, args...)}
}

func (validationError *ValidationError) Error() string {
	return validationError.message
}

// ValidationErrors collects every rule an order request breaks so the user
// sees all of them at once instead of fixing them one by one.
type ValidationErrors []*ValidationError

func (validationErrors ValidationErrors) Error() string {
	messages := make([]string, 0, len(validationErrors))
	for _, validationError := range validationErrors {
		messages = append(messages, validationError.Error())
	}

	return strings.Join(messages, "; ")
}

func (validationErrors ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(validationErrors))
	for _, validationError := range validationErrors {
		errs = append(errs, validationError)
	}

	return errs
}

func (validationErrors ValidationErrors) Has(code ErrorCode) bool {
	for _, validationError := range validationErrors {
		if validationError.Code == code {
			return true
		}
	}

	return false
}

type APIError struct {
	Code       int64  `json:"code"`
	Msg        string `json:"msg"`
	HTTPStatus int    `json:"-"`
}

func (apiError *APIError) Error() string {
	return fmt.Sprintf("Binance API Error [%d]: %s", apiError.Code, apiError.Msg)
}

type TransportError struct {
	Op  string
	Err error
}

func (transportError *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", transportError.Op, transportError.Err)
}

func (transportError *TransportError) Unwrap() error {
	return transportError.Err
}

type NoPositionError struct {
	Symbol string
}

func (noPositionError *NoPositionError) Error() string {
	return fmt.Sprintf("No open position to close for %s", noPositionError.Symbol)
}
