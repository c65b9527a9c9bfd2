package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type StatusError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Code, e.Message, e.Reason)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Is matches on code and message so that reasoned copies still compare
// equal to the sentinel they were derived from.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func NewStatusError(code int, message string) *StatusError {
	return &StatusError{
		Code:    code,
		Message: message,
	}
}

// WithReason returns a copy carrying reason. Sentinels are never mutated.
func (e *StatusError) WithReason(reason string) *StatusError {
	cp := *e
	cp.Reason = reason
	return &cp
}

// WithCode returns a copy with a different HTTP status.
func (e *StatusError) WithCode(code int) *StatusError {
	cp := *e
	cp.Code = code
	return &cp
}

// AsStatus extracts a *StatusError from err, falling back to ErrInternal.
func AsStatus(err error) *StatusError {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	return ErrInternal.WithReason(err.Error())
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

var (
	// Authentication errors
	ErrInvalidToken = NewStatusError(http.StatusUnauthorized, "invalid token")
	ErrUnauthorized = NewStatusError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = NewStatusError(http.StatusForbidden, "forbidden")

	// Identifier errors
	ErrInvalidIdentifier = NewStatusError(http.StatusUnprocessableEntity, "invalid identifier")
	ErrNoIdentifiers     = NewStatusError(http.StatusBadRequest, "no IDs provided for deletion")

	// Validation errors
	ErrInvalidInput         = NewStatusError(http.StatusBadRequest, "invalid input")
	ErrValidationFailed     = NewStatusError(http.StatusUnprocessableEntity, "please correct the errors below")
	ErrMissingRequiredField = NewStatusError(http.StatusUnprocessableEntity, "missing required field")
	ErrNoChanges            = NewStatusError(http.StatusBadRequest, "no changes were provided for update")

	// Resource errors
	ErrNotFound      = NewStatusError(http.StatusNotFound, "resource not found")
	ErrUnknownEntity = NewStatusError(http.StatusNotFound, "unknown entity")
	ErrUnknownColumn = NewStatusError(http.StatusBadRequest, "unknown column")

	// Store Operation errors
	ErrStorageOperation  = NewStatusError(http.StatusBadRequest, "storage operation failed")
	ErrTransactionFailed = NewStatusError(http.StatusInternalServerError, "transaction failed")

	// Schema errors
	ErrInvalidFieldType = NewStatusError(http.StatusBadRequest, "invalid field type")
	ErrInvalidSchema    = NewStatusError(http.StatusInternalServerError, "invalid entity schema")

	// Server errors
	ErrInternal = NewStatusError(http.StatusInternalServerError, "internal server error")
)
