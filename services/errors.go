package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the services. Handlers map them onto HTTP
// status codes; wrap with fmt.Errorf("%w: ...") to attach detail.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
)

type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationError carries field-level input failures.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a field failure and returns the error for chaining.
func (e *ValidationError) Add(field, message string, value interface{}) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Value: value})
	return e
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
