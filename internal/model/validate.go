package model

import (
	"fmt"
	"strings"
)

// ValidationError holds the per-field errors returned with a recipe.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
// Path locates the field in the recipe tree (see FieldPath); Field is the
// bare key shown to users.
type FieldError struct {
	Field   string
	Path    string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// PerField groups messages by field key, preserving order.
func (e *ValidationError) PerField() map[string][]string {
	m := make(map[string][]string, len(e.Errors))
	for _, fe := range e.Errors {
		m[fe.Field] = append(m[fe.Field], fe.Message)
	}
	return m
}

// PerPath groups messages by field path, preserving order. Errors without a
// path are keyed by their bare field key.
func (e *ValidationError) PerPath() map[string][]string {
	m := make(map[string][]string, len(e.Errors))
	for _, fe := range e.Errors {
		p := fe.Path
		if p == "" {
			p = fe.Field
		}
		m[p] = append(m[p], fe.Message)
	}
	return m
}

// TransportError is a connectivity or timeout failure. It is not retried
// beyond whatever the transport itself does.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response or an envelope-level failure.
type ServerError struct {
	StatusCode   int
	Code         string
	HumanMessage string
	Err          error // *DeserializationError when the payload was malformed
}

func (e *ServerError) Error() string {
	msg := e.HumanMessage
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Code != "" && e.StatusCode != 0:
		return fmt.Sprintf("server error %s (HTTP %d): %s", e.Code, e.StatusCode, msg)
	case e.Code != "":
		return fmt.Sprintf("server error %s: %s", e.Code, msg)
	default:
		return fmt.Sprintf("server error (HTTP %d): %s", e.StatusCode, msg)
	}
}

func (e *ServerError) Unwrap() error { return e.Err }

// DeserializationError means the payload did not have the expected shape.
// Clients wrap it in a *ServerError; it never reaches callers bare.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return "unexpected payload: " + e.Err.Error()
}

func (e *DeserializationError) Unwrap() error { return e.Err }
