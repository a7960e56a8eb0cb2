// Package apperr defines the error kinds surfaced by the API and their HTTP
// status mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of request failure
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindDatabase   Kind = "database"
	KindInternal   Kind = "internal"
)

// ValidationError reports missing or invalid request input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a resource or selector that does not exist
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// DatabaseError wraps a failure from the database layer
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Validation returns a ValidationError for the given field
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFound returns a NotFoundError for the given resource
func NotFound(resource, message string) error {
	return &NotFoundError{Resource: resource, Message: message}
}

// Database wraps err as a DatabaseError. A nil err stays nil and an error
// that is already a DatabaseError is returned unchanged.
func Database(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	return &DatabaseError{Op: op, Err: err}
}

// KindOf classifies err. Unrecognized errors are KindInternal.
func KindOf(err error) Kind {
	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var dbErr *DatabaseError

	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &dbErr):
		return KindDatabase
	default:
		return KindInternal
	}
}

// Status maps err to an HTTP status code
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that is safe to show to API clients.
// Database and internal failures never leak driver detail.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindValidation, KindNotFound:
		return err.Error()
	case KindDatabase:
		return "Database error"
	default:
		return "Internal server error"
	}
}
