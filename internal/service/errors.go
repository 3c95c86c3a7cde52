package service

import (
	"errors"
	"strings"

	"backoffice/internal/authz"
)

// Error kinds surfaced to handlers. Classify with errors.Is.
var (
	ErrUnauthorized = authz.ErrUnauthenticated
	ErrForbidden    = authz.ErrForbidden
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError carries per-field problems. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(flds ...FieldError) error {
	return &ValidationError{Fields: flds}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// fieldErrors collects problems so they are reported together.
type fieldErrors []FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, FieldError{Field: field, Error: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError(f...)
}
