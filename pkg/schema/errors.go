package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaNotFound is returned when a schema resource does not exist.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrSchemaParse is returned when schema bytes are not a well-formed field mapping.
	ErrSchemaParse = errors.New("schema parse error")

	// ErrInvalidConstraint is returned when a field declares a bound or default
	// that does not fit its type.
	ErrInvalidConstraint = errors.New("invalid constraint")

	// ErrUnsupportedType is returned for unknown type tokens in strict mode.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ParseError reports a malformed schema document.
type ParseError struct {
	Field  string // empty when the failure is at document level
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaParse, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrSchemaParse, e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrSchemaParse }

// CompileError reports a field that could not be compiled.
type CompileError struct {
	Field string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Cause classifies a single field failure.
type Cause string

const (
	MissingRequiredField Cause = "MissingRequiredField"
	TypeMismatch         Cause = "TypeMismatch"
	OutOfRange           Cause = "OutOfRange"
	TooShort             Cause = "TooShort"
	TooLong              Cause = "TooLong"
	UnexpectedField      Cause = "UnexpectedField"
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Cause  Cause  `json:"cause"`
	Reason string `json:"reason"`
	Value  any    `json:"value,omitempty"`
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s: %s", e.Field, e.Cause, e.Reason)
	}
	return fmt.Sprintf("field %q: %s: %s (got %T)", e.Field, e.Cause, e.Reason, e.Value)
}

// ValidationError carries every field failure found in one record.
type ValidationError struct {
	Causes []*FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Causes) == 1 {
		return e.Causes[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Causes))
	for i, c := range e.Causes {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, c.Error())
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Causes returns the field failures if err is (or wraps) a *ValidationError.
// Otherwise returns nil.
func Causes(err error) []*FieldError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Causes
	}
	return nil
}
