package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryIdentifier Category = "identifier"
	CategoryLifecycle  Category = "lifecycle"
	CategoryHost       Category = "host"
	CategoryConfig     Category = "config"
	CategoryProtocol   Category = "protocol"
	CategorySnapshot   Category = "snapshot"
)

// KinesisError is a structured error with a code, detail and suggestion.
type KinesisError struct {
	// Code is a unique error identifier (e.g., "K101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *KinesisError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *KinesisError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a KinesisError with the same code.
func (e *KinesisError) Is(target error) bool {
	t, ok := target.(*KinesisError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *KinesisError) WithDetail(d string) *KinesisError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *KinesisError) WithDetailf(format string, args ...any) *KinesisError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *KinesisError) WithSuggestion(s string) *KinesisError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *KinesisError) Wrap(err error) *KinesisError {
	e.Wrapped = err
	return e
}

// New creates a KinesisError from a registered error code.
func New(code string) *KinesisError {
	template, ok := registry[code]
	if !ok {
		return &KinesisError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &KinesisError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new KinesisError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *KinesisError {
	return &KinesisError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a KinesisError.
func FromError(err error, code string) *KinesisError {
	if err == nil {
		return nil
	}
	var ke *KinesisError
	if stderrors.As(err, &ke) {
		return ke
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a KinesisError with code.
func HasCode(err error, code string) bool {
	var ke *KinesisError
	if !stderrors.As(err, &ke) {
		return false
	}
	return ke.Code == code
}

// IsProgramming reports whether v (typically a recovered panic value) is an
// identifier or lifecycle misuse.
func IsProgramming(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var ke *KinesisError
	if !stderrors.As(err, &ke) {
		return false
	}
	return ke.Category == CategoryIdentifier || ke.Category == CategoryLifecycle
}
