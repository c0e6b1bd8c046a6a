// Package apperr defines the application error taxonomy shared by the
// service layer and the HTTP boundary. Every error that crosses a package
// boundary is tagged with a Code so handlers can map it to a status without
// inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// FieldViolation describes a single invalid field in a request payload.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Code    Code             `json:"code"`
	Message string           `json:"message"`
	Details []FieldViolation `json:"details,omitempty"`
	Cause   error            `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

// Validation carries the full per-field violation list so the caller can
// render every problem in one round trip.
func Validation(msg string, details []FieldViolation) error {
	return &Error{Code: CodeInvalidArgument, Message: msg, Details: details}
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func AlreadyExists(msg string) error {
	return New(CodeAlreadyExists, msg)
}

func Unauthorized(msg string) error {
	return New(CodeUnauthenticated, msg)
}

func Forbidden(msg string) error {
	return New(CodePermissionDenied, msg)
}

func Internal(msg string) error {
	return New(CodeInternal, msg)
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown for errors that
// never got tagged.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// DetailsOf returns the field violations attached to err, if any.
func DetailsOf(err error) []FieldViolation {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Details
	}
	return nil
}
