package dsl

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes request failures.
type ErrorKind string

const (
	// ErrMalformedOperator indicates an argument of the wrong shape, such as
	// a two-entry object for an operator expecting a single pair.
	ErrMalformedOperator ErrorKind = "MALFORMED_OPERATOR"

	// ErrDepthExceeded indicates a query chain at or over the depth ceiling.
	ErrDepthExceeded ErrorKind = "DEPTH_EXCEEDED"

	// ErrSizeExceeded indicates a serialized request over the size ceiling.
	ErrSizeExceeded ErrorKind = "SIZE_EXCEEDED"

	// ErrUnsupportedOperator indicates a valid operator with no mapping on
	// the target backend.
	ErrUnsupportedOperator ErrorKind = "UNSUPPORTED_OPERATOR"

	// ErrUnrecognizedBoundKey indicates a range bound other than
	// $gt, $gte, $lt, $lte.
	ErrUnrecognizedBoundKey ErrorKind = "UNRECOGNIZED_BOUND_KEY"

	// ErrInvalidRequest indicates an envelope that is not valid JSON or
	// uses unknown keys or tokens.
	ErrInvalidRequest ErrorKind = "INVALID_REQUEST"

	// ErrNodeNotReady indicates a builder was handed a node with required
	// fields left empty.
	ErrNodeNotReady ErrorKind = "NODE_NOT_READY"

	// ErrInvalidAction indicates an update action that cannot be applied to
	// a document (wrong target type, missing rename source, ...).
	ErrInvalidAction ErrorKind = "INVALID_ACTION"
)

// Error is a typed request failure. Token and Field identify the offending
// operator and field when known.
type Error struct {
	Kind    ErrorKind
	Token   string
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Token != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (token=%s, field=%s)", e.Kind, msg, e.Token, e.Field)
	case e.Token != "":
		return fmt.Sprintf("%s: %s (token=%s)", e.Kind, msg, e.Token)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, msg, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with a formatted message.
func NewError(kind ErrorKind, token, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Token: token, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Malformed creates an ErrMalformedOperator error for token.
func Malformed(token, field, format string, args ...any) *Error {
	return NewError(ErrMalformedOperator, token, field, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err wraps an *Error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsMalformed returns true if err is a malformed-operator error.
func IsMalformed(err error) bool { return IsKind(err, ErrMalformedOperator) }

// IsDepthExceeded returns true if err is a depth-exceeded error.
func IsDepthExceeded(err error) bool { return IsKind(err, ErrDepthExceeded) }

// IsSizeExceeded returns true if err is a size-exceeded error.
func IsSizeExceeded(err error) bool { return IsKind(err, ErrSizeExceeded) }

// IsUnsupported returns true if err is an unsupported-operator error.
func IsUnsupported(err error) bool { return IsKind(err, ErrUnsupportedOperator) }

// IsUnrecognizedBound returns true if err is an unrecognized-bound-key error.
func IsUnrecognizedBound(err error) bool { return IsKind(err, ErrUnrecognizedBoundKey) }
