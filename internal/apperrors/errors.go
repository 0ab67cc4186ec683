// Package apperrors defines the error taxonomy shared by every component so
// the MCP layer can map any failure to a single response shape with a short
// kind tag and a human-readable message.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy entries. String value doubles as the tag sent
// back to the host agent.
type Kind string

const (
	ConfigInvalid   Kind = "ConfigInvalid"
	IoFailure       Kind = "IoFailure"
	ParseError      Kind = "ParseError"
	ExtractError    Kind = "ExtractError"
	StoreBusy       Kind = "StoreBusy"
	StoreInvariant  Kind = "StoreInvariant"
	ModelUnavailable Kind = "ModelUnavailable"
	Timeout         Kind = "Timeout"
	NotFound        Kind = "NotFound"
	InvalidArgument Kind = "InvalidArgument"
)

// Error wraps an underlying error with a taxonomy Kind and the operation
// that failed, supporting errors.Is/As so callers can branch on Kind without
// string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs a tagged error. Err may be nil when the kind itself is the
// whole story (e.g. a bare NotFound).
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Retryable reports whether the taxonomy kind is one the caller should back
// off and retry rather than surface immediately.
func Retryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case StoreBusy, IoFailure, Timeout:
			return true
		}
	}
	return false
}

// KindOf extracts the taxonomy Kind from err, defaulting to an empty Kind
// (treated as an uncategorized internal error) when err was never wrapped
// with apperrors.E.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
