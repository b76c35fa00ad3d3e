// errors.go - Error taxonomy shared by the extractor and the document parser

package ai

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure so callers can react without string matching
type Kind string

const (
	// KindMissingCredential: no usable credential was supplied. No network call was made.
	KindMissingCredential Kind = "missing_credential"
	// KindExtractionFailed: transport error, non-2xx status or an unreadable response body.
	KindExtractionFailed Kind = "extraction_failed"
	// KindMalformedExtraction: the reply arrived but could not be parsed as a JSON object.
	KindMalformedExtraction Kind = "malformed_extraction"
	// KindUnknownFieldKind: the caller asked for a field kind with no instruction.
	KindUnknownFieldKind Kind = "unknown_field_kind"
)

// Error is the single error type returned by this package
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Raw     string // unparsed reply text, set for KindMalformedExtraction
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func wrapError(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// IsKind checks whether any error in the chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or "" if there is none.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}

// RawReply returns the unparsed reply carried by a malformed-extraction error.
func RawReply(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Raw
	}
	return ""
}
