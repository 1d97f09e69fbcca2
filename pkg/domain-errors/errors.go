// Package domainerrors provides coded errors for the benefit engine.
//
// Services translate infrastructure sentinels (pkg/platform/sentinel) into
// coded errors at the service boundary; transports translate codes into
// protocol responses. Callers match on codes with HasCode rather than on
// error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are part of the engine's contract:
// the presentation layer branches on them, so they are stable strings.
type Code string

const (
	// CodeInvalidInput marks malformed input rejected before any write.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks a referenced application or beneficiary that does
	// not exist.
	CodeNotFound Code = "not_found"

	// CodeDuplicateBenefit marks an attempted second lifetime grant of the
	// same milestone. Expected during idempotent re-runs, never fatal.
	CodeDuplicateBenefit Code = "duplicate_benefit"

	// CodeInvalidTransition marks an illegal status change. The message
	// names the attempted source and target states verbatim.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeUnavailable marks a transient storage failure that survived the
	// bounded retry at the storage boundary.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks unexpected failures. Details are logged, not
	// returned to callers.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error with a static message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not
// a coded error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf returns the message of a coded error, or the raw error text for
// uncoded errors.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
