package models

import "errors"

// Error taxonomy for the ingestion pipeline.
//
// InputError and DecodeError are fatal to a request and surfaced to the
// caller. Transient and permanent service errors only ever degrade the
// optional refinement stage; they are classified in the refine package.

// InputError covers unsupported file types and fetch failures.
type InputError struct {
	msg string
}

func NewInputError(msg string) *InputError { return &InputError{msg: msg} }

func (e *InputError) Error() string { return e.msg }

// DecodeError covers image or PDF bytes that cannot be decoded.
type DecodeError struct {
	msg   string
	cause error
}

func NewDecodeError(msg string, cause error) *DecodeError {
	return &DecodeError{msg: msg, cause: cause}
}

func (e *DecodeError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *DecodeError) Unwrap() error { return e.cause }

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}
