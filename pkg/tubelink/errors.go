// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import "fmt"

// DecodeErrorKind classifies frame decode failures.
type DecodeErrorKind int

// Decode failure kinds
const (
	InvalidLength DecodeErrorKind = iota
	InvalidMode
)

// DecodeError reports a rejected inbound frame. Frame-scoped and non-fatal:
// the stream continues and the failure is only reflected in link statistics.
type DecodeError struct {
	Kind    DecodeErrorKind
	Message string
}

func (e *DecodeError) Error() string {
	return e.Message
}

func errInvalidLength(n int) *DecodeError {
	return &DecodeError{
		Kind:    InvalidLength,
		Message: fmt.Sprintf("invalid frame length: %d bytes (want %d)", n, FrameSize),
	}
}

func errInvalidModeByte(b byte) *DecodeError {
	return &DecodeError{
		Kind:    InvalidMode,
		Message: fmt.Sprintf("invalid mode byte: 0x%02X (known modes 0-3)", b),
	}
}

// ValidationError reports a rejected command submission. Surfaced
// synchronously to the caller; the command is not encoded or sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// EncodePreconditionError reports an out-of-range Command handed to
// EncodeCommand. Submit clamps all numeric fields, so this only fires when a
// caller constructs a Command by hand and skips validation.
type EncodePreconditionError struct {
	Field string
	Value int
	Max   int
}

func (e *EncodePreconditionError) Error() string {
	return fmt.Sprintf("encode precondition violated: %s=%d (max %d)", e.Field, e.Value, e.Max)
}

// LinkError reports a failed read or write on the serial link. Fatal to the
// current LinkReader instance; reconnection is the caller's responsibility
// and requires a fresh LinkReader and SampleWindow.
type LinkError struct {
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link error: %v", e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}
