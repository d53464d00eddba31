package protocol

import (
	"errors"
	"fmt"
)

// Header errors. Parse wraps each of them in a *ParseError.
var (
	ErrPacketTooSmall = errors.New("protocol: packet too small")
	ErrPacketTooLarge = errors.New("protocol: packet too large")
	ErrBadSignature   = errors.New("protocol: bad signature")
	ErrBadVersion     = errors.New("protocol: unsupported version")
	ErrBadPacketType  = errors.New("protocol: invalid packet type")
	ErrSizeMismatch   = errors.New("protocol: payload size does not match datagram length")
)

// Payload errors.
var (
	ErrPayloadTruncated = errors.New("protocol: payload truncated")
	ErrMissingField     = errors.New("protocol: missing required field")
	ErrStringTooLong    = errors.New("protocol: string exceeds limit")
	ErrPayloadTooLarge  = errors.New("protocol: payload too large")
	ErrBadActionType    = errors.New("protocol: invalid action type")
)

// ParseError reports which part of a datagram or payload failed to decode.
type ParseError struct {
	Type  PacketType // Zero when the header itself failed
	Field string
	Err   error
}

// Error returns the error message with the failing field.
func (e *ParseError) Error() string {
	if e.Type == 0 {
		return fmt.Sprintf("%v (%s)", e.Err, e.Field)
	}
	return fmt.Sprintf("%v (%s.%s)", e.Err, e.Type, e.Field)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func headerError(field string, err error) *ParseError {
	return &ParseError{Field: field, Err: err}
}

func payloadError(pt PacketType, field string, err error) *ParseError {
	return &ParseError{Type: pt, Field: field, Err: err}
}
