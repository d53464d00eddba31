package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for client admission and packet handling.
var (
	// ErrMaxClientsReached is returned when a new client arrives at capacity.
	ErrMaxClientsReached = errors.New("server: max clients reached")

	// ErrBadFragment is returned for a fragment whose sequence number is
	// outside 1..total.
	ErrBadFragment = errors.New("server: invalid fragment sequence")

	// ErrFragmentMismatch is returned when fragments of one message disagree
	// on type.
	ErrFragmentMismatch = errors.New("server: fragment type mismatch")

	// ErrNotRunning is returned when an operation needs a started server.
	ErrNotRunning = errors.New("server: not running")

	// ErrUnsupportedPacket is returned for reserved packet types.
	ErrUnsupportedPacket = errors.New("server: unsupported packet type")
)

// ClientError wraps an error with client context for debugging.
type ClientError struct {
	Token uint32
	Op    string // Operation that failed
	Err   error  // Underlying error
}

// Error returns the error message with client context.
func (e *ClientError) Error() string {
	return fmt.Sprintf("server: client %#x: %s: %v", e.Token, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError.
func NewClientError(token uint32, op string, err error) *ClientError {
	return &ClientError{
		Token: token,
		Op:    op,
		Err:   err,
	}
}
