package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrPortRangeExhausted is returned when no port in the range could be bound.
	ErrPortRangeExhausted = errors.New("transport: port range exhausted")

	// ErrFamilyMismatch is returned when sending to an address the socket cannot reach.
	ErrFamilyMismatch = errors.New("transport: address family mismatch")

	// ErrListenerClosed is returned when adding a socket to a closed listener.
	ErrListenerClosed = errors.New("transport: listener closed")
)

// BindError reports the port range Bind attempted.
type BindError struct {
	BasePort  int
	PortRange int
	Err       error
}

// Error returns the error message with the attempted range.
func (e *BindError) Error() string {
	return fmt.Sprintf("transport: bind ports %d-%d: %v", e.BasePort, e.BasePort+e.PortRange, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *BindError) Unwrap() error {
	return e.Err
}
