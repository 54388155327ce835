package serial

import (
	"errors"
	"fmt"
)

// ErrBusClosed is returned when a message is sent on a closed bus.
var ErrBusClosed = errors.New("bus is closed")

// BusError represents a failure of the serial exchange itself, as
// opposed to a protocol-level problem with what a sign said.
type BusError struct {
	Op  string // Operation that failed (e.g., "read", "write", "decode")
	Err error  // Underlying error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus error during %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
