// Package serial drives real signs over a shared RS-485 serial bus.
package serial

import (
	"io"
	"time"
)

// Transport is the byte stream the bus speaks over, either a real
// serial port or a mock standing in for one.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long a Read may block.
	SetReadTimeout(timeout time.Duration) error

	// Flush discards input buffered before the current exchange.
	Flush() error
}
