package serial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alusch/flipdot/core"
)

const (
	// Signs need a pause after each data chunk before the next frame.
	sendDataDelay = 30 * time.Millisecond
	// Polling too fast while a page load or show is underway confuses
	// the firmware, so back off after a busy report.
	busyStateDelay = 100 * time.Millisecond
)

// Bus drives signs attached to a shared serial port. It implements
// core.SignBus and is safe for concurrent use; exchanges are serialized
// because the bus is half-duplex.
type Bus struct {
	transport Transport
	codec     core.Codec
	timeout   time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// BusConfig holds configuration for creating a new Bus.
type BusConfig struct {
	// Transport is the underlying communication transport.
	// If nil, Port must be specified to open a serial connection.
	Transport Transport

	// Port is the serial port path (e.g., "/dev/ttyUSB0").
	// Ignored if Transport is provided.
	Port string

	// BaudRate is the communication speed. Default is 19200.
	BaudRate int

	// Timeout to wait for a sign's response. Default is 1 second.
	Timeout time.Duration

	// Checksum overrides the frame checksum function. Default is the
	// wrapping-subtraction check the signs use.
	Checksum core.ChecksumFunc

	// Logger receives a debug line per message exchanged. Default is
	// a no-op logger.
	Logger *zap.Logger
}

// NewBus creates a sign bus with the given configuration.
func NewBus(cfg BusConfig) (*Bus, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	transport := cfg.Transport
	if transport == nil {
		if cfg.Port == "" {
			return nil, errors.New("either Transport or Port must be specified")
		}
		var err error
		transport, err = OpenPort(PortConfig{
			Port:     cfg.Port,
			BaudRate: cfg.BaudRate,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port: %w", err)
		}
	}

	return &Bus{
		transport: transport,
		codec:     core.Codec{Checksum: cfg.Checksum},
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}, nil
}

// Close closes the bus and releases resources.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	return b.transport.Close()
}

// ProcessMessage sends one message and collects the sign's reply, if
// the message is one that gets a reply. A (nil, nil) return means no
// response was expected, or none arrived before the timeout.
func (b *Bus) ProcessMessage(msg core.Message) (core.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	b.logger.Debug("sending message", zap.Stringer("message", msg))

	// A late reply to an earlier timed-out request must not be taken
	// as the answer to this one.
	if err := b.transport.Flush(); err != nil {
		return nil, &BusError{Op: "flush", Err: err}
	}

	line := b.codec.EncodeLine(msg.Frame())
	n, err := b.transport.Write(line)
	if err != nil {
		return nil, &BusError{Op: "write", Err: err}
	}
	if n != len(line) {
		return nil, &BusError{Op: "write", Err: fmt.Errorf("incomplete write: %d of %d bytes", n, len(line))}
	}

	if _, ok := msg.(core.SendData); ok {
		time.Sleep(sendDataDelay)
	}

	if !expectsResponse(msg) {
		return nil, nil
	}

	raw, err := b.readLineLocked()
	if err != nil {
		return nil, &BusError{Op: "read", Err: err}
	}
	if len(raw) == 0 {
		b.logger.Debug("no response before timeout")
		return nil, nil
	}

	frame, err := b.codec.Decode(raw)
	if err != nil {
		return nil, &BusError{Op: "decode", Err: err}
	}
	resp, err := core.MessageFromFrame(frame)
	if err != nil {
		return nil, &BusError{Op: "decode", Err: err}
	}

	b.logger.Debug("received message", zap.Stringer("message", resp))

	if rs, ok := resp.(core.ReportState); ok {
		switch rs.State {
		case core.StatePageLoadInProgress, core.StatePageShowInProgress:
			time.Sleep(busyStateDelay)
		}
	}

	return resp, nil
}

// expectsResponse reports whether the sign answers the given message.
// Everything else is fire-and-forget on the half-duplex bus.
func expectsResponse(msg core.Message) bool {
	switch msg.(type) {
	case core.Hello, core.QueryState, core.RequestOperation:
		return true
	}
	return false
}

// readLineLocked collects one newline-terminated frame from the
// transport. An empty return with a nil error means the sign stayed
// silent until the timeout.
func (b *Bus) readLineLocked() ([]byte, error) {
	deadline := time.Now().Add(b.timeout)
	var line []byte
	buf := make([]byte, 64)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		b.transport.SetReadTimeout(remaining)

		n, err := b.transport.Read(buf)
		line = append(line, buf[:n]...)
		if bytes.IndexByte(line, '\n') >= 0 {
			break
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if n == 0 {
			// Transport timeout with nothing buffered.
			break
		}
	}

	return line, nil
}
