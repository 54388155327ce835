package serial

import (
	"errors"
	"fmt"
	"time"

	serialport "go.bug.st/serial"
)

// SerialPort is the Transport for a real RS-485 adapter attached as a
// serial device.
type SerialPort struct {
	port     serialport.Port
	portName string
}

// PortConfig holds configuration for opening a serial port.
type PortConfig struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// OpenPort opens a serial port with the given configuration. The signs
// speak 19200 baud 8N1, so that is the default.
func OpenPort(cfg PortConfig) (*SerialPort, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = 19200
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	mode := &serialport.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serialport.NoParity,
		StopBits: serialport.OneStopBit,
	}

	port, err := serialport.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &SerialPort{
		port:     port,
		portName: cfg.Port,
	}, nil
}

func (t *SerialPort) Read(p []byte) (int, error) {
	return t.port.Read(p)
}

func (t *SerialPort) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

func (t *SerialPort) Close() error {
	return t.port.Close()
}

func (t *SerialPort) SetReadTimeout(timeout time.Duration) error {
	return t.port.SetReadTimeout(timeout)
}

// Flush discards input the OS buffered before this exchange, such as
// a late reply to a request that already timed out.
func (t *SerialPort) Flush() error {
	return t.port.ResetInputBuffer()
}

// PortName returns the serial port name.
func (t *SerialPort) PortName() string {
	return t.portName
}
