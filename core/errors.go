package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrFrameDataTooLong = errors.New("frame data length must fit in a single byte")
	ErrNoResponse       = errors.New("no response from sign")
	ErrWrongConfigLen   = errors.New("sign configuration data must be 16 bytes")
	ErrUnknownConfig    = errors.New("configuration data does not match any known sign")
)

// FrameErrorKind classifies why a byte sequence could not be understood.
type FrameErrorKind int

const (
	// FrameTruncated indicates the input was too short or structurally
	// malformed: missing start colon, bad hex, or a data length that
	// does not match the declared count.
	FrameTruncated FrameErrorKind = iota + 1

	// FrameUnknownKind indicates a structurally valid frame whose message
	// type and payload match no known message.
	FrameUnknownKind

	// FrameChecksumMismatch indicates the trailing check byte did not match
	// the computed checksum.
	FrameChecksumMismatch
)

func (k FrameErrorKind) String() string {
	switch k {
	case FrameTruncated:
		return "truncated"
	case FrameUnknownKind:
		return "unknown kind"
	case FrameChecksumMismatch:
		return "checksum mismatch"
	}
	return fmt.Sprintf("frame error %d", int(k))
}

// FrameError reports an undecodable or uninterpretable frame.
// The input never produces a usable message; callers treat all kinds
// as "no usable response".
type FrameError struct {
	Kind   FrameErrorKind
	Input  []byte // offending wire bytes, if available
	Detail string
}

func (e *FrameError) Error() string {
	if len(e.Input) > 0 {
		return fmt.Sprintf("invalid frame (%s): %s: %q", e.Kind, e.Detail, e.Input)
	}
	return fmt.Sprintf("invalid frame (%s): %s", e.Kind, e.Detail)
}

// IsFrameError extracts a FrameError from an error chain, if present.
func IsFrameError(err error) (*FrameError, bool) {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr, true
	}
	return nil, false
}

// ProtocolErrorKind classifies request/response protocol violations.
type ProtocolErrorKind int

const (
	// UnexpectedResponse means the device answered with something other
	// than what the protocol calls for at this point in the exchange.
	UnexpectedResponse ProtocolErrorKind = iota + 1

	// OperationInProgress means a new operation was requested while a
	// previous request was still awaiting its acknowledgement.
	OperationInProgress

	// NotConfigured means a page operation was attempted before the sign
	// was configured.
	NotConfigured

	// NakReceived means the device explicitly refused the requested
	// operation. This is recoverable; the caller may retry from scratch.
	NakReceived
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case UnexpectedResponse:
		return "unexpected response"
	case OperationInProgress:
		return "operation already in progress"
	case NotConfigured:
		return "sign not configured"
	case NakReceived:
		return "operation refused"
	}
	return fmt.Sprintf("protocol error %d", int(k))
}

// ProtocolError reports that a device did not follow the sign protocol,
// or that the caller used the API out of order.
type ProtocolError struct {
	Address  Address
	Kind     ProtocolErrorKind
	Expected string // expected response, when applicable
	Actual   string // actual response, when applicable
}

func (e *ProtocolError) Error() string {
	if e.Expected != "" || e.Actual != "" {
		return fmt.Sprintf("sign %d: %s: expected %s, got %s", e.Address, e.Kind, e.Expected, e.Actual)
	}
	return fmt.Sprintf("sign %d: %s", e.Address, e.Kind)
}

// IsProtocolError extracts a ProtocolError from an error chain, if present.
func IsProtocolError(err error) (*ProtocolError, bool) {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr, true
	}
	return nil, false
}

// IsNak reports whether err represents a refused operation,
// the one protocol failure that is safe to retry.
func IsNak(err error) bool {
	protoErr, ok := IsProtocolError(err)
	return ok && protoErr.Kind == NakReceived
}

func unexpectedResponse(addr Address, expected string, actual Message) *ProtocolError {
	actualStr := "no response"
	if actual != nil {
		actualStr = actual.String()
	}
	return &ProtocolError{
		Address:  addr,
		Kind:     UnexpectedResponse,
		Expected: expected,
		Actual:   actualStr,
	}
}
