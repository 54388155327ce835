// Package core implements the low-level Luminator sign protocol: wire
// frames, the message vocabulary, sign configuration data, and page
// pixel buffers.
package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
)

// Address identifies a sign on the bus. Real signs respond to addresses
// in the range 2 through 126; 0, 1, and 127 and above are reserved.
type Address uint16

// MsgType discriminates how a frame's payload is interpreted.
// It carries no meaning on its own; see Message.
type MsgType uint8

// ChecksumFunc computes a frame's trailing check byte over the binary
// payload fields (data length, address, message type, data).
type ChecksumFunc func(payload []byte) byte

// ChecksumLRC is the longitudinal redundancy check used by Max3000 and
// Horizon signs: a wrapping subtraction of every payload byte from zero,
// equivalent to the two's complement of the byte sum.
func ChecksumLRC(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum -= b
	}
	return sum
}

// ChecksumXOR folds the payload with exclusive-or. No known Luminator
// family uses it; it exists for driving dialects with a different check.
func ChecksumXOR(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// Codec encodes and decodes frames with a particular checksum strategy.
// The zero value uses ChecksumLRC.
type Codec struct {
	Checksum ChecksumFunc
}

// Frame is the low-level representation of one Intel-HEX-style data frame.
//
// The wire format is a leading colon, two ASCII hex digits per payload
// byte (data length, 16-bit address, message type, data bytes, checksum),
// and an optional trailing CRLF:
//
//	: DataLen Address Address MsgType Data... Chksum [\r\n]
//
// Frame ascribes no meaning to the fields; that is Message's job.
type Frame struct {
	Address Address
	MsgType MsgType
	Data    []byte
}

// NewFrame constructs a frame, validating that the data length can be
// represented in the single-byte DataLen field.
func NewFrame(address Address, msgType MsgType, data []byte) (Frame, error) {
	if len(data) > 0xFF {
		return Frame{}, fmt.Errorf("%w: got %d bytes", ErrFrameDataTooLong, len(data))
	}
	return Frame{Address: address, MsgType: msgType, Data: data}, nil
}

// payload returns the binary fields over which the checksum is computed.
func (f Frame) payload() []byte {
	p := make([]byte, 0, 4+len(f.Data))
	p = append(p, byte(len(f.Data)))
	p = append(p, byte(f.Address>>8), byte(f.Address))
	p = append(p, byte(f.MsgType))
	p = append(p, f.Data...)
	return p
}

// String formats the frame in a human-readable way, useful when
// watching traffic on a bus. All numbers are in hex.
func (f Frame) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Type %02X | Addr %04X", uint8(f.MsgType), uint16(f.Address))
	if len(f.Data) > 0 {
		b.WriteString(" | Data")
		for _, d := range f.Data {
			fmt.Fprintf(&b, " %02X", d)
		}
	}
	return b.String()
}

func (c Codec) checksum() ChecksumFunc {
	if c.Checksum == nil {
		return ChecksumLRC
	}
	return c.Checksum
}

// Encode converts the frame to its wire format, without the trailing CRLF.
func (c Codec) Encode(f Frame) []byte {
	const hexDigits = "0123456789ABCDEF"

	payload := f.payload()
	payload = append(payload, c.checksum()(payload))

	out := make([]byte, 0, 1+2*len(payload)+2)
	out = append(out, ':')
	for _, b := range payload {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return out
}

// EncodeLine converts the frame to its wire format with the trailing CRLF.
func (c Codec) EncodeLine(f Frame) []byte {
	return append(c.Encode(f), '\r', '\n')
}

// Decode parses the wire format into a Frame. A trailing CRLF or bare LF
// is accepted and ignored. Structural problems yield a FrameError of kind
// FrameTruncated; a failed check yields FrameChecksumMismatch.
func (c Codec) Decode(input []byte) (Frame, error) {
	line := bytes.TrimSuffix(input, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})

	if len(line) == 0 || line[0] != ':' {
		return Frame{}, &FrameError{Kind: FrameTruncated, Input: input, Detail: "missing start colon"}
	}
	digits := line[1:]
	if len(digits)%2 != 0 {
		return Frame{}, &FrameError{Kind: FrameTruncated, Input: input, Detail: "odd number of hex digits"}
	}

	payload := make([]byte, hex.DecodedLen(len(digits)))
	if _, err := hex.Decode(payload, digits); err != nil {
		return Frame{}, &FrameError{Kind: FrameTruncated, Input: input, Detail: "invalid hex digit"}
	}
	if len(payload) < 5 {
		return Frame{}, &FrameError{Kind: FrameTruncated, Input: input, Detail: "frame too short"}
	}

	dataLen := int(payload[0])
	if len(payload) != 5+dataLen {
		return Frame{}, &FrameError{
			Kind:   FrameTruncated,
			Input:  input,
			Detail: fmt.Sprintf("declared %d data bytes, found %d", dataLen, len(payload)-5),
		}
	}

	want := c.checksum()(payload[:len(payload)-1])
	got := payload[len(payload)-1]
	if want != got {
		return Frame{}, &FrameError{
			Kind:   FrameChecksumMismatch,
			Input:  input,
			Detail: fmt.Sprintf("expected %02X, got %02X", want, got),
		}
	}

	data := make([]byte, dataLen)
	copy(data, payload[4:4+dataLen])

	return Frame{
		Address: Address(uint16(payload[1])<<8 | uint16(payload[2])),
		MsgType: MsgType(payload[3]),
		Data:    data,
	}, nil
}

// WriteFrame writes the frame's wire representation, including CRLF.
func (c Codec) WriteFrame(w io.Writer, f Frame) error {
	_, err := w.Write(c.EncodeLine(f))
	return err
}

// ReadFrame reads one line (up to '\n') from the reader and decodes it.
// A final unterminated line at EOF is decoded as well.
func (c Codec) ReadFrame(r io.Reader) (Frame, error) {
	line, err := readLine(r)
	if err != nil {
		return Frame{}, err
	}
	return c.Decode(line)
}

// readLine accumulates bytes through the next '\n'. Single-byte reads
// keep us from consuming the following frame on a shared stream.
func readLine(r io.Reader) ([]byte, error) {
	var line []byte
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n > 0 {
			line = append(line, one[0])
			if one[0] == '\n' {
				return line, nil
			}
		}
		if err == io.EOF {
			if len(line) > 0 {
				return line, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
	}
}

// ToBytes encodes the frame using the default LRC codec, without CRLF.
func (f Frame) ToBytes() []byte {
	return Codec{}.Encode(f)
}

// ToBytesWithNewline encodes the frame using the default LRC codec,
// including the trailing CRLF.
func (f Frame) ToBytesWithNewline() []byte {
	return Codec{}.EncodeLine(f)
}

// ParseFrame decodes wire bytes using the default LRC codec.
func ParseFrame(input []byte) (Frame, error) {
	return Codec{}.Decode(input)
}
