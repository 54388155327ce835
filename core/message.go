package core

import (
	"bytes"
	"fmt"
)

// Message types used on the wire.
const (
	msgTypeSendData       MsgType = 0x00
	msgTypeChunksSent     MsgType = 0x01
	msgTypeSignal         MsgType = 0x02
	msgTypeRequestOp      MsgType = 0x03
	msgTypeReportState    MsgType = 0x04
	msgTypeAckOp          MsgType = 0x05
	msgTypePixelsComplete MsgType = 0x06
	msgTypeNakOp          MsgType = 0x07
)

// Data bytes distinguishing the signal messages under msgTypeSignal.
const (
	signalHello      = 0xFF
	signalQueryState = 0x00
	signalGoodbye    = 0x55
)

// Offset is the memory offset carried by a SendData message. When
// sending 32 bytes in two 16-byte chunks, the first chunk has offset 0
// and the second offset 16.
type Offset uint16

// ChunkCount is the number of SendData chunks reported by DataChunksSent.
type ChunkCount uint16

// Message is a high-level protocol exchange unit, ascribing meaning to a
// Frame. The implementations form a closed set; dispatch with a type
// switch. Frames that match no implementation fail interpretation with a
// FrameError of kind FrameUnknownKind.
type Message interface {
	fmt.Stringer

	// Frame returns the message's wire representation.
	Frame() Frame

	isMessage()
}

// SendData carries one chunk of config or pixel data. The frame's
// address field is repurposed for the offset. No response is expected.
type SendData struct {
	Offset Offset
	Data   []byte
}

// DataChunksSent reports how many chunks were just sent, ending a data
// transfer. The frame's address field carries the count. No response is
// expected.
type DataChunksSent struct {
	Count ChunkCount
}

// Hello discovers the sign at the given address. A ReportState response
// is expected.
type Hello struct {
	Addr Address
}

// QueryState polls the sign at the given address for its current state.
// A ReportState response is expected.
type QueryState struct {
	Addr Address
}

// Goodbye tells the sign to blank its display and shut down. The sign is
// unusable for roughly 30 seconds afterwards. No response is expected.
type Goodbye struct {
	Addr Address
}

// ReportState is the sign's answer to Hello or QueryState.
type ReportState struct {
	Addr  Address
	State State
}

// RequestOperation asks the sign to perform an operation. An
// AckOperation or NakOperation response is expected.
type RequestOperation struct {
	Addr Address
	Op   Operation
}

// AckOperation is the sign's acceptance of a requested operation.
type AckOperation struct {
	Addr Address
	Op   Operation
}

// NakOperation is the sign's refusal of a requested operation, sent when
// the operation is not legal in its current state. Recoverable; the
// controller may retry the exchange from scratch.
type NakOperation struct {
	Addr Address
	Op   Operation
}

// PixelsComplete signals that all pages of pixel data have been
// transferred and the sign should load the first one. No response is
// expected.
type PixelsComplete struct {
	Addr Address
}

func (SendData) isMessage()         {}
func (DataChunksSent) isMessage()   {}
func (Hello) isMessage()            {}
func (QueryState) isMessage()       {}
func (Goodbye) isMessage()          {}
func (ReportState) isMessage()      {}
func (RequestOperation) isMessage() {}
func (AckOperation) isMessage()     {}
func (NakOperation) isMessage()     {}
func (PixelsComplete) isMessage()   {}

// Frame implementations. Messages always produce frames whose data fits
// the one-byte length field, so Frame construction cannot fail here.

func (m SendData) Frame() Frame {
	return Frame{Address: Address(m.Offset), MsgType: msgTypeSendData, Data: m.Data}
}

func (m DataChunksSent) Frame() Frame {
	return Frame{Address: Address(m.Count), MsgType: msgTypeChunksSent}
}

func (m Hello) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeSignal, Data: []byte{signalHello}}
}

func (m QueryState) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeSignal, Data: []byte{signalQueryState}}
}

func (m Goodbye) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeSignal, Data: []byte{signalGoodbye}}
}

func (m ReportState) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeReportState, Data: []byte{byte(m.State)}}
}

func (m RequestOperation) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeRequestOp, Data: []byte{m.Op.requestCode()}}
}

func (m AckOperation) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeAckOp, Data: []byte{m.Op.ackCode()}}
}

func (m NakOperation) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypeNakOp, Data: []byte{m.Op.requestCode()}}
}

func (m PixelsComplete) Frame() Frame {
	return Frame{Address: m.Addr, MsgType: msgTypePixelsComplete, Data: []byte{0x00}}
}

func (m SendData) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "SendData [Offset %04X]", uint16(m.Offset))
	for _, d := range m.Data {
		fmt.Fprintf(&b, " %02X", d)
	}
	return b.String()
}

func (m DataChunksSent) String() string {
	return fmt.Sprintf("DataChunksSent [%04X]", uint16(m.Count))
}

func (m Hello) String() string {
	return fmt.Sprintf("[Addr %04X] <-- Hello", uint16(m.Addr))
}

func (m QueryState) String() string {
	return fmt.Sprintf("[Addr %04X] <-- QueryState", uint16(m.Addr))
}

func (m Goodbye) String() string {
	return fmt.Sprintf("[Addr %04X] <-- Goodbye", uint16(m.Addr))
}

func (m ReportState) String() string {
	return fmt.Sprintf("[Addr %04X] --> ReportState [%s]", uint16(m.Addr), m.State)
}

func (m RequestOperation) String() string {
	return fmt.Sprintf("[Addr %04X] <-- RequestOperation [%s]", uint16(m.Addr), m.Op)
}

func (m AckOperation) String() string {
	return fmt.Sprintf("[Addr %04X] --> AckOperation [%s]", uint16(m.Addr), m.Op)
}

func (m NakOperation) String() string {
	return fmt.Sprintf("[Addr %04X] --> NakOperation [%s]", uint16(m.Addr), m.Op)
}

func (m PixelsComplete) String() string {
	return fmt.Sprintf("[Addr %04X] <-- PixelsComplete", uint16(m.Addr))
}

// MessageFromFrame interprets a decoded frame as a protocol message.
// Frames whose type or payload match no known message yield a FrameError
// of kind FrameUnknownKind.
func MessageFromFrame(f Frame) (Message, error) {
	switch f.MsgType {
	case msgTypeSendData:
		if len(f.Data) > 0 {
			data := make([]byte, len(f.Data))
			copy(data, f.Data)
			return SendData{Offset: Offset(f.Address), Data: data}, nil
		}

	case msgTypeChunksSent:
		if len(f.Data) == 0 {
			return DataChunksSent{Count: ChunkCount(f.Address)}, nil
		}

	case msgTypeSignal:
		if len(f.Data) == 1 {
			switch f.Data[0] {
			case signalHello:
				return Hello{Addr: f.Address}, nil
			case signalQueryState:
				return QueryState{Addr: f.Address}, nil
			case signalGoodbye:
				return Goodbye{Addr: f.Address}, nil
			}
		}

	case msgTypeReportState:
		if len(f.Data) == 1 {
			if state, ok := stateFromCode(f.Data[0]); ok {
				return ReportState{Addr: f.Address, State: state}, nil
			}
		}

	case msgTypeRequestOp:
		if len(f.Data) == 1 {
			if op, ok := operationFromRequest(f.Data[0]); ok {
				return RequestOperation{Addr: f.Address, Op: op}, nil
			}
		}

	case msgTypeAckOp:
		if len(f.Data) == 1 {
			if op, ok := operationFromAck(f.Data[0]); ok {
				return AckOperation{Addr: f.Address, Op: op}, nil
			}
		}

	case msgTypeNakOp:
		if len(f.Data) == 1 {
			if op, ok := operationFromRequest(f.Data[0]); ok {
				return NakOperation{Addr: f.Address, Op: op}, nil
			}
		}

	case msgTypePixelsComplete:
		if len(f.Data) == 1 && f.Data[0] == 0x00 {
			return PixelsComplete{Addr: f.Address}, nil
		}
	}

	return nil, &FrameError{
		Kind:   FrameUnknownKind,
		Detail: fmt.Sprintf("no message for frame %s", f),
	}
}

// State reports where a sign is in its lifecycle, carried by
// ReportState. The values are the wire codes.
type State byte

const (
	// StateUnconfigured is the initial state after power-on or reset.
	StateUnconfigured State = 0x0F
	// StateConfigInProgress means the sign is waiting for the 16-byte
	// configuration data.
	StateConfigInProgress State = 0x0D
	// StateConfigReceived means the configuration was received intact.
	StateConfigReceived State = 0x07
	// StateConfigFailed means the configuration transfer was corrupted.
	StateConfigFailed State = 0x0C
	// StatePixelsInProgress means the sign is waiting for pixel data.
	StatePixelsInProgress State = 0x03
	// StatePixelsReceived means the pixel data was received intact.
	StatePixelsReceived State = 0x01
	// StatePixelsFailed means the pixel transfer was corrupted.
	StatePixelsFailed State = 0x0B
	// StatePageLoaded means a page is in memory, ready to be shown.
	StatePageLoaded State = 0x10
	// StatePageLoadInProgress means a page is being loaded into memory.
	StatePageLoadInProgress State = 0x13
	// StatePageShown means the loaded page is on the display.
	StatePageShown State = 0x12
	// StatePageShowInProgress means the display is being updated.
	StatePageShowInProgress State = 0x11
	// StateReadyToReset means the sign is prepared to reset back to
	// StateUnconfigured.
	StateReadyToReset State = 0x08
	// StateShowingPages means the sign flips between its stored pages on
	// its own and ignores manual page operations.
	StateShowingPages State = 0x02
)

func stateFromCode(b byte) (State, bool) {
	switch State(b) {
	case StateUnconfigured, StateConfigInProgress, StateConfigReceived, StateConfigFailed,
		StatePixelsInProgress, StatePixelsReceived, StatePixelsFailed,
		StatePageLoaded, StatePageLoadInProgress, StatePageShown, StatePageShowInProgress,
		StateReadyToReset, StateShowingPages:
		return State(b), true
	}
	return 0, false
}

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "Unconfigured"
	case StateConfigInProgress:
		return "ConfigInProgress"
	case StateConfigReceived:
		return "ConfigReceived"
	case StateConfigFailed:
		return "ConfigFailed"
	case StatePixelsInProgress:
		return "PixelsInProgress"
	case StatePixelsReceived:
		return "PixelsReceived"
	case StatePixelsFailed:
		return "PixelsFailed"
	case StatePageLoaded:
		return "PageLoaded"
	case StatePageLoadInProgress:
		return "PageLoadInProgress"
	case StatePageShown:
		return "PageShown"
	case StatePageShowInProgress:
		return "PageShowInProgress"
	case StateReadyToReset:
		return "ReadyToReset"
	case StateShowingPages:
		return "ShowingPages"
	}
	return fmt.Sprintf("State(%02X)", byte(s))
}

// Operation is an action a controller can request of a sign via
// RequestOperation. The values are the request wire codes; each
// operation has a distinct acknowledgement code.
type Operation byte

const (
	// OpReceiveConfig prepares the sign to receive the 16-byte
	// configuration block.
	OpReceiveConfig Operation = 0xA1
	// OpReceivePixels prepares the sign to receive pages of pixel data,
	// discarding any stored pages.
	OpReceivePixels Operation = 0xA2
	// OpStartReset begins the reset back to StateUnconfigured.
	OpStartReset Operation = 0xA6
	// OpFinishReset completes the reset back to StateUnconfigured.
	OpFinishReset Operation = 0xA7
	// OpShowLoadedPage puts the page currently in memory on the display.
	OpShowLoadedPage Operation = 0xA9
	// OpLoadNextPage loads the next stored page into memory.
	OpLoadNextPage Operation = 0xAA
)

func (o Operation) requestCode() byte {
	return byte(o)
}

func (o Operation) ackCode() byte {
	switch o {
	case OpReceiveConfig:
		return 0x95
	case OpReceivePixels:
		return 0x91
	case OpStartReset:
		return 0x93
	case OpFinishReset:
		return 0x94
	case OpShowLoadedPage:
		return 0x96
	case OpLoadNextPage:
		return 0x97
	}
	return 0
}

func operationFromRequest(b byte) (Operation, bool) {
	switch Operation(b) {
	case OpReceiveConfig, OpReceivePixels, OpStartReset, OpFinishReset, OpShowLoadedPage, OpLoadNextPage:
		return Operation(b), true
	}
	return 0, false
}

func operationFromAck(b byte) (Operation, bool) {
	switch b {
	case 0x95:
		return OpReceiveConfig, true
	case 0x91:
		return OpReceivePixels, true
	case 0x93:
		return OpStartReset, true
	case 0x94:
		return OpFinishReset, true
	case 0x96:
		return OpShowLoadedPage, true
	case 0x97:
		return OpLoadNextPage, true
	}
	return 0, false
}

func (o Operation) String() string {
	switch o {
	case OpReceiveConfig:
		return "ReceiveConfig"
	case OpReceivePixels:
		return "ReceivePixels"
	case OpStartReset:
		return "StartReset"
	case OpFinishReset:
		return "FinishReset"
	case OpShowLoadedPage:
		return "ShowLoadedPage"
	case OpLoadNextPage:
		return "LoadNextPage"
	}
	return fmt.Sprintf("Operation(%02X)", byte(o))
}
