package core

// SignBus delivers messages to signs and collects their replies. The
// shared RS-485 bus is half-duplex, so exchanges are strictly one
// request and at most one response.
//
// ProcessMessage returns (nil, nil) when the message expects no
// response, and also when a response was expected but none arrived
// before the bus timeout. Callers decide whether silence is an error.
type SignBus interface {
	ProcessMessage(msg Message) (Message, error)
}
