package core

// DeviceState tracks the single operation a controller may have
// outstanding against one sign. Requesting a second operation before
// the first resolves is a protocol violation, caught here rather than
// on the wire.
type DeviceState struct {
	addr    Address
	pending *Operation
}

// NewDeviceState returns a tracker for the sign at the given address.
func NewDeviceState(addr Address) *DeviceState {
	return &DeviceState{addr: addr}
}

// Addr returns the tracked sign's address.
func (d *DeviceState) Addr() Address {
	return d.addr
}

// Begin records an operation request about to be sent. It fails with a
// ProtocolError of kind OperationInProgress if a previous request has
// not resolved.
func (d *DeviceState) Begin(op Operation) error {
	if d.pending != nil {
		return &ProtocolError{
			Address:  d.addr,
			Kind:     OperationInProgress,
			Expected: "resolution of " + d.pending.String(),
			Actual:   op.String(),
		}
	}
	d.pending = &op
	return nil
}

// Resolve consumes the sign's response to the pending request. A
// matching AckOperation from the tracked address resolves cleanly; a
// matching NakOperation fails with NakReceived; a nil response fails
// with ErrNoResponse; a response from any other sign, or anything
// else, fails with UnexpectedResponse. The pending slot is cleared in
// every case.
func (d *DeviceState) Resolve(resp Message) error {
	op := d.pending
	d.pending = nil
	if op == nil {
		return unexpectedResponse(d.addr, "no pending operation", resp)
	}

	switch m := resp.(type) {
	case nil:
		return ErrNoResponse
	case AckOperation:
		if m.Addr == d.addr && m.Op == *op {
			return nil
		}
	case NakOperation:
		if m.Addr == d.addr && m.Op == *op {
			return &ProtocolError{
				Address:  d.addr,
				Kind:     NakReceived,
				Expected: "Ack for " + op.String(),
				Actual:   m.String(),
			}
		}
	}
	return unexpectedResponse(d.addr, "Ack for "+op.String(), resp)
}
