package signtest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alusch/flipdot/core"
	"github.com/alusch/flipdot/serial"
)

// Real ODKs poll their signs continuously, so anything over a few
// seconds of silence means the connection is dead.
const odkReadTimeout = 10 * time.Second

// Odk connects a real ODK over a serial port to a SignBus, usually a
// VirtualSignBus, in order to study the bus traffic or inspect the
// pages of pixel data the ODK sends.
type Odk struct {
	transport serial.Transport
	bus       core.SignBus
	codec     core.Codec
	logger    *zap.Logger
}

// NewOdk creates an Odk bridging the given transport and bus.
func NewOdk(transport serial.Transport, bus core.SignBus) (*Odk, error) {
	if err := transport.SetReadTimeout(odkReadTimeout); err != nil {
		return nil, fmt.Errorf("failed to configure odk transport: %w", err)
	}
	return &Odk{transport: transport, bus: bus, logger: zap.NewNop()}, nil
}

// SetLogger directs the bridge's diagnostics somewhere other than the
// default no-op logger.
func (o *Odk) SetLogger(logger *zap.Logger) {
	o.logger = logger
}

// ProcessMessage reads the next frame from the ODK, forwards it to the
// attached bus, and sends the response, if any, back to the ODK. Call
// it in a loop. Frames that carry no recognizable message are logged
// and dropped so an unfamiliar ODK dialect cannot stall the bridge.
func (o *Odk) ProcessMessage() error {
	frame, err := o.codec.ReadFrame(o.transport)
	if err != nil {
		return fmt.Errorf("failed to read frame from odk: %w", err)
	}
	msg, err := core.MessageFromFrame(frame)
	if err != nil {
		o.logger.Warn("dropping unrecognized frame", zap.Stringer("frame", frame), zap.Error(err))
		return nil
	}

	resp, err := o.bus.ProcessMessage(msg)
	if err != nil {
		return fmt.Errorf("bus failed to process message: %w", err)
	}

	if resp != nil {
		if err := o.codec.WriteFrame(o.transport, resp.Frame()); err != nil {
			return fmt.Errorf("failed to write response to odk: %w", err)
		}
	}
	return nil
}
