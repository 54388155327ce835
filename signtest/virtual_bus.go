package signtest

import (
	"sync"

	"go.uber.org/zap"

	"github.com/alusch/flipdot/core"
)

// VirtualSignBus is an emulated bus containing one or more virtual
// signs. It implements core.SignBus, so a controller can be pointed at
// it instead of a serial port.
//
// Messages are offered to each sign in turn; the first response wins.
// Data transfer messages carry no address and produce no response, so
// every sign sees them, just like on the real shared bus.
type VirtualSignBus struct {
	mu     sync.Mutex
	signs  []*VirtualSign
	logger *zap.Logger
}

// NewVirtualSignBus creates a bus holding the given signs.
func NewVirtualSignBus(signs ...*VirtualSign) *VirtualSignBus {
	return &VirtualSignBus{signs: signs, logger: zap.NewNop()}
}

// Sign returns the sign at a specific index matching the original
// order passed to NewVirtualSignBus. Useful for verifying properties
// of an individual sign in tests.
func (b *VirtualSignBus) Sign(index int) *VirtualSign {
	return b.signs[index]
}

// SetLogger directs the bus's and every sign's diagnostics somewhere
// other than the default no-op logger.
func (b *VirtualSignBus) SetLogger(logger *zap.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger = logger
	for _, sign := range b.signs {
		sign.SetLogger(logger)
	}
}

// ProcessMessage offers the message to each sign until one responds.
func (b *VirtualSignBus) ProcessMessage(msg core.Message) (core.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Debug("bus message", zap.Stringer("message", msg))
	for _, sign := range b.signs {
		if resp := sign.ProcessMessage(msg); resp != nil {
			b.logger.Debug("sign response",
				zap.Uint16("addr", uint16(sign.Addr())),
				zap.Stringer("message", resp))
			return resp, nil
		}
	}
	return nil, nil
}
