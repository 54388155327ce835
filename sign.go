package flipdot

import (
	"sync"

	"go.uber.org/zap"

	"github.com/alusch/flipdot/core"
)

// A corrupted transfer is retried from the top this many times before
// giving up.
const maxSendAttempts = 3

// Sign is a high-level handle to one sign on a bus. It hides the
// protocol dance behind four steps: Configure, SendPages, then
// ShowLoadedPage and LoadNextPage to flip between the pages.
//
// A Sign is safe for concurrent use, though operations are serialized
// since the underlying bus is half-duplex.
type Sign struct {
	bus      core.SignBus
	addr     core.Address
	signType core.SignType
	logger   *zap.Logger

	mu         sync.Mutex
	dev        *core.DeviceState
	configured bool
}

// NewSign creates a handle to the sign of the given type at the given
// address. No communication happens until Configure is called.
func NewSign(bus core.SignBus, addr core.Address, signType core.SignType) *Sign {
	return &Sign{
		bus:      bus,
		addr:     addr,
		signType: signType,
		logger:   zap.NewNop(),
		dev:      core.NewDeviceState(addr),
	}
}

// Addr returns the sign's address.
func (s *Sign) Addr() core.Address {
	return s.addr
}

// SignType returns the sign's model.
func (s *Sign) SignType() core.SignType {
	return s.signType
}

// Width returns the display width in pixels.
func (s *Sign) Width() uint32 {
	w, _ := s.signType.Dimensions()
	return w
}

// Height returns the display height in pixels.
func (s *Sign) Height() uint32 {
	_, h := s.signType.Dimensions()
	return h
}

// CreatePage returns a blank page sized for this sign's display.
func (s *Sign) CreatePage(id core.PageID) core.Page {
	return s.signType.NewPage(id)
}

// SetLogger directs the sign's diagnostics somewhere other than the
// default no-op logger.
func (s *Sign) SetLogger(logger *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Configure resets the sign if necessary and sends it the
// configuration for its type. Must be called once before pages can be
// sent; a sign that is already mid-session is walked back to its
// unconfigured state first.
func (s *Sign) Configure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUnconfigured(); err != nil {
		return &SignError{Address: s.addr, Op: "configure", Err: err}
	}
	config := [][]byte{s.signType.ConfigBytes()}
	if err := s.sendData(config, core.OpReceiveConfig, core.StateConfigReceived, core.StateConfigFailed); err != nil {
		return &SignError{Address: s.addr, Op: "configure", Err: err}
	}
	s.configured = true
	return nil
}

// SendPages transfers pages of pixel data to the sign, replacing any
// it already had, and reports how the sign flips between them. Manual
// signs sit on the first page until told otherwise; automatic signs
// cycle through the pages on their own, and ShowLoadedPage and
// LoadNextPage become no-ops.
func (s *Sign) SendPages(pages []core.Page) (core.PageFlipStyle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const op = "send pages"
	if err := s.checkConfigured(op); err != nil {
		return core.PageFlipManual, &SignError{Address: s.addr, Op: op, Err: err}
	}

	data := make([][]byte, len(pages))
	for i, page := range pages {
		data[i] = page.Bytes()
	}
	if err := s.sendData(data, core.OpReceivePixels, core.StatePixelsReceived, core.StatePixelsFailed); err != nil {
		return core.PageFlipManual, &SignError{Address: s.addr, Op: op, Err: err}
	}

	if err := s.sendNoResponse(core.PixelsComplete{Addr: s.addr}); err != nil {
		return core.PageFlipManual, &SignError{Address: s.addr, Op: op, Err: err}
	}

	state, err := s.queryState()
	if err != nil {
		return core.PageFlipManual, &SignError{Address: s.addr, Op: op, Err: err}
	}
	if state == core.StateShowingPages {
		return core.PageFlipAutomatic, nil
	}
	return core.PageFlipManual, nil
}

// ShowLoadedPage puts the currently loaded page onto the display.
func (s *Sign) ShowLoadedPage() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.switchPage(core.StatePageShown, core.StatePageLoaded, core.OpShowLoadedPage, "show loaded page")
	if err != nil {
		return &SignError{Address: s.addr, Op: "show loaded page", Err: err}
	}
	return nil
}

// LoadNextPage loads the next stored page into memory, ready to be
// shown. Pages wrap around after the last one.
func (s *Sign) LoadNextPage() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.switchPage(core.StatePageLoaded, core.StatePageShown, core.OpLoadNextPage, "load next page")
	if err != nil {
		return &SignError{Address: s.addr, Op: "load next page", Err: err}
	}
	return nil
}

// ShutDown blanks the display and shuts the sign down. The sign is
// unusable for roughly 30 seconds afterwards, then acts as if freshly
// powered on and must be configured again.
func (s *Sign) ShutDown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sendNoResponse(core.Goodbye{Addr: s.addr}); err != nil {
		return &SignError{Address: s.addr, Op: "shut down", Err: err}
	}
	s.configured = false
	return nil
}

func (s *Sign) checkConfigured(op string) error {
	if s.configured {
		return nil
	}
	return &core.ProtocolError{
		Address:  s.addr,
		Kind:     core.NotConfigured,
		Expected: "Configure to have been called",
		Actual:   op,
	}
}

// ensureUnconfigured walks the sign back to the Unconfigured state,
// resetting it first if it is somewhere else in its lifecycle.
func (s *Sign) ensureUnconfigured() error {
	state, err := s.helloState()
	if err != nil {
		return err
	}

	switch state {
	case core.StateUnconfigured:
		return nil

	case core.StateReadyToReset:
		// A previous session died partway through a reset.
		if err := s.requestOperation(core.OpFinishReset); err != nil {
			return err
		}
		return s.expectHelloState(core.StateUnconfigured)

	default:
		s.logger.Debug("resetting sign",
			zap.Uint16("addr", uint16(s.addr)),
			zap.Stringer("state", state))
		if err := s.requestOperation(core.OpStartReset); err != nil {
			return err
		}
		if err := s.expectHelloState(core.StateReadyToReset); err != nil {
			return err
		}
		if err := s.requestOperation(core.OpFinishReset); err != nil {
			return err
		}
		return s.expectHelloState(core.StateUnconfigured)
	}
}

// sendData performs one complete data transfer: request the operation,
// stream the data in 16-byte chunks, report the chunk count, and
// verify the sign landed in the success state. Corrupted transfers are
// retried from the top.
func (s *Sign) sendData(items [][]byte, op core.Operation, success, failure core.State) error {
	for attempt := 1; ; attempt++ {
		if err := s.requestOperation(op); err != nil {
			return err
		}

		var chunks core.ChunkCount
		for _, item := range items {
			for i := 0; i < len(item); i += 16 {
				end := i + 16
				if end > len(item) {
					end = len(item)
				}
				msg := core.SendData{Offset: core.Offset(i), Data: item[i:end]}
				if err := s.sendNoResponse(msg); err != nil {
					return err
				}
				chunks++
			}
		}

		if err := s.sendNoResponse(core.DataChunksSent{Count: chunks}); err != nil {
			return err
		}

		state, err := s.queryState()
		if err != nil {
			return err
		}
		if state == failure && attempt < maxSendAttempts {
			s.logger.Warn("data transfer corrupted, retrying",
				zap.Uint16("addr", uint16(s.addr)),
				zap.Int("attempt", attempt))
			continue
		}
		if state != success {
			return s.unexpected(success.String(), core.ReportState{Addr: s.addr, State: state})
		}
		return nil
	}
}

// switchPage drives the load/show state machine until the sign reaches
// the target state, issuing the operation whenever the sign is resting
// in the trigger state.
func (s *Sign) switchPage(target, trigger core.State, op core.Operation, what string) error {
	if err := s.checkConfigured(what); err != nil {
		return err
	}

	for {
		state, err := s.queryState()
		if err != nil {
			return err
		}

		switch state {
		case core.StateShowingPages:
			// The sign is flipping pages itself, nothing to do.
			s.logger.Warn("sign flips pages automatically, ignoring request",
				zap.Uint16("addr", uint16(s.addr)),
				zap.String("request", what))
			return nil

		case target:
			return nil

		case trigger:
			if err := s.requestOperation(op); err != nil {
				return err
			}

		case core.StatePageLoadInProgress, core.StatePageShowInProgress:
			// Busy, poll again.

		default:
			return s.unexpected(trigger.String()+" or "+target.String(),
				core.ReportState{Addr: s.addr, State: state})
		}
	}
}

// requestOperation asks the sign to perform an operation and waits for
// the acknowledgement.
func (s *Sign) requestOperation(op core.Operation) error {
	if err := s.dev.Begin(op); err != nil {
		return err
	}
	resp, err := s.bus.ProcessMessage(core.RequestOperation{Addr: s.addr, Op: op})
	if err != nil {
		s.dev.Resolve(nil)
		return err
	}
	return s.dev.Resolve(resp)
}

// queryState polls the sign for its current state.
func (s *Sign) queryState() (core.State, error) {
	resp, err := s.bus.ProcessMessage(core.QueryState{Addr: s.addr})
	if err != nil {
		return 0, err
	}
	return s.stateFromResponse(resp)
}

// helloState discovers the sign and returns its current state.
func (s *Sign) helloState() (core.State, error) {
	resp, err := s.bus.ProcessMessage(core.Hello{Addr: s.addr})
	if err != nil {
		return 0, err
	}
	return s.stateFromResponse(resp)
}

// expectHelloState discovers the sign and verifies it is in the given
// state.
func (s *Sign) expectHelloState(want core.State) error {
	state, err := s.helloState()
	if err != nil {
		return err
	}
	if state != want {
		return s.unexpected(want.String(), core.ReportState{Addr: s.addr, State: state})
	}
	return nil
}

func (s *Sign) stateFromResponse(resp core.Message) (core.State, error) {
	if resp == nil {
		return 0, core.ErrNoResponse
	}
	report, ok := resp.(core.ReportState)
	if !ok || report.Addr != s.addr {
		return 0, s.unexpected("ReportState from this sign", resp)
	}
	return report.State, nil
}

func (s *Sign) sendNoResponse(msg core.Message) error {
	resp, err := s.bus.ProcessMessage(msg)
	if err != nil {
		return err
	}
	if resp != nil {
		return s.unexpected("no response", resp)
	}
	return nil
}

func (s *Sign) unexpected(expected string, actual core.Message) error {
	perr := &core.ProtocolError{
		Address:  s.addr,
		Kind:     core.UnexpectedResponse,
		Expected: expected,
	}
	if actual != nil {
		perr.Actual = actual.String()
	} else {
		perr.Actual = "no response"
	}
	return perr
}
