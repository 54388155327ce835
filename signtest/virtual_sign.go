// Package signtest provides an emulated sign bus for exercising
// controllers without hardware, plus a bridge for driving the emulation
// from a real ODK over a serial port.
package signtest

import (
	"go.uber.org/zap"

	"github.com/alusch/flipdot/core"
)

// VirtualSign emulates a single sign on a VirtualSignBus. It holds the
// sign's protocol state and the pages it has received.
//
// While most likely not a 100% accurate emulation of the firmware, it
// is sufficient for interacting with a real ODK. One deliberate
// liberty: where real firmware stays silent when asked to perform an
// operation its state does not allow, VirtualSign answers with a
// NakOperation so tests fail fast instead of timing out.
type VirtualSign struct {
	addr   core.Address
	style  core.PageFlipStyle
	logger *zap.Logger

	state       core.State
	pages       []core.Page
	pendingData []byte
	dataChunks  uint16
	width       uint32
	height      uint32
	signType    core.SignType
	loadedPage  int
	shownPage   int
}

// NewVirtualSign creates an unconfigured sign with the given address.
// The style controls what happens once pixel data is complete: manual
// signs wait for explicit page operations, automatic signs enter the
// self-running ShowingPages state and cycle pages on their own.
func NewVirtualSign(addr core.Address, style core.PageFlipStyle) *VirtualSign {
	return &VirtualSign{
		addr:   addr,
		style:  style,
		logger: zap.NewNop(),
		state:  core.StateUnconfigured,
	}
}

// Addr returns the sign's address.
func (s *VirtualSign) Addr() core.Address {
	return s.addr
}

// State returns the sign's current protocol state.
func (s *VirtualSign) State() core.State {
	return s.state
}

// SignType returns the model matching the received configuration. The
// second return is false until a known configuration arrives.
func (s *VirtualSign) SignType() (core.SignType, bool) {
	return s.signType, s.signType != 0
}

// Pages returns the pages received so far. Empty until a pixel
// transfer completes, and after a reset.
func (s *VirtualSign) Pages() []core.Page {
	return s.pages
}

// ShownPage returns the index of the page currently on the display.
// Manual signs show the page that was loaded when ShowLoadedPage was
// last requested; automatic signs advance it on every state poll.
func (s *VirtualSign) ShownPage() int {
	return s.shownPage
}

// SetLogger directs the sign's diagnostics somewhere other than the
// default no-op logger.
func (s *VirtualSign) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// ProcessMessage handles one bus message, updating state accordingly.
// A nil return means this sign has nothing to say, either because the
// message is addressed elsewhere or expects no response.
func (s *VirtualSign) ProcessMessage(msg core.Message) core.Message {
	switch m := msg.(type) {
	case core.Hello:
		if m.Addr == s.addr {
			return s.queryState()
		}
	case core.QueryState:
		if m.Addr == s.addr {
			return s.queryState()
		}
	case core.SendData:
		s.receiveData(m.Offset, m.Data)
	case core.DataChunksSent:
		s.chunksSent(m.Count)
	case core.RequestOperation:
		if m.Addr == s.addr {
			return s.requestOperation(m.Op)
		}
	case core.PixelsComplete:
		if m.Addr == s.addr {
			s.pixelsComplete()
		}
	case core.Goodbye:
		if m.Addr == s.addr {
			s.reset()
		}
	}
	return nil
}

func (s *VirtualSign) queryState() core.Message {
	state := s.state

	// Loading and showing pages takes no actual work here, so flip to
	// the final state for the next time we get asked.
	switch state {
	case core.StatePageLoadInProgress:
		s.state = core.StatePageLoaded
	case core.StatePageShowInProgress:
		s.state = core.StatePageShown
	case core.StateShowingPages:
		if len(s.pages) > 0 {
			s.shownPage = (s.shownPage + 1) % len(s.pages)
		}
	}

	return core.ReportState{Addr: s.addr, State: state}
}

func (s *VirtualSign) requestOperation(op core.Operation) core.Message {
	allowed := false
	switch op {
	case core.OpReceiveConfig:
		switch s.state {
		case core.StateUnconfigured, core.StateConfigFailed:
			s.state = core.StateConfigInProgress
			allowed = true
		}

	case core.OpReceivePixels:
		switch s.state {
		case core.StateConfigReceived, core.StatePixelsFailed,
			core.StatePageLoaded, core.StatePageLoadInProgress,
			core.StatePageShown, core.StatePageShowInProgress:
			s.state = core.StatePixelsInProgress
			s.pages = nil
			s.loadedPage = 0
			s.shownPage = 0
			allowed = true
		}

	case core.OpShowLoadedPage:
		if s.state == core.StatePageLoaded {
			s.state = core.StatePageShowInProgress
			s.shownPage = s.loadedPage
			allowed = true
		}

	case core.OpLoadNextPage:
		if s.state == core.StatePageShown {
			s.state = core.StatePageLoadInProgress
			if len(s.pages) > 0 {
				s.loadedPage = (s.loadedPage + 1) % len(s.pages)
			}
			allowed = true
		}

	case core.OpStartReset:
		s.state = core.StateReadyToReset
		allowed = true

	case core.OpFinishReset:
		if s.state == core.StateReadyToReset {
			s.reset()
			allowed = true
		}
	}

	if !allowed {
		return core.NakOperation{Addr: s.addr, Op: op}
	}
	return core.AckOperation{Addr: s.addr, Op: op}
}

func (s *VirtualSign) receiveData(offset core.Offset, data []byte) {
	if s.state == core.StateConfigInProgress && offset == 0 && len(data) == core.ConfigBlockLen {
		signType, err := core.SignTypeFromConfig(data)
		if err == nil {
			s.signType = signType
		}

		width, height := core.ConfigDimensions(data)
		if width == 0 || height == 0 {
			// Unrecognized config family, let the chunk count mismatch.
			return
		}

		if err == nil {
			s.logger.Info("sign configured",
				zap.Uint16("addr", uint16(s.addr)),
				zap.Stringer("type", signType))
		} else {
			s.logger.Warn("unknown sign configuration",
				zap.Uint16("addr", uint16(s.addr)),
				zap.Uint32("width", width),
				zap.Uint32("height", height))
		}

		s.width = width
		s.height = height
		s.dataChunks++
	} else if s.state == core.StatePixelsInProgress {
		if offset == 0 {
			s.flushPixels()
		}
		s.pendingData = append(s.pendingData, data...)
		s.dataChunks++
	}
}

func (s *VirtualSign) chunksSent(count core.ChunkCount) {
	if core.ChunkCount(s.dataChunks) == count {
		switch s.state {
		case core.StateConfigInProgress:
			s.state = core.StateConfigReceived
		case core.StatePixelsInProgress:
			s.state = core.StatePixelsReceived
		}
	} else {
		switch s.state {
		case core.StateConfigInProgress:
			s.state = core.StateConfigFailed
		case core.StatePixelsInProgress:
			s.state = core.StatePixelsFailed
		}
	}
	s.flushPixels()
	s.dataChunks = 0
}

func (s *VirtualSign) pixelsComplete() {
	if s.state != core.StatePixelsReceived {
		return
	}
	if s.style == core.PageFlipAutomatic {
		s.state = core.StateShowingPages
	} else {
		s.state = core.StatePageLoaded
	}
	for _, page := range s.pages {
		s.logger.Info("page received",
			zap.Uint16("addr", uint16(s.addr)),
			zap.Uint8("page", uint8(page.ID())),
			zap.String("pixels", "\n"+page.String()))
	}
}

// flushPixels converts the buffered pixel data into a Page.
func (s *VirtualSign) flushPixels() {
	if len(s.pendingData) == 0 {
		return
	}
	data := s.pendingData
	s.pendingData = nil
	if s.width > 0 && s.height > 0 {
		page, err := core.PageFromBytes(s.width, s.height, data)
		if err != nil {
			s.logger.Warn("discarding malformed page data",
				zap.Uint16("addr", uint16(s.addr)),
				zap.Error(err))
			return
		}
		s.pages = append(s.pages, page)
	}
}

// reset returns the sign to its initial unconfigured state. Used for
// the reset and shutdown operations.
func (s *VirtualSign) reset() {
	s.state = core.StateUnconfigured
	s.pages = nil
	s.pendingData = nil
	s.dataChunks = 0
	s.width = 0
	s.height = 0
	s.signType = 0
	s.loadedPage = 0
	s.shownPage = 0
}
