package signtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alusch/flipdot/core"
)

func checkerboardPage(id core.PageID, invert bool) core.Page {
	page := core.NewPage(id, 90, 7)
	for x := uint32(0); x < page.Width(); x++ {
		for y := uint32(0); y < page.Height(); y++ {
			on := x%2 == y%2
			if invert {
				on = !on
			}
			if err := page.SetPixel(x, y, on); err != nil {
				panic(err)
			}
		}
	}
	return page
}

// sendPage pushes a page's bytes to the sign in 16-byte chunks the way
// a controller would, polling the state between chunks.
func sendPage(t *testing.T, sign *VirtualSign, page core.Page) {
	t.Helper()

	resp := sign.ProcessMessage(core.RequestOperation{Addr: sign.Addr(), Op: core.OpReceivePixels})
	require.Equal(t, core.AckOperation{Addr: sign.Addr(), Op: core.OpReceivePixels}, resp)
	require.Empty(t, sign.Pages())

	data := page.Bytes()
	var chunks core.ChunkCount
	for i := 0; i < len(data); i += 16 {
		resp := sign.ProcessMessage(core.QueryState{Addr: sign.Addr()})
		require.Equal(t, core.ReportState{Addr: sign.Addr(), State: core.StatePixelsInProgress}, resp)

		resp = sign.ProcessMessage(core.SendData{Offset: core.Offset(i), Data: data[i : i+16]})
		require.Nil(t, resp)
		chunks++
	}

	resp = sign.ProcessMessage(core.DataChunksSent{Count: chunks})
	require.Nil(t, resp)

	resp = sign.ProcessMessage(core.QueryState{Addr: sign.Addr()})
	require.Equal(t, core.ReportState{Addr: sign.Addr(), State: core.StatePixelsReceived}, resp)

	resp = sign.ProcessMessage(core.PixelsComplete{Addr: sign.Addr()})
	require.Nil(t, resp)
}

func configureSign(t *testing.T, sign *VirtualSign, signType core.SignType) {
	t.Helper()

	resp := sign.ProcessMessage(core.RequestOperation{Addr: sign.Addr(), Op: core.OpReceiveConfig})
	require.Equal(t, core.AckOperation{Addr: sign.Addr(), Op: core.OpReceiveConfig}, resp)

	resp = sign.ProcessMessage(core.SendData{Offset: 0, Data: signType.ConfigBytes()})
	require.Nil(t, resp)

	resp = sign.ProcessMessage(core.DataChunksSent{Count: 1})
	require.Nil(t, resp)

	resp = sign.ProcessMessage(core.QueryState{Addr: sign.Addr()})
	require.Equal(t, core.ReportState{Addr: sign.Addr(), State: core.StateConfigReceived}, resp)
}

func TestSignLifecycle(t *testing.T) {
	page1 := checkerboardPage(0, false)
	page2 := checkerboardPage(1, true)

	sign := NewVirtualSign(3, core.PageFlipManual)
	assert.Equal(t, core.Address(3), sign.Addr())
	assert.Empty(t, sign.Pages())
	_, known := sign.SignType()
	assert.False(t, known)

	// Discover and configure.
	resp := sign.ProcessMessage(core.Hello{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateUnconfigured}, resp)

	configureSign(t, sign, core.SignMax3000Side90x7)
	signType, known := sign.SignType()
	require.True(t, known)
	assert.Equal(t, core.SignMax3000Side90x7, signType)

	// First page.
	sendPage(t, sign, page1)
	require.Equal(t, []core.Page{page1}, sign.Pages())

	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StatePageLoaded}, resp)

	// Show it.
	resp = sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpShowLoadedPage})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpShowLoadedPage}, resp)

	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StatePageShowInProgress}, resp)
	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StatePageShown}, resp)

	// Load the next one.
	resp = sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpLoadNextPage})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpLoadNextPage}, resp)

	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StatePageLoadInProgress}, resp)
	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StatePageLoaded}, resp)

	// A new transfer replaces the stored pages.
	sendPage(t, sign, page2)
	require.Equal(t, []core.Page{page2}, sign.Pages())

	// Reset back to unconfigured.
	resp = sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpStartReset})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpStartReset}, resp)
	resp = sign.ProcessMessage(core.Hello{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateReadyToReset}, resp)
	resp = sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpFinishReset})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpFinishReset}, resp)
	resp = sign.ProcessMessage(core.Hello{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateUnconfigured}, resp)

	_, known = sign.SignType()
	assert.False(t, known)
	assert.Empty(t, sign.Pages())

	// The sign is usable again after the reset.
	configureSign(t, sign, core.SignMax3000Side90x7)

	// Goodbye wipes everything without a response.
	resp = sign.ProcessMessage(core.Goodbye{Addr: 3})
	require.Nil(t, resp)
	_, known = sign.SignType()
	assert.False(t, known)
	assert.Empty(t, sign.Pages())

	resp = sign.ProcessMessage(core.Hello{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateUnconfigured}, resp)
}

func TestSignNaksIllegalOperations(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipManual)

	for _, op := range []core.Operation{
		core.OpReceivePixels,
		core.OpShowLoadedPage,
		core.OpLoadNextPage,
		core.OpFinishReset,
	} {
		resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: op})
		assert.Equal(t, core.NakOperation{Addr: 3, Op: op}, resp, "operation %s", op)
	}

	// Still pristine afterwards.
	resp := sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateUnconfigured}, resp)
}

func TestSignIgnoresOtherAddresses(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipManual)

	assert.Nil(t, sign.ProcessMessage(core.Hello{Addr: 4}))
	assert.Nil(t, sign.ProcessMessage(core.QueryState{Addr: 4}))
	assert.Nil(t, sign.ProcessMessage(core.RequestOperation{Addr: 4, Op: core.OpStartReset}))
	assert.Nil(t, sign.ProcessMessage(core.Goodbye{Addr: 4}))
	assert.Equal(t, core.StateUnconfigured, sign.State())
}

func TestSignUnknownConfig(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipManual)

	resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpReceiveConfig})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpReceiveConfig}, resp)

	// A Max3000 block with an unknown model byte still configures the
	// sign using the derived dimensions.
	cfg := core.SignMax3000Side90x7.ConfigBytes()
	cfg[1] = 0x99
	require.Nil(t, sign.ProcessMessage(core.SendData{Offset: 0, Data: cfg}))
	require.Nil(t, sign.ProcessMessage(core.DataChunksSent{Count: 1}))

	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateConfigReceived}, resp)
	_, known := sign.SignType()
	assert.False(t, known)
}

func TestSignInvalidConfig(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipManual)

	resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpReceiveConfig})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpReceiveConfig}, resp)

	// An unrecognized family byte is dropped entirely, so the chunk
	// count will not add up and the transfer fails.
	cfg := make([]byte, core.ConfigBlockLen)
	cfg[0] = 0x01
	require.Nil(t, sign.ProcessMessage(core.SendData{Offset: 0, Data: cfg}))
	require.Nil(t, sign.ProcessMessage(core.DataChunksSent{Count: 1}))

	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateConfigFailed}, resp)

	// A failed config can be retried.
	resp = sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpReceiveConfig})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpReceiveConfig}, resp)
}

func TestSignChunkCountMismatch(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipManual)
	configureSign(t, sign, core.SignMax3000Side90x7)

	resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpReceivePixels})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpReceivePixels}, resp)

	page := core.SignMax3000Side90x7.NewPage(0)
	data := page.Bytes()
	for i := 0; i < len(data); i += 16 {
		require.Nil(t, sign.ProcessMessage(core.SendData{Offset: core.Offset(i), Data: data[i : i+16]}))
	}

	// Claim one more chunk than was sent.
	require.Nil(t, sign.ProcessMessage(core.DataChunksSent{Count: 7}))
	resp = sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StatePixelsFailed}, resp)
}

func TestSignAutomaticStyle(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipAutomatic)
	configureSign(t, sign, core.SignMax3000Side90x7)
	sendPage(t, sign, checkerboardPage(0, false))

	// Automatic signs run the show themselves once pixels are complete.
	resp := sign.ProcessMessage(core.QueryState{Addr: 3})
	require.Equal(t, core.ReportState{Addr: 3, State: core.StateShowingPages}, resp)

	// Manual page operations are refused while self-running.
	resp = sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpShowLoadedPage})
	require.Equal(t, core.NakOperation{Addr: 3, Op: core.OpShowLoadedPage}, resp)
}

func TestSignAutomaticPageCycling(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipAutomatic)
	configureSign(t, sign, core.SignMax3000Side90x7)

	resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpReceivePixels})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpReceivePixels}, resp)

	pages := []core.Page{checkerboardPage(0, false), checkerboardPage(1, true)}
	var chunks core.ChunkCount
	for _, page := range pages {
		data := page.Bytes()
		for i := 0; i < len(data); i += 16 {
			require.Nil(t, sign.ProcessMessage(core.SendData{Offset: core.Offset(i), Data: data[i : i+16]}))
			chunks++
		}
	}
	require.Nil(t, sign.ProcessMessage(core.DataChunksSent{Count: chunks}))
	require.Nil(t, sign.ProcessMessage(core.PixelsComplete{Addr: 3}))
	require.Equal(t, pages, sign.Pages())

	// Each poll advances the displayed page.
	first := sign.ShownPage()
	sign.ProcessMessage(core.QueryState{Addr: 3})
	assert.NotEqual(t, first, sign.ShownPage())
	sign.ProcessMessage(core.QueryState{Addr: 3})
	assert.Equal(t, first, sign.ShownPage())
}

func TestSignManualPageTracking(t *testing.T) {
	sign := NewVirtualSign(3, core.PageFlipManual)
	configureSign(t, sign, core.SignMax3000Side90x7)

	resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpReceivePixels})
	require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpReceivePixels}, resp)

	pages := []core.Page{checkerboardPage(0, false), checkerboardPage(1, true)}
	var chunks core.ChunkCount
	for _, page := range pages {
		data := page.Bytes()
		for i := 0; i < len(data); i += 16 {
			require.Nil(t, sign.ProcessMessage(core.SendData{Offset: core.Offset(i), Data: data[i : i+16]}))
			chunks++
		}
	}
	require.Nil(t, sign.ProcessMessage(core.DataChunksSent{Count: chunks}))
	require.Nil(t, sign.ProcessMessage(core.PixelsComplete{Addr: 3}))

	show := func() {
		t.Helper()
		resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpShowLoadedPage})
		require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpShowLoadedPage}, resp)
		sign.ProcessMessage(core.QueryState{Addr: 3})
	}
	loadNext := func() {
		t.Helper()
		resp := sign.ProcessMessage(core.RequestOperation{Addr: 3, Op: core.OpLoadNextPage})
		require.Equal(t, core.AckOperation{Addr: 3, Op: core.OpLoadNextPage}, resp)
		sign.ProcessMessage(core.QueryState{Addr: 3})
	}

	show()
	assert.Equal(t, 0, sign.ShownPage())

	loadNext()
	show()
	assert.Equal(t, 1, sign.ShownPage())

	// Loading past the last page wraps back to the first.
	loadNext()
	show()
	assert.Equal(t, 0, sign.ShownPage())
}

func TestBusRoutesToCorrectSign(t *testing.T) {
	bus := NewVirtualSignBus(
		NewVirtualSign(5, core.PageFlipManual),
		NewVirtualSign(16, core.PageFlipManual),
	)
	assert.Equal(t, core.Address(16), bus.Sign(1).Addr())

	resp, err := bus.ProcessMessage(core.Hello{Addr: 16})
	require.NoError(t, err)
	require.Equal(t, core.ReportState{Addr: 16, State: core.StateUnconfigured}, resp)

	resp, err = bus.ProcessMessage(core.Hello{Addr: 99})
	require.NoError(t, err)
	assert.Nil(t, resp)
}
