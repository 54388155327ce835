package core

import (
	"fmt"
	"strings"
)

// PageID numbers a page within a transfer. IDs are echoed back in the
// page header so the sign can tell pages apart.
type PageID uint8

// PageFlipStyle reports how a sign advances between its stored pages.
type PageFlipStyle int

const (
	// PageFlipManual means the controller drives every page change with
	// explicit load and show operations.
	PageFlipManual PageFlipStyle = iota
	// PageFlipAutomatic means the sign cycles through its stored pages
	// on its own and manual page operations are ignored.
	PageFlipAutomatic
)

func (s PageFlipStyle) String() string {
	switch s {
	case PageFlipManual:
		return "Manual"
	case PageFlipAutomatic:
		return "Automatic"
	}
	return fmt.Sprintf("PageFlipStyle(%d)", int(s))
}

const (
	pageHeaderLen = 4
	pageChunkLen  = 16
	pagePadByte   = 0xFF
)

// Page is a bitmap of pixels sized for one sign display.
//
// The wire layout is a 4-byte header followed by the pixel data in
// column-major order, one bit per pixel with the top pixel of each
// column in the least significant bit. Columns taller than 8 pixels
// span multiple bytes. The data is padded with 0xFF up to a multiple of
// 16 bytes so it divides evenly into transfer chunks.
type Page struct {
	width  uint32
	height uint32
	data   []byte
}

// NewPage returns a page of the given dimensions with all pixels off.
func NewPage(id PageID, width, height uint32) Page {
	bpc := bytesPerColumn(height)
	dataLen := pageHeaderLen + int(width)*bpc
	total := dataLen
	if rem := total % pageChunkLen; rem != 0 {
		total += pageChunkLen - rem
	}

	data := make([]byte, total)
	data[0] = byte(id)
	data[1] = 0x10
	for i := dataLen; i < total; i++ {
		data[i] = pagePadByte
	}
	return Page{width: width, height: height, data: data}
}

// PageFromBytes reconstructs a page of known dimensions from its wire
// bytes, including header and padding. It fails if the length does not
// match what NewPage would produce for those dimensions.
func PageFromBytes(width, height uint32, data []byte) (Page, error) {
	want := NewPage(0, width, height)
	if len(data) != len(want.data) {
		return Page{}, fmt.Errorf("page data for %dx%d sign must be %d bytes, got %d",
			width, height, len(want.data), len(data))
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return Page{width: width, height: height, data: buf}, nil
}

// ID returns the page's identifier from its header.
func (p Page) ID() PageID {
	return PageID(p.data[0])
}

// Width returns the page width in pixels.
func (p Page) Width() uint32 {
	return p.width
}

// Height returns the page height in pixels.
func (p Page) Height() uint32 {
	return p.height
}

// Bytes returns the page's wire representation, including header and
// padding. The slice aliases the page's storage.
func (p Page) Bytes() []byte {
	return p.data
}

// Pixel reports whether the pixel at (x, y) is on. The origin is the
// top-left corner.
func (p Page) Pixel(x, y uint32) (bool, error) {
	idx, mask, err := p.locate(x, y)
	if err != nil {
		return false, err
	}
	return p.data[idx]&mask != 0, nil
}

// SetPixel turns the pixel at (x, y) on or off.
func (p Page) SetPixel(x, y uint32, on bool) error {
	idx, mask, err := p.locate(x, y)
	if err != nil {
		return err
	}
	if on {
		p.data[idx] |= mask
	} else {
		p.data[idx] &^= mask
	}
	return nil
}

func (p Page) locate(x, y uint32) (idx int, mask byte, err error) {
	if x >= p.width || y >= p.height {
		return 0, 0, fmt.Errorf("pixel (%d, %d) out of bounds for %dx%d page", x, y, p.width, p.height)
	}
	idx = pageHeaderLen + int(x)*bytesPerColumn(p.height) + int(y)/8
	mask = 1 << (y % 8)
	return idx, mask, nil
}

// String renders the page as ASCII art, on pixels as '@' inside a
// bordered box.
func (p Page) String() string {
	var b strings.Builder
	border := "+" + strings.Repeat("-", int(p.width)) + "+"
	b.WriteString(border)
	b.WriteByte('\n')
	for y := uint32(0); y < p.height; y++ {
		b.WriteByte('|')
		for x := uint32(0); x < p.width; x++ {
			on, _ := p.Pixel(x, y)
			if on {
				b.WriteByte('@')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}

func bytesPerColumn(height uint32) int {
	return (int(height) + 7) / 8
}
