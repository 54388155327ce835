package core

import (
	"bytes"
	"fmt"
	"strings"
)

// SignType identifies a supported Luminator sign model. Each model has a
// fixed display size and a 16-byte configuration block that must be sent
// before pixel data.
type SignType int

const (
	// SignMax3000Front112x16 is a 112x16 flip-dot front sign.
	SignMax3000Front112x16 SignType = iota + 1
	// SignMax3000Front98x16 is a 98x16 flip-dot front sign.
	SignMax3000Front98x16
	// SignMax3000Side90x7 is a 90x7 flip-dot side sign.
	SignMax3000Side90x7
	// SignMax3000Rear23x10 is a 23x10 flip-dot rear sign.
	SignMax3000Rear23x10
	// SignMax3000Rear30x10 is a 30x10 flip-dot rear sign.
	SignMax3000Rear30x10
	// SignMax3000Dash30x7 is a 30x7 flip-dot dash sign.
	SignMax3000Dash30x7
	// SignHorizonFront160x16 is a 160x16 LED front sign.
	SignHorizonFront160x16
	// SignHorizonFront140x16 is a 140x16 LED front sign.
	SignHorizonFront140x16
	// SignHorizonSide96x8 is a 96x8 LED side sign.
	SignHorizonSide96x8
	// SignHorizonRear48x16 is a 48x16 LED rear sign.
	SignHorizonRear48x16
	// SignHorizonDash40x12 is a 40x12 LED dash sign.
	SignHorizonDash40x12
)

// Family bytes leading the configuration block.
const (
	configFamilyMax3000 = 0x04
	configFamilyHorizon = 0x08
)

// ConfigBlockLen is the length of every sign configuration block.
const ConfigBlockLen = 16

var signConfigs = map[SignType][ConfigBlockLen]byte{
	SignMax3000Front112x16: {0x04, 0x47, 0x00, 0x0F, 0x10, 0x1C, 0x1C, 0x1C, 0x1C, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignMax3000Front98x16:  {0x04, 0x4D, 0x00, 0x0D, 0x10, 0x0E, 0x1C, 0x1C, 0x1C, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignMax3000Side90x7:    {0x04, 0x20, 0x00, 0x06, 0x07, 0x1E, 0x1E, 0x1E, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignMax3000Rear23x10:   {0x04, 0x61, 0x00, 0x04, 0x0A, 0x17, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignMax3000Rear30x10:   {0x04, 0x62, 0x00, 0x04, 0x0A, 0x1E, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignMax3000Dash30x7:    {0x04, 0x26, 0x00, 0x03, 0x07, 0x1E, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignHorizonFront160x16: {0x08, 0xB1, 0x00, 0x15, 0x0C, 0x10, 0x00, 0xA0, 0x04, 0x00, 0x28, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignHorizonFront140x16: {0x08, 0xB2, 0x00, 0x12, 0x04, 0x10, 0x00, 0x8C, 0x01, 0x03, 0x14, 0x28, 0x00, 0x00, 0x00, 0x00},
	SignHorizonSide96x8:    {0x08, 0xB4, 0x00, 0x07, 0x0C, 0x08, 0x00, 0x60, 0x02, 0x00, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignHorizonRear48x16:   {0x08, 0xB5, 0x00, 0x07, 0x0C, 0x10, 0x00, 0x30, 0x01, 0x00, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00},
	SignHorizonDash40x12:   {0x08, 0xB9, 0x00, 0x06, 0x8C, 0x0C, 0x00, 0x28, 0x01, 0x00, 0x28, 0x00, 0x04, 0x00, 0x00, 0x00},
}

var signNames = map[SignType]string{
	SignMax3000Front112x16: "Max3000Front112x16",
	SignMax3000Front98x16:  "Max3000Front98x16",
	SignMax3000Side90x7:    "Max3000Side90x7",
	SignMax3000Rear23x10:   "Max3000Rear23x10",
	SignMax3000Rear30x10:   "Max3000Rear30x10",
	SignMax3000Dash30x7:    "Max3000Dash30x7",
	SignHorizonFront160x16: "HorizonFront160x16",
	SignHorizonFront140x16: "HorizonFront140x16",
	SignHorizonSide96x8:    "HorizonSide96x8",
	SignHorizonRear48x16:   "HorizonRear48x16",
	SignHorizonDash40x12:   "HorizonDash40x12",
}

// ConfigBytes returns the model's 16-byte configuration block.
func (t SignType) ConfigBytes() []byte {
	cfg, ok := signConfigs[t]
	if !ok {
		return nil
	}
	out := make([]byte, ConfigBlockLen)
	copy(out, cfg[:])
	return out
}

// Dimensions returns the display size in pixels.
func (t SignType) Dimensions() (width, height uint32) {
	cfg, ok := signConfigs[t]
	if !ok {
		return 0, 0
	}
	return ConfigDimensions(cfg[:])
}

// NewPage returns a blank page matching the sign's dimensions.
func (t SignType) NewPage(id PageID) Page {
	w, h := t.Dimensions()
	return NewPage(id, w, h)
}

func (t SignType) String() string {
	if name, ok := signNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SignType(%d)", int(t))
}

// ConfigDimensions derives a display size from a configuration block
// whose family byte is recognized, or zeros if it is not. The Max3000
// block stores the height directly and the width split across
// per-panel columns; the Horizon block stores both directly.
func ConfigDimensions(cfg []byte) (width, height uint32) {
	switch cfg[0] {
	case configFamilyMax3000:
		for _, b := range cfg[5:9] {
			width += uint32(b)
		}
		return width, uint32(cfg[4])
	case configFamilyHorizon:
		return uint32(cfg[7]), uint32(cfg[5])
	}
	return 0, 0
}

// SignTypeFromConfig identifies the sign model described by a 16-byte
// configuration block. The family and model bytes leading the block are
// enough to identify a model. Blocks of the wrong length fail with
// ErrWrongConfigLen; valid-length blocks matching no known model fail
// with ErrUnknownConfig.
func SignTypeFromConfig(cfg []byte) (SignType, error) {
	if len(cfg) != ConfigBlockLen {
		return 0, fmt.Errorf("%w, got %d", ErrWrongConfigLen, len(cfg))
	}
	for t, known := range signConfigs {
		if bytes.Equal(cfg[:2], known[:2]) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: % 02X", ErrUnknownConfig, cfg)
}

// ParseSignType resolves a model name like "Max3000Side90x7",
// case-insensitively. Useful for configuration files and flags.
func ParseSignType(name string) (SignType, error) {
	for t, n := range signNames {
		if strings.EqualFold(name, n) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown sign type %q", name)
}

// SignTypes returns all supported models in declaration order.
func SignTypes() []SignType {
	return []SignType{
		SignMax3000Front112x16,
		SignMax3000Front98x16,
		SignMax3000Side90x7,
		SignMax3000Rear23x10,
		SignMax3000Rear30x10,
		SignMax3000Dash30x7,
		SignHorizonFront160x16,
		SignHorizonFront140x16,
		SignHorizonSide96x8,
		SignHorizonRear48x16,
		SignHorizonDash40x12,
	}
}
