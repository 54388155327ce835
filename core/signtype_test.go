package core

import (
	"errors"
	"testing"
)

func TestSignTypeDimensions(t *testing.T) {
	tests := []struct {
		signType SignType
		width    uint32
		height   uint32
	}{
		{SignMax3000Front112x16, 112, 16},
		{SignMax3000Front98x16, 98, 16},
		{SignMax3000Side90x7, 90, 7},
		{SignMax3000Rear23x10, 23, 10},
		{SignMax3000Rear30x10, 30, 10},
		{SignMax3000Dash30x7, 30, 7},
		{SignHorizonFront160x16, 160, 16},
		{SignHorizonFront140x16, 140, 16},
		{SignHorizonSide96x8, 96, 8},
		{SignHorizonRear48x16, 48, 16},
		{SignHorizonDash40x12, 40, 12},
	}

	for _, tt := range tests {
		t.Run(tt.signType.String(), func(t *testing.T) {
			w, h := tt.signType.Dimensions()
			if w != tt.width || h != tt.height {
				t.Errorf("Dimensions() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
		})
	}
}

func TestSignTypeConfigRoundTrip(t *testing.T) {
	for _, signType := range SignTypes() {
		t.Run(signType.String(), func(t *testing.T) {
			cfg := signType.ConfigBytes()
			if len(cfg) != ConfigBlockLen {
				t.Fatalf("ConfigBytes() length = %d, want %d", len(cfg), ConfigBlockLen)
			}

			got, err := SignTypeFromConfig(cfg)
			if err != nil {
				t.Fatalf("SignTypeFromConfig() error: %v", err)
			}
			if got != signType {
				t.Errorf("SignTypeFromConfig() = %v, want %v", got, signType)
			}
		})
	}
}

func TestSignTypeFromConfigErrors(t *testing.T) {
	_, err := SignTypeFromConfig([]byte{0x04, 0x20})
	if !errors.Is(err, ErrWrongConfigLen) {
		t.Errorf("short config error = %v, want ErrWrongConfigLen", err)
	}

	unknown := make([]byte, ConfigBlockLen)
	unknown[0] = 0x04
	unknown[1] = 0x99
	_, err = SignTypeFromConfig(unknown)
	if !errors.Is(err, ErrUnknownConfig) {
		t.Errorf("unknown config error = %v, want ErrUnknownConfig", err)
	}
}

func TestSignTypeNewPage(t *testing.T) {
	page := SignMax3000Side90x7.NewPage(1)
	if page.Width() != 90 || page.Height() != 7 {
		t.Errorf("NewPage() size = %dx%d, want 90x7", page.Width(), page.Height())
	}
	if page.ID() != 1 {
		t.Errorf("NewPage() ID = %d, want 1", page.ID())
	}
	if len(page.Bytes()) != 96 {
		t.Errorf("NewPage() length = %d, want 96", len(page.Bytes()))
	}
}

func TestParseSignType(t *testing.T) {
	got, err := ParseSignType("max3000side90x7")
	if err != nil {
		t.Fatalf("ParseSignType() error: %v", err)
	}
	if got != SignMax3000Side90x7 {
		t.Errorf("ParseSignType() = %v, want %v", got, SignMax3000Side90x7)
	}

	if _, err := ParseSignType("NotASign"); err == nil {
		t.Error("ParseSignType() with bad name succeeded, want error")
	}
}
