package core

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewPageLayout(t *testing.T) {
	t.Run("90x7 single byte per column", func(t *testing.T) {
		page := NewPage(3, 90, 7)

		want := make([]byte, 96)
		want[0] = 0x03
		want[1] = 0x10
		want[94] = 0xFF
		want[95] = 0xFF
		if !bytes.Equal(page.Bytes(), want) {
			t.Errorf("Bytes() = % 02X, want % 02X", page.Bytes(), want)
		}
	})

	t.Run("40x12 two bytes per column", func(t *testing.T) {
		page := NewPage(1, 40, 12)

		want := make([]byte, 96)
		want[0] = 0x01
		want[1] = 0x10
		for i := 84; i < 96; i++ {
			want[i] = 0xFF
		}
		if !bytes.Equal(page.Bytes(), want) {
			t.Errorf("Bytes() = % 02X, want % 02X", page.Bytes(), want)
		}
	})
}

func TestSetPixel(t *testing.T) {
	t.Run("90x7", func(t *testing.T) {
		page := NewPage(0, 90, 7)
		mustSetPixel(t, page, 0, 0)
		mustSetPixel(t, page, 89, 5)
		mustSetPixel(t, page, 89, 6)

		data := page.Bytes()
		if data[4] != 0x01 {
			t.Errorf("byte 4 = %02X, want 01", data[4])
		}
		if data[93] != 0x60 {
			t.Errorf("byte 93 = %02X, want 60", data[93])
		}
	})

	t.Run("40x12", func(t *testing.T) {
		page := NewPage(0, 40, 12)
		mustSetPixel(t, page, 0, 0)
		mustSetPixel(t, page, 0, 11)
		mustSetPixel(t, page, 39, 5)
		mustSetPixel(t, page, 39, 6)
		mustSetPixel(t, page, 39, 8)

		data := page.Bytes()
		checks := []struct {
			idx  int
			want byte
		}{
			{4, 0x01},
			{5, 0x08},
			{82, 0x60},
			{83, 0x01},
		}
		for _, c := range checks {
			if data[c.idx] != c.want {
				t.Errorf("byte %d = %02X, want %02X", c.idx, data[c.idx], c.want)
			}
		}
	})
}

func TestPixelRoundTrip(t *testing.T) {
	page := NewPage(0, 30, 10)
	if err := page.SetPixel(7, 9, true); err != nil {
		t.Fatalf("SetPixel() error: %v", err)
	}

	on, err := page.Pixel(7, 9)
	if err != nil {
		t.Fatalf("Pixel() error: %v", err)
	}
	if !on {
		t.Error("Pixel(7, 9) = off, want on")
	}

	if err := page.SetPixel(7, 9, false); err != nil {
		t.Fatalf("SetPixel() error: %v", err)
	}
	on, _ = page.Pixel(7, 9)
	if on {
		t.Error("Pixel(7, 9) = on, want off")
	}
}

func TestPixelBounds(t *testing.T) {
	page := NewPage(0, 90, 7)
	if _, err := page.Pixel(90, 0); err == nil {
		t.Error("Pixel(90, 0) succeeded, want out of bounds error")
	}
	if err := page.SetPixel(0, 7, true); err == nil {
		t.Error("SetPixel(0, 7) succeeded, want out of bounds error")
	}
}

func TestPageFromBytes(t *testing.T) {
	orig := NewPage(5, 30, 7)
	mustSetPixel(t, orig, 12, 3)

	got, err := PageFromBytes(30, 7, orig.Bytes())
	if err != nil {
		t.Fatalf("PageFromBytes() error: %v", err)
	}
	if got.ID() != 5 {
		t.Errorf("ID() = %d, want 5", got.ID())
	}
	on, err := got.Pixel(12, 3)
	if err != nil {
		t.Fatalf("Pixel() error: %v", err)
	}
	if !on {
		t.Error("Pixel(12, 3) = off, want on")
	}

	if _, err := PageFromBytes(30, 7, orig.Bytes()[:32]); err == nil {
		t.Error("PageFromBytes() with short data succeeded, want error")
	}
}

func TestPageString(t *testing.T) {
	page := NewPage(0, 4, 2)
	mustSetPixel(t, page, 0, 0)
	mustSetPixel(t, page, 3, 1)

	want := strings.Join([]string{
		"+----+",
		"|@   |",
		"|   @|",
		"+----+",
	}, "\n")
	if got := page.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func mustSetPixel(t *testing.T, p Page, x, y uint32) {
	t.Helper()
	if err := p.SetPixel(x, y, true); err != nil {
		t.Fatalf("SetPixel(%d, %d) error: %v", x, y, err)
	}
}
