// Package flipdot controls Luminator flip-dot and LED signs over a
// shared serial bus.
//
// The Sign type is the high-level entry point: configure a sign, hand
// it pages of pixels, and flip between them. The lower-level building
// blocks live in the core package (protocol model), the serial package
// (real hardware over RS-485), and the signtest package (an emulated
// bus for development without hardware).
//
// A minimal session looks like:
//
//	bus, err := serial.NewBus(serial.BusConfig{Port: "/dev/ttyUSB0"})
//	if err != nil {
//		// ...
//	}
//	defer bus.Close()
//
//	sign := flipdot.NewSign(bus, 3, core.SignMax3000Side90x7)
//	if err := sign.Configure(); err != nil {
//		// ...
//	}
//
//	page := sign.CreatePage(0)
//	page.SetPixel(0, 0, true)
//	if _, err := sign.SendPages([]core.Page{page}); err != nil {
//		// ...
//	}
//	if err := sign.ShowLoadedPage(); err != nil {
//		// ...
//	}
package flipdot
