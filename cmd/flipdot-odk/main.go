// Command flipdot-odk emulates a bus full of signs for a real ODK
// controller attached over a serial port. Useful for studying the bus
// traffic or inspecting the pages of pixel data an ODK sends, without
// any sign hardware.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/alusch/flipdot/core"
	"github.com/alusch/flipdot/serial"
	"github.com/alusch/flipdot/signtest"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial port the ODK is attached to")
	automatic := flag.Bool("automatic", false, "emulate signs that flip pages on their own")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*port, *automatic, logger); err != nil {
		logger.Fatal("odk bridge failed", zap.Error(err))
	}
}

func run(port string, automatic bool, logger *zap.Logger) error {
	style := core.PageFlipManual
	if automatic {
		style = core.PageFlipAutomatic
	}

	// Real signs live at addresses 2 through 126.
	var signs []*signtest.VirtualSign
	for addr := core.Address(2); addr < 127; addr++ {
		signs = append(signs, signtest.NewVirtualSign(addr, style))
	}
	bus := signtest.NewVirtualSignBus(signs...)
	bus.SetLogger(logger)

	transport, err := serial.OpenPort(serial.PortConfig{Port: port})
	if err != nil {
		return err
	}
	defer transport.Close()

	odk, err := signtest.NewOdk(transport, bus)
	if err != nil {
		return err
	}

	logger.Info("listening for odk", zap.String("port", port))
	for {
		if err := odk.ProcessMessage(); err != nil {
			if errors.Is(err, io.EOF) {
				// Nothing from the ODK lately, keep waiting.
				continue
			}
			logger.Warn("failed to process message", zap.Error(err))
		}
	}
}
