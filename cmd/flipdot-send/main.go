// Command flipdot-send pushes pages of pixel art to one or more signs
// on a serial bus.
//
// The roster of signs and their pages comes from a YAML file:
//
//	port: /dev/ttyUSB0
//	signs:
//	  - address: 3
//	    type: Max3000Side90x7
//	    pages:
//	      - route12.txt
//	      - route12-alt.txt
//
// Page files are plain text, one character per pixel, with '@', '#',
// or 'X' marking lit pixels. Rows beyond the sign's height and columns
// beyond its width are ignored.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/alusch/flipdot"
	"github.com/alusch/flipdot/core"
	"github.com/alusch/flipdot/serial"
)

type signConfig struct {
	Address uint16   `yaml:"address"`
	Type    string   `yaml:"type"`
	Pages   []string `yaml:"pages"`
}

type config struct {
	Port    string       `yaml:"port"`
	Baud    int          `yaml:"baud"`
	Timeout string       `yaml:"timeout"`
	Signs   []signConfig `yaml:"signs"`
}

func main() {
	configPath := flag.String("config", "flipdot.yaml", "path to the sign roster")
	verbose := flag.Bool("verbose", false, "log every bus message")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal("send failed", zap.Error(err))
	}
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	timeout := time.Second
	if cfg.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
	}

	bus, err := serial.NewBus(serial.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.Baud,
		Timeout:  timeout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer bus.Close()

	baseDir := filepath.Dir(configPath)
	for _, sc := range cfg.Signs {
		signType, err := core.ParseSignType(sc.Type)
		if err != nil {
			return fmt.Errorf("sign %d: %w", sc.Address, err)
		}

		sign := flipdot.NewSign(bus, core.Address(sc.Address), signType)
		sign.SetLogger(logger)

		logger.Info("configuring sign",
			zap.Uint16("addr", sc.Address),
			zap.Stringer("type", signType))
		if err := sign.Configure(); err != nil {
			return err
		}

		pages := make([]core.Page, len(sc.Pages))
		for i, path := range sc.Pages {
			page, err := loadPage(sign, core.PageID(i), filepath.Join(baseDir, path))
			if err != nil {
				return err
			}
			pages[i] = page
		}

		style, err := sign.SendPages(pages)
		if err != nil {
			return err
		}
		logger.Info("pages sent",
			zap.Uint16("addr", sc.Address),
			zap.Int("pages", len(pages)),
			zap.Stringer("style", style))

		if style == core.PageFlipManual {
			if err := sign.ShowLoadedPage(); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("config %s does not name a serial port", path)
	}
	if len(cfg.Signs) == 0 {
		return nil, fmt.Errorf("config %s lists no signs", path)
	}
	return &cfg, nil
}

// loadPage reads an ASCII art file into a page sized for the sign.
func loadPage(sign *flipdot.Sign, id core.PageID, path string) (core.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Page{}, fmt.Errorf("failed to read page: %w", err)
	}

	page := sign.CreatePage(id)
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for y, line := range lines {
		if uint32(y) >= page.Height() {
			break
		}
		for x, ch := range line {
			if uint32(x) >= page.Width() {
				break
			}
			if ch == '@' || ch == '#' || ch == 'X' {
				if err := page.SetPixel(uint32(x), uint32(y), true); err != nil {
					return core.Page{}, err
				}
			}
		}
	}
	return page, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}
