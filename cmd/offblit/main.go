// SPDX-License-Identifier: Unlicense OR MIT

// Command offblit opens a window and fills it by rendering off-screen in
// one GL context and blitting the result with another context sharing
// the same renderbuffer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"gioui.org/offblit/app"
	"gioui.org/offblit/app/desktop"
	_ "gioui.org/offblit/internal/egl"
	_ "gioui.org/offblit/internal/glx"
)

var (
	configPath = flag.String("config", "", "read configuration from a TOML `file`.")
	width      = flag.Int("width", 0, "initial window width, overriding the configuration.")
	height     = flag.Int("height", 0, "initial window height, overriding the configuration.")
	backends   = flag.String("backend", "", "comma separated display backends in probe order (glx, egl).")
	logLevel   = flag.String("loglevel", "", "log level (debug, info, warn, error).")
	screenshot = flag.String("screenshot", "", "write the last frame to `file` (.png, .bmp, .tif).")
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "offblit",
	})
	if err := mainErr(logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func mainErr(logger *log.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	if *screenshot != "" {
		if _, err := encoder(*screenshot); err != nil {
			return err
		}
	}

	w, err := desktop.NewWindow(cfg)
	if err != nil {
		return err
	}
	defer w.Destroy()
	opts := app.Options{
		Config: cfg,
		Logger: logger,
	}
	var last *image.RGBA
	if *screenshot != "" {
		opts.OnFrame = func(img *image.RGBA) {
			last = img
		}
	}
	if err := app.Run(w, opts); err != nil {
		return err
	}
	if *screenshot == "" {
		return nil
	}
	if last == nil {
		return errors.New("no frame was rendered")
	}
	logger.Info("screenshot", "file", *screenshot, "size", last.Bounds().Size())
	return writeImage(*screenshot, last)
}

// loadConfig reads the configuration file, if any, and applies the
// flags set on the command line.
func loadConfig() (app.Config, error) {
	cfg := app.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = app.LoadConfig(*configPath)
		if err != nil {
			return app.Config{}, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "backend":
			cfg.Backends = strings.Split(*backends, ",")
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

type encodeFunc func(f *os.File, img image.Image) error

func encoder(path string) (encodeFunc, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return func(f *os.File, img image.Image) error { return png.Encode(f, img) }, nil
	case ".bmp":
		return func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }, nil
	case ".tif", ".tiff":
		return func(f *os.File, img image.Image) error { return tiff.Encode(f, img, nil) }, nil
	default:
		return nil, fmt.Errorf("unsupported screenshot format %q", ext)
	}
}

func writeImage(path string, img image.Image) error {
	enc, err := encoder(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
