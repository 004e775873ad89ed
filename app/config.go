// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"gioui.org/offblit/internal/f32color"
)

// Config is the user configuration, usually read from a TOML file.
type Config struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// ClearColor is the color every frame is cleared to.
	ClearColor f32color.RGBA `toml:"clear_color"`
	// Backends lists display backends in the order they are tried.
	Backends []string `toml:"backends"`
	// SkipRedundantResize skips reallocating the shared renderbuffer
	// when a resize repeats the current size.
	SkipRedundantResize bool   `toml:"skip_redundant_resize"`
	LogLevel            string `toml:"log_level"`
}

// DefaultConfig returns the configuration used for absent keys.
func DefaultConfig() Config {
	return Config{
		Title:      "offblit",
		Width:      800,
		Height:     600,
		ClearColor: f32color.RGBA{R: 1.0, G: 0.5, B: 0.7, A: 1.0},
		Backends:   []string{"glx", "egl"},
		LogLevel:   "info",
	}
}

// LoadConfig reads path over the defaults. Keys that do not belong to
// Config are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("app: config %s: %w", path, err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("app: config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("app: config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height)
	}
	if len(c.Backends) == 0 {
		return errors.New("no display backends")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
