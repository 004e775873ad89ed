// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/offblit/internal/f32color"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "offblit.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
title = "blit"
width = 1024
height = 768
clear_color = "#336699"
backends = ["egl"]
skip_redundant_resize = true
log_level = "debug"
`))
	require.NoError(t, err)
	want := Config{
		Title:               "blit",
		Width:               1024,
		Height:              768,
		ClearColor:          f32color.RGBA{R: 0x33 / 255.0, G: 0x66 / 255.0, B: 0x99 / 255.0, A: 1},
		Backends:            []string{"egl"},
		SkipRedundantResize: true,
		LogLevel:            "debug",
	}
	assert.Equal(t, want.ClearColor.NRGBA(), cfg.ClearColor.NRGBA())
	cfg.ClearColor = want.ClearColor
	assert.Equal(t, want, cfg)
}

func TestLoadConfigColorName(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `clear_color = "teal"`))
	require.NoError(t, err)
	c := cfg.ClearColor.NRGBA()
	assert.Equal(t, [4]uint8{0x00, 0x80, 0x80, 0xff}, [4]uint8{c.R, c.G, c.B, c.A})
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":  `colour = "red"`,
		"bad color":    `clear_color = "#12"`,
		"zero width":   `width = 0`,
		"no backends":  `backends = []`,
		"bad level":    `log_level = "loud"`,
		"syntax":       `width = `,
		"wrong type":   `height = "tall"`,
		"nested table": "[window]\nwidth = 1",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
