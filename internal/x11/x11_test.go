// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package x11

import (
	"os"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/offblit/internal/display"
)

func TestNameNil(t *testing.T) {
	assert.Equal(t, "", Name(nil))
}

func TestDialDefault(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X11 display")
	}
	c, err := Dial(nil)
	require.NoError(t, err)
	defer c.Close()
	root := xproto.Setup(c.Conn).DefaultScreen(c.Conn).Root
	_, err = c.WindowVisual(display.NativeWindow(root))
	require.NoError(t, err)
}

func TestWindowVisualBadWindow(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X11 display")
	}
	c, err := Dial(nil)
	require.NoError(t, err)
	defer c.Close()
	_, err = c.WindowVisual(0)
	assert.Error(t, err)
}
