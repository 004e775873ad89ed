// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

// Package x11 inspects the X server behind a native Xlib display over a
// separate protocol connection. Errors on that connection are returned
// to the caller instead of terminating the process, which makes it
// suitable for probing.
package x11

/*
#cgo LDFLAGS: -lX11

#include <X11/Xlib.h>
*/
import "C"

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"gioui.org/offblit/internal/display"
)

type Conn struct {
	*xgb.Conn
	name string
}

// Name returns the name of the X display d is connected to.
func Name(d display.NativeDisplay) string {
	if d == nil {
		return ""
	}
	return C.GoString(C.XDisplayString((*C.Display)(d)))
}

// Dial opens a connection to the X server of d.
func Dial(d display.NativeDisplay) (*Conn, error) {
	name := Name(d)
	c, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, fmt.Errorf("x11: connect to %q: %w", name, err)
	}
	return &Conn{Conn: c, name: name}, nil
}

func (c *Conn) String() string {
	return c.name
}

// WindowVisual returns the id of the visual w was created with.
func (c *Conn) WindowVisual(w display.NativeWindow) (uint32, error) {
	r, err := xproto.GetWindowAttributes(c.Conn, xproto.Window(w)).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: GetWindowAttributes 0x%x: %w", uintptr(w), err)
	}
	return uint32(r.Visual), nil
}
