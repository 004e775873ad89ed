// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

// Package window implements native X11 windows on GLFW. The windows
// carry no GL context; rendering contexts are created separately for
// the native handles.
package window

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Callbacks receive window events. They run on the thread calling Wait.
type Callbacks interface {
	// Resized is called with the new framebuffer size.
	Resized(width, height int)
	CloseRequested()
	// Refresh is called when the window contents are damaged.
	Refresh()
}

type Options struct {
	Title         string
	Width, Height int
}

type Window struct {
	win *glfw.Window
}

// NewWindow initializes GLFW and opens a window. It must be called from
// the main thread, as must every other function of the package.
func NewWindow(cb Callbacks, o Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: glfw.Init: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(o.Width, o.Height, o.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: %w", err)
	}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		cb.Resized(width, height)
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		cb.CloseRequested()
	})
	win.SetRefreshCallback(func(_ *glfw.Window) {
		cb.Refresh()
	})
	return &Window{win: win}, nil
}

// Native returns the Xlib display and the X11 window id.
func (w *Window) Native() (unsafe.Pointer, uintptr) {
	return unsafe.Pointer(glfw.GetX11Display()), uintptr(w.win.GetX11Window())
}

func (w *Window) FramebufferSize() (int, int) {
	return w.win.GetFramebufferSize()
}

// Wait blocks until at least one event has been processed.
func (w *Window) Wait() {
	glfw.WaitEvents()
}

// Wakeup makes a blocked Wait return.
func (w *Window) Wakeup() {
	glfw.PostEmptyEvent()
}

func (w *Window) Hide() {
	w.win.Hide()
}

// Destroy closes the window and terminates GLFW.
func (w *Window) Destroy() {
	w.win.Destroy()
	glfw.Terminate()
}
