// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

// Package desktop implements app.Window with a GLFW window on X11.
package desktop

import (
	"image"

	"gioui.org/offblit/app"
	"gioui.org/offblit/app/internal/window"
	"gioui.org/offblit/internal/display"
)

// Window is an app.Window opened with GLFW. It must be created and used
// on the main thread.
type Window struct {
	w *window.Window

	events        []app.Event
	redrawPending bool
	closed        bool
}

var _ app.Window = (*Window)(nil)

// NewWindow opens a window sized and titled from cfg.
func NewWindow(cfg app.Config) (*Window, error) {
	dw := new(Window)
	w, err := window.NewWindow(callbacks{dw}, window.Options{
		Title:  cfg.Title,
		Width:  cfg.Width,
		Height: cfg.Height,
	})
	if err != nil {
		return nil, err
	}
	dw.w = w
	return dw, nil
}

func (w *Window) Native() (display.NativeDisplay, display.NativeWindow) {
	d, win := w.w.Native()
	return display.NativeDisplay(d), display.NativeWindow(win)
}

func (w *Window) Size() image.Point {
	width, height := w.w.FramebufferSize()
	return image.Pt(width, height)
}

func (w *Window) NextEvent() app.Event {
	for len(w.events) == 0 {
		if w.closed {
			return app.TerminateEvent{}
		}
		w.w.Wait()
	}
	e := w.events[0]
	w.events = w.events[1:]
	if _, ok := e.(app.RedrawEvent); ok {
		w.redrawPending = false
	}
	return e
}

func (w *Window) RequestRedraw() {
	if w.redrawPending {
		return
	}
	w.redrawPending = true
	w.events = append(w.events, app.RedrawEvent{})
	w.w.Wakeup()
}

func (w *Window) Close() {
	w.closed = true
	w.w.Hide()
}

// Destroy releases the native window. Call it after app.Run returns.
func (w *Window) Destroy() {
	w.w.Destroy()
}

// callbacks queues the events of the native window.
type callbacks struct {
	w *Window
}

// Resized drops the zero size a minimized window reports.
func (c callbacks) Resized(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.w.events = append(c.w.events, app.ResizedEvent{Width: uint32(width), Height: uint32(height)})
}

func (c callbacks) CloseRequested() {
	c.w.events = append(c.w.events, app.CloseEvent{})
}

func (c callbacks) Refresh() {
	c.w.RequestRedraw()
}
