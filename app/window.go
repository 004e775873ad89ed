// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"image"

	"gioui.org/offblit/internal/display"
)

// Window is a native window without a GL context of its own. Methods
// are called from the goroutine running Run.
type Window interface {
	// Native returns the display connection and window handles.
	Native() (display.NativeDisplay, display.NativeWindow)
	// Size returns the framebuffer size in pixels.
	Size() image.Point
	// NextEvent blocks until an event is available.
	NextEvent() Event
	// RequestRedraw makes NextEvent return a RedrawEvent soon.
	RequestRedraw()
	// Close starts closing the window. NextEvent returns a
	// TerminateEvent once it is closed.
	Close()
}
