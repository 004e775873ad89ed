// SPDX-License-Identifier: Unlicense OR MIT

package app

import "fmt"

// Event is a window event consumed by Run.
type Event interface {
	ImplementsEvent()
}

// ResizedEvent reports the new framebuffer size of the window.
type ResizedEvent struct {
	Width, Height uint32
}

// CloseEvent is sent when the user asks to close the window.
type CloseEvent struct{}

// RedrawEvent requests a new frame.
type RedrawEvent struct{}

// TerminateEvent is the last event of a window. Its native handles
// remain valid until Run returns.
type TerminateEvent struct{}

func (ResizedEvent) ImplementsEvent()   {}
func (CloseEvent) ImplementsEvent()     {}
func (RedrawEvent) ImplementsEvent()    {}
func (TerminateEvent) ImplementsEvent() {}

func (e ResizedEvent) String() string {
	return fmt.Sprintf("Resized(%dx%d)", e.Width, e.Height)
}

func (CloseEvent) String() string     { return "CloseRequested" }
func (RedrawEvent) String() string    { return "RedrawRequested" }
func (TerminateEvent) String() string { return "Terminated" }
