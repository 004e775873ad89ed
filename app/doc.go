// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app drives the two context pipeline from the events of a native
window.

Run owns the rendering thread. It selects a display backend for the
window, creates the compute context and a presentation context sharing
its objects, and then reacts to window events until the window is
terminated:

	ResizedEvent    resize surfaces and shared storage, request a redraw
	RedrawEvent     render and present a frame
	CloseEvent      stop drawing and close the window
	TerminateEvent  release every GL object and return

All GL work happens on the goroutine calling Run, which is locked to its
OS thread for the duration.
*/
package app
