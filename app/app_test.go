// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gltest"
)

// fakeWindow replays a script of events. Redraw requests are delivered
// before the next scripted event; an exhausted script closes the window.
type fakeWindow struct {
	size      image.Point
	script    []Event
	redraws   []Event
	closed    bool
	delivered []Event
}

func (w *fakeWindow) Native() (display.NativeDisplay, display.NativeWindow) {
	return nil, 0x2a
}

func (w *fakeWindow) Size() image.Point { return w.size }

func (w *fakeWindow) NextEvent() Event {
	var e Event
	switch {
	case len(w.redraws) > 0:
		e, w.redraws = w.redraws[0], w.redraws[1:]
	case len(w.script) > 0:
		e, w.script = w.script[0], w.script[1:]
	case !w.closed:
		e = CloseEvent{}
	default:
		e = TerminateEvent{}
	}
	w.delivered = append(w.delivered, e)
	return e
}

func (w *fakeWindow) RequestRedraw() {
	if len(w.redraws) == 0 {
		w.redraws = append(w.redraws, RedrawEvent{})
	}
}

func (w *fakeWindow) Close() {
	w.closed = true
	w.script = append(w.script, TerminateEvent{})
}

type run struct {
	backend *gltest.Backend
	frames  []*image.RGBA
	err     error
}

func runScript(t *testing.T, size image.Point, script ...Event) (*run, *fakeWindow) {
	t.Helper()
	r := &run{backend: gltest.NewBackend("gltest", 3, 1)}
	w := &fakeWindow{size: size, script: script}
	r.err = Run(w, Options{
		Config:   DefaultConfig(),
		Backends: []display.Backend{r.backend},
		OnFrame: func(img *image.RGBA) {
			r.frames = append(r.frames, img)
		},
	})
	return r, w
}

func (r *run) display(t *testing.T) *gltest.Display {
	t.Helper()
	require.Len(t, r.backend.Opened, 1)
	return r.backend.Opened[0]
}

var pink = color.NRGBA{R: 0xff, G: 0x80, B: 0xb2, A: 0xff}

func checkFrame(t *testing.T, img *image.RGBA, size image.Point) {
	t.Helper()
	require.Equal(t, image.Rectangle{Max: size}, img.Bounds())
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if c := img.RGBAAt(x, y); !colorsClose(c, pink) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, c, pink)
			}
		}
	}
}

func checkTeardown(t *testing.T, d *gltest.Display) {
	t.Helper()
	assert.True(t, d.Released)
	require.Len(t, d.Contexts, 2)
	for _, c := range d.Contexts {
		assert.True(t, c.Released)
		assert.Zero(t, c.Framebuffers())
	}
	for _, s := range d.Surfaces {
		assert.True(t, s.Released)
	}
	g := d.Contexts[0].Group
	assert.Same(t, g, d.Contexts[1].Group)
	assert.Equal(t, map[uint]int{1: 1}, g.Deletes)
	assert.Zero(t, d.Violations)
	assert.Nil(t, d.Current())
}

func TestInitialFrame(t *testing.T) {
	r, _ := runScript(t, image.Pt(800, 600))
	require.NoError(t, r.err)
	require.Len(t, r.frames, 1)
	checkFrame(t, r.frames[0], image.Pt(800, 600))
	checkTeardown(t, r.display(t))
}

func TestResizeMidRun(t *testing.T) {
	r, w := runScript(t, image.Pt(800, 600), ResizedEvent{Width: 400, Height: 300})
	require.NoError(t, r.err)
	require.Len(t, r.frames, 2)
	checkFrame(t, r.frames[0], image.Pt(800, 600))
	checkFrame(t, r.frames[1], image.Pt(400, 300))
	d := r.display(t)
	win := d.Surfaces[0]
	assert.True(t, win.Window)
	assert.Equal(t, 400, win.Width)
	assert.Equal(t, 300, win.Height)
	checkTeardown(t, d)
	assert.Equal(t, []Event{
		RedrawEvent{},
		ResizedEvent{Width: 400, Height: 300},
		RedrawEvent{},
		CloseEvent{},
		TerminateEvent{},
	}, w.delivered)
}

func TestCloseStopsDrawing(t *testing.T) {
	r, _ := runScript(t, image.Pt(64, 64),
		CloseEvent{},
		RedrawEvent{},
		ResizedEvent{Width: 10, Height: 10},
	)
	require.NoError(t, r.err)
	assert.Len(t, r.frames, 1)
	d := r.display(t)
	assert.Equal(t, 64, d.Surfaces[0].Width)
	checkTeardown(t, d)
}

func TestEmptyResizeIgnored(t *testing.T) {
	r, _ := runScript(t, image.Pt(64, 64), ResizedEvent{Width: 0, Height: 480})
	require.NoError(t, r.err)
	assert.Len(t, r.frames, 1)
	d := r.display(t)
	assert.Equal(t, 64, d.Surfaces[0].Height)
	checkTeardown(t, d)
}

func TestRepeatedResize(t *testing.T) {
	r, _ := runScript(t, image.Pt(64, 64),
		ResizedEvent{Width: 64, Height: 64},
		ResizedEvent{Width: 32, Height: 16},
		ResizedEvent{Width: 32, Height: 16},
	)
	require.NoError(t, r.err)
	require.Len(t, r.frames, 4)
	checkFrame(t, r.frames[3], image.Pt(32, 16))
	// The default reallocates on every resize, including the initial
	// allocation.
	assert.Equal(t, 4, r.display(t).Contexts[0].Group.Allocations)
}

func TestFirstConfigChosen(t *testing.T) {
	r, _ := runScript(t, image.Pt(8, 8))
	require.NoError(t, r.err)
	assert.Equal(t, 1, r.backend.Probes)
	d := r.display(t)
	require.Len(t, d.Contexts, 2)
	for _, c := range d.Contexts {
		assert.Equal(t, 3, c.Config.ID())
	}
}

func TestGLVersionLogged(t *testing.T) {
	var buf bytes.Buffer
	b := gltest.NewBackend("gltest", 1)
	w := &fakeWindow{size: image.Pt(8, 8)}
	err := Run(w, Options{
		Config:   DefaultConfig(),
		Logger:   log.New(&buf),
		Backends: []display.Backend{b},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "3.3 gltest")
}

func TestGLVersionTooOld(t *testing.T) {
	b := gltest.NewBackend("gltest", 1)
	b.Version = "2.1 Mesa 23.2.1"
	w := &fakeWindow{size: image.Pt(8, 8)}
	err := Run(w, Options{Config: DefaultConfig(), Backends: []display.Backend{b}})
	assert.ErrorIs(t, err, errGLVersion)
	assert.Empty(t, w.delivered)
	d := b.Opened[0]
	assert.True(t, d.Released)
	assert.Nil(t, d.Current())
	for _, c := range d.Contexts {
		assert.True(t, c.Released)
	}
}

func TestNoDisplayBackend(t *testing.T) {
	b := gltest.NewBackend("gltest", 1)
	b.ProbeErr = errors.New("no extension")
	w := &fakeWindow{size: image.Pt(8, 8)}
	err := Run(w, Options{Config: DefaultConfig(), Backends: []display.Backend{b}})
	assert.ErrorIs(t, err, display.ErrNoDisplayBackend)
	assert.Empty(t, w.delivered)
}

func TestNoCompatibleConfig(t *testing.T) {
	b := gltest.NewBackend("gltest")
	w := &fakeWindow{size: image.Pt(8, 8)}
	err := Run(w, Options{Config: DefaultConfig(), Backends: []display.Backend{b}})
	assert.ErrorIs(t, err, display.ErrNoCompatibleConfig)
}

func TestEmptyWindow(t *testing.T) {
	b := gltest.NewBackend("gltest", 1)
	w := &fakeWindow{size: image.Pt(0, 0)}
	err := Run(w, Options{Config: DefaultConfig(), Backends: []display.Backend{b}})
	assert.ErrorIs(t, err, errEmptyWindow)
	require.Len(t, b.Opened, 1)
	assert.True(t, b.Opened[0].Released)
	assert.Empty(t, b.Opened[0].Contexts)
}

func TestUnknownBackendName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends = []string{"no-such-backend"}
	err := Run(&fakeWindow{size: image.Pt(8, 8)}, Options{Config: cfg})
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 0
	err := Run(&fakeWindow{size: image.Pt(8, 8)}, Options{Config: cfg})
	assert.Error(t, err)
}

func colorsClose(c1 color.RGBA, c2 color.NRGBA) bool {
	const delta = 1
	return absDiff(c1.R, c2.R) <= delta && absDiff(c1.G, c2.G) <= delta && absDiff(c1.B, c2.B) <= delta && absDiff(c1.A, c2.A) <= delta
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
