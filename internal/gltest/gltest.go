// SPDX-License-Identifier: Unlicense OR MIT

// Package gltest implements a software display backend for tests.
//
// Renderbuffers live in a share group namespace and framebuffers in a
// per context namespace, as in GL. Clear, blit and read back operate on
// real pixels. Every GL call panics unless its context is the one
// current on the (single, simulated) thread.
package gltest

import (
	"errors"
	"fmt"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gl"
)

// Backend is a display.Backend whose failures are scripted.
type Backend struct {
	BackendName string
	ProbeErr    error
	OpenErr     error
	// ConfigIDs are the configuration ids reported by Configs, in
	// enumeration order.
	ConfigIDs []int
	// Version is passed on to every display opened.
	Version string
	// Opened records every display returned by Open.
	Opened []*Display
	Probes int
}

// Display is the software display. It tracks which context is current
// on the one thread tests run on.
type Display struct {
	backend   *Backend
	ConfigIDs []int
	Contexts  []*Context
	Surfaces  []*Surface
	Released  bool
	// ContextErr, if set, makes NewContext fail.
	ContextErr error
	// Version, if set, replaces the GL_VERSION string of its contexts.
	Version string

	current *Context
	// Violations counts attempts to make a context current while
	// another one is.
	Violations int
}

type Config struct {
	id int
}

// Group is a share group.
type Group struct {
	next          uint
	renderbuffers map[uint]*Renderbuffer
	// Deletes counts DeleteRenderbuffer calls per name.
	Deletes map[uint]int
	// Allocations counts RenderbufferStorage calls.
	Allocations int
	// MaxSize, if positive, silently clamps renderbuffer storage in
	// both dimensions.
	MaxSize int
}

type Renderbuffer struct {
	Format        gl.Enum
	Width, Height int
	// pix holds RGBA rows bottom-up, as GL addresses them.
	pix     []byte
	deleted bool
}

func NewBackend(name string, configIDs ...int) *Backend {
	return &Backend{BackendName: name, ConfigIDs: configIDs}
}

func (b *Backend) Name() string { return b.BackendName }

func (b *Backend) Probe(d display.NativeDisplay) error {
	b.Probes++
	return b.ProbeErr
}

func (b *Backend) Open(d display.NativeDisplay) (display.Display, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	disp := &Display{backend: b, ConfigIDs: b.ConfigIDs, Version: b.Version}
	b.Opened = append(b.Opened, disp)
	return disp, nil
}

// NewDisplay returns a display outside of any backend.
func NewDisplay(configIDs ...int) *Display {
	return NewBackend("gltest", configIDs...).mustOpen()
}

func (b *Backend) mustOpen() *Display {
	d, err := b.Open(nil)
	if err != nil {
		panic(err)
	}
	return d.(*Display)
}

func (d *Display) Backend() string { return d.backend.BackendName }

func (d *Display) Configs(w display.NativeWindow) ([]display.Config, error) {
	var cfgs []display.Config
	for _, id := range d.ConfigIDs {
		cfgs = append(cfgs, Config{id: id})
	}
	return cfgs, nil
}

func (d *Display) NewContext(cfg display.Config, share display.Context) (display.Context, error) {
	if d.ContextErr != nil {
		return nil, fmt.Errorf("%w: %v", display.ErrContextCreationFailed, d.ContextErr)
	}
	c := &Context{
		Config:       cfg,
		disp:         d,
		framebuffers: make(map[uint]*framebuffer),
		next:         1,
	}
	if share != nil {
		sc, ok := share.(*Context)
		if !ok || sc.disp != d {
			return nil, errors.New("gltest: share context from another display")
		}
		c.Group = sc.Group
	} else {
		c.Group = &Group{
			next:          1,
			renderbuffers: make(map[uint]*Renderbuffer),
			Deletes:       make(map[uint]int),
		}
	}
	d.Contexts = append(d.Contexts, c)
	return c, nil
}

func (d *Display) NewWindowSurface(cfg display.Config, w display.NativeWindow, width, height int) (display.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gltest: invalid surface size %dx%d", width, height)
	}
	s := &Surface{disp: d, Window: true}
	s.Resize(width, height)
	d.Surfaces = append(d.Surfaces, s)
	return s, nil
}

func (d *Display) NewOffscreenSurface(cfg display.Config, w display.NativeWindow) (display.Surface, error) {
	s := &Surface{disp: d}
	s.Resize(1, 1)
	d.Surfaces = append(d.Surfaces, s)
	return s, nil
}

func (d *Display) Release() {
	d.Released = true
}

// Current returns the current context, or nil.
func (d *Display) Current() *Context {
	return d.current
}

func (c Config) ID() int { return c.id }

func (c Config) String() string { return fmt.Sprintf("gltest config %d", c.id) }

// Renderbuffer returns the live renderbuffer named v.
func (g *Group) Renderbuffer(v uint) (*Renderbuffer, bool) {
	rb, ok := g.renderbuffers[v]
	if !ok || rb.deleted {
		return nil, false
	}
	return rb, true
}

// Live returns the number of renderbuffers not yet deleted.
func (g *Group) Live() int {
	n := 0
	for _, rb := range g.renderbuffers {
		if !rb.deleted {
			n++
		}
	}
	return n
}

func (rb *Renderbuffer) storage(format gl.Enum, w, h int) {
	rb.Format, rb.Width, rb.Height = format, w, h
	rb.pix = make([]byte, w*h*4)
}
