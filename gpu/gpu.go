// SPDX-License-Identifier: Unlicense OR MIT

/*
Package gpu renders off-screen with one GL context and presents the
result with another.

The compute context clears (and in general draws) into a renderbuffer
through its own framebuffer object. The presentation context attaches the
same renderbuffer to a framebuffer object of its own and blits it to the
window. Both contexts belong to one share group, so the renderbuffer is a
single object seen by both; framebuffer objects are never shared.

The renderbuffer is created once and only its storage is reallocated on
resize. The compute side creates it; the presentation side holds a
non-owning reference and is the one that deletes it at teardown.
*/
package gpu

import (
	"errors"
	"fmt"
	"image"

	"gioui.org/offblit/internal/gl"
	"gioui.org/offblit/internal/glctx"
)

// GPU is the set of GL objects shared between the two contexts of a
// glctx.Manager.
type GPU struct {
	m      *glctx.Manager
	size   image.Point
	format gl.Enum
	// skipSame skips reallocation when a resize repeats the current size.
	skipSame bool

	// rb is created by the compute context. Its identity never changes.
	rb gl.Renderbuffer
	// Each framebuffer lives in the namespace of its own context.
	computeFBO gl.Framebuffer
	presentFBO gl.Framebuffer

	released bool
}

type Option func(g *GPU)

// WithFormat sets the internal format of the renderbuffer. The default
// is gl.RGB8.
func WithFormat(format gl.Enum) Option {
	return func(g *GPU) {
		g.format = format
	}
}

// SkipRedundantResize makes Resize keep the renderbuffer storage when
// the size is unchanged. The surfaces are resized and presented
// regardless.
func SkipRedundantResize(skip bool) Option {
	return func(g *GPU) {
		g.skipSame = skip
	}
}

var (
	errInvalidSize = errors.New("gpu: frame size must be positive")
	errStorageSize = errors.New("gpu: renderbuffer storage size mismatch")
)

// New creates the shared renderbuffer sized to the window and the
// framebuffer object of each context. Neither context may be current.
func New(m *glctx.Manager, size image.Point, opts ...Option) (*GPU, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %v", errInvalidSize, size)
	}
	g := &GPU{
		m:      m,
		size:   size,
		format: gl.RGB8,
	}
	for _, o := range opts {
		o(g)
	}
	err := m.Do(glctx.Compute, func(c *glctx.Current) error {
		f := c.Functions()
		g.rb = f.CreateRenderbuffer()
		f.BindRenderbuffer(gl.RENDERBUFFER, g.rb)
		// The renderbuffer, not the 1x1 offscreen surface, determines
		// the rendering resolution.
		if err := allocate(f, g.format, size); err != nil {
			return err
		}
		g.computeFBO = f.CreateFramebuffer()
		f.BindFramebuffer(gl.FRAMEBUFFER, g.computeFBO)
		f.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, g.rb)
		if err := gl.CheckFramebuffer(f, gl.FRAMEBUFFER); err != nil {
			return fmt.Errorf("gpu: compute framebuffer: %w", err)
		}
		f.Viewport(0, 0, size.X, size.Y)
		return nil
	})
	if err != nil {
		g.destroy()
		return nil, err
	}
	err = m.Do(glctx.Presentation, func(c *glctx.Current) error {
		f := c.Functions()
		g.presentFBO = f.CreateFramebuffer()
		f.BindFramebuffer(gl.FRAMEBUFFER, g.presentFBO)
		f.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, g.rb)
		if err := gl.CheckFramebuffer(f, gl.FRAMEBUFFER); err != nil {
			return fmt.Errorf("gpu: presentation framebuffer: %w", err)
		}
		f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		f.Viewport(0, 0, size.X, size.Y)
		return nil
	})
	if err != nil {
		g.destroy()
		return nil, err
	}
	return g, nil
}

// allocate reallocates the storage of the bound renderbuffer and checks
// the size the driver actually allocated.
func allocate(f gl.Functions, format gl.Enum, size image.Point) error {
	f.RenderbufferStorage(gl.RENDERBUFFER, format, size.X, size.Y)
	if err := gl.Error(f); err != nil {
		return fmt.Errorf("gpu: renderbuffer storage %v: %w", size, err)
	}
	got := image.Pt(
		f.GetRenderbufferParameteri(gl.RENDERBUFFER, gl.RENDERBUFFER_WIDTH),
		f.GetRenderbufferParameteri(gl.RENDERBUFFER, gl.RENDERBUFFER_HEIGHT),
	)
	if got != size {
		return fmt.Errorf("%w: got %v, want %v", errStorageSize, got, size)
	}
	return nil
}

// Size returns the current frame size.
func (g *GPU) Size() image.Point {
	return g.size
}

// Release deletes the GL objects: the presentation framebuffer and the
// renderbuffer with the presentation context current, then the compute
// framebuffer with the compute context current. Calls after the first
// are no-ops.
func (g *GPU) Release() error {
	if g.released {
		return nil
	}
	return g.destroy()
}

// destroy deletes whatever New managed to create.
func (g *GPU) destroy() error {
	g.released = true
	var errs []error
	if g.presentFBO.Valid() || g.rb.Valid() {
		errs = append(errs, g.m.Do(glctx.Presentation, func(c *glctx.Current) error {
			f := c.Functions()
			if g.presentFBO.Valid() {
				f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
				f.DeleteFramebuffer(g.presentFBO)
				g.presentFBO = gl.Framebuffer{}
			}
			if g.rb.Valid() {
				f.DeleteRenderbuffer(g.rb)
				g.rb = gl.Renderbuffer{}
			}
			return nil
		}))
	}
	if g.computeFBO.Valid() {
		errs = append(errs, g.m.Do(glctx.Compute, func(c *glctx.Current) error {
			f := c.Functions()
			f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
			f.DeleteFramebuffer(g.computeFBO)
			g.computeFBO = gl.Framebuffer{}
			return nil
		}))
	}
	return errors.Join(errs...)
}
