// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"image"

	"gioui.org/offblit/internal/gl"
	"gioui.org/offblit/internal/glctx"
)

// Resize resizes both surfaces, reallocates the renderbuffer storage and
// updates both viewports. The renderbuffer is reallocated exactly once,
// with the presentation context current, unless SkipRedundantResize is
// set and the size is unchanged. The caller is responsible for
// requesting a redraw afterwards.
func (g *GPU) Resize(size image.Point) error {
	if g.released {
		return errReleased
	}
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("%w: %v", errInvalidSize, size)
	}
	realloc := !g.skipSame || size != g.size
	w, h := size.X, size.Y
	err := g.m.Do(glctx.Presentation, func(c *glctx.Current) error {
		f := c.Functions()
		c.Surface().Resize(w, h)
		if err := c.Present(); err != nil {
			return err
		}
		if realloc {
			f.BindRenderbuffer(gl.RENDERBUFFER, g.rb)
			if err := allocate(f, g.format, size); err != nil {
				return err
			}
		}
		f.BindFramebuffer(gl.FRAMEBUFFER, g.presentFBO)
		if err := gl.CheckFramebuffer(f, gl.FRAMEBUFFER); err != nil {
			return fmt.Errorf("gpu: presentation framebuffer after resize: %w", err)
		}
		f.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		f.Viewport(0, 0, w, h)
		f.Finish()
		return nil
	})
	if err != nil {
		return err
	}
	// The storage now has the new size regardless of how the compute
	// step fares.
	g.size = size
	return g.m.Do(glctx.Compute, func(c *glctx.Current) error {
		f := c.Functions()
		c.Surface().Resize(w, h)
		if err := c.Present(); err != nil {
			return err
		}
		// Reattaching rebinds the renderbuffer in this context, which
		// makes the reallocation done by the other context visible.
		f.BindFramebuffer(gl.FRAMEBUFFER, g.computeFBO)
		f.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, g.rb)
		if err := gl.CheckFramebuffer(f, gl.FRAMEBUFFER); err != nil {
			return fmt.Errorf("gpu: compute framebuffer after resize: %w", err)
		}
		f.Viewport(0, 0, w, h)
		return nil
	})
}
