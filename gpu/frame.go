// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"errors"
	"fmt"
	"image"

	"gioui.org/offblit/internal/f32color"
	"gioui.org/offblit/internal/gl"
	"gioui.org/offblit/internal/glctx"
)

var errReleased = errors.New("gpu: use after Release")

// Frame renders a frame cleared to col with the compute context and
// presents it on the window with the presentation context.
func (g *GPU) Frame(col f32color.RGBA) error {
	return g.frame(col, nil)
}

// Capture is like Frame but also reads back the window framebuffer after
// the blit and before the window is presented. The image is top-down.
func (g *GPU) Capture(col f32color.RGBA) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rectangle{Max: g.size})
	if err := g.frame(col, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (g *GPU) frame(col f32color.RGBA, capture *image.RGBA) error {
	if g.released {
		return errReleased
	}
	w, h := g.size.X, g.size.Y
	err := g.m.Do(glctx.Compute, func(c *glctx.Current) error {
		f := c.Functions()
		f.BindFramebuffer(gl.FRAMEBUFFER, g.computeFBO)
		f.ClearColor(col.R, col.G, col.B, col.A)
		f.Clear(gl.COLOR_BUFFER_BIT)
		if err := gl.Error(f); err != nil {
			return fmt.Errorf("gpu: render: %w", err)
		}
		// Shared object contents are only guaranteed visible to the
		// other context once the commands writing them have completed.
		f.Finish()
		// Swapping the offscreen surface flushes the command stream on
		// some drivers; it has no visible effect.
		return c.Present()
	})
	if err != nil {
		return err
	}
	return g.m.Do(glctx.Presentation, func(c *glctx.Current) error {
		f := c.Functions()
		f.BindFramebuffer(gl.READ_FRAMEBUFFER, g.presentFBO)
		f.BindFramebuffer(gl.DRAW_FRAMEBUFFER, gl.Framebuffer{})
		f.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
		if err := gl.Error(f); err != nil {
			return fmt.Errorf("gpu: blit: %w", err)
		}
		if capture != nil {
			if err := readWindow(f, capture); err != nil {
				return err
			}
		}
		return c.Present()
	})
}

// readWindow reads the back buffer of the default framebuffer into img.
func readWindow(f gl.Functions, img *image.RGBA) error {
	size := img.Bounds().Size()
	f.BindFramebuffer(gl.READ_FRAMEBUFFER, gl.Framebuffer{})
	f.ReadBuffer(gl.BACK)
	f.ReadPixels(0, 0, size.X, size.Y, gl.RGBA, gl.UNSIGNED_BYTE, img.Pix)
	if err := gl.Error(f); err != nil {
		return fmt.Errorf("gpu: read pixels: %w", err)
	}
	// Flip image in y-direction. OpenGL's origin is in the lower
	// left corner.
	row := make([]uint8, img.Stride)
	for y := 0; y < size.Y/2; y++ {
		y1 := size.Y - y - 1
		dest := img.PixOffset(0, y1)
		src := img.PixOffset(0, y)
		copy(row, img.Pix[dest:])
		copy(img.Pix[dest:], img.Pix[src:src+len(row)])
		copy(img.Pix[src:], row)
	}
	return nil
}
