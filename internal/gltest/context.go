// SPDX-License-Identifier: Unlicense OR MIT

package gltest

import (
	"errors"
	"fmt"
	"math"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gl"
)

// Context is a software GL context. It implements both display.Context
// and gl.Functions.
type Context struct {
	// Config is the configuration the context was created with.
	Config display.Config
	disp   *Display
	Group  *Group

	framebuffers map[uint]*framebuffer
	next         uint

	drawFBO, readFBO uint
	rb               uint
	viewport         [4]int
	clear            [4]float32
	surf             *Surface
	err              gl.Enum

	Released bool
	// Failure injection.
	MakeCurrentErr error
	ReleaseErr     error
	FunctionsErr   error
	// Calls counts GL calls issued through the context.
	Calls int
}

type framebuffer struct {
	color uint
}

func (c *Context) MakeCurrent(s display.Surface) error {
	if c.MakeCurrentErr != nil {
		return c.MakeCurrentErr
	}
	if c.Released {
		return errors.New("gltest: context released")
	}
	d := c.disp
	if d.current != nil && d.current != c {
		d.Violations++
		return errors.New("gltest: another context is current")
	}
	surf, ok := s.(*Surface)
	if !ok || surf.disp != d || surf.Released {
		return errors.New("gltest: invalid surface")
	}
	d.current = c
	c.surf = surf
	return nil
}

func (c *Context) ReleaseCurrent() error {
	if c.ReleaseErr != nil {
		return c.ReleaseErr
	}
	if c.disp.current != c {
		return errors.New("gltest: context not current")
	}
	c.disp.current = nil
	c.surf = nil
	return nil
}

func (c *Context) Functions() (gl.Functions, error) {
	if c.FunctionsErr != nil {
		return nil, c.FunctionsErr
	}
	return c, nil
}

func (c *Context) Release() {
	c.Released = true
}

// IsCurrent reports whether c is the current context.
func (c *Context) IsCurrent() bool {
	return c.disp.current == c
}

// Framebuffers returns the number of live framebuffer objects of c.
func (c *Context) Framebuffers() int {
	return len(c.framebuffers)
}

func (c *Context) check() {
	if c.disp.current != c {
		panic("gltest: GL call on a context that is not current")
	}
	c.Calls++
}

func (c *Context) setErr(e gl.Enum) {
	if c.err == gl.NO_ERROR {
		c.err = e
	}
}

func (c *Context) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	c.check()
	if fb.V != 0 {
		if _, ok := c.framebuffers[fb.V]; !ok {
			c.setErr(gl.INVALID_OPERATION)
			return
		}
	}
	switch target {
	case gl.FRAMEBUFFER:
		c.drawFBO, c.readFBO = fb.V, fb.V
	case gl.DRAW_FRAMEBUFFER:
		c.drawFBO = fb.V
	case gl.READ_FRAMEBUFFER:
		c.readFBO = fb.V
	default:
		c.setErr(gl.INVALID_ENUM)
	}
}

func (c *Context) BindRenderbuffer(target gl.Enum, rb gl.Renderbuffer) {
	c.check()
	if target != gl.RENDERBUFFER {
		c.setErr(gl.INVALID_ENUM)
		return
	}
	if rb.V != 0 {
		if _, ok := c.Group.Renderbuffer(rb.V); !ok {
			c.setErr(gl.INVALID_OPERATION)
			return
		}
	}
	c.rb = rb.V
}

func (c *Context) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask gl.Enum, filter gl.Enum) {
	c.check()
	if mask != gl.COLOR_BUFFER_BIT || (filter != gl.NEAREST && filter != gl.LINEAR) {
		c.setErr(gl.INVALID_ENUM)
		return
	}
	if c.status(c.readFBO) != gl.FRAMEBUFFER_COMPLETE || c.status(c.drawFBO) != gl.FRAMEBUFFER_COMPLETE {
		c.setErr(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	src, sw, sh := c.pixels(c.readFBO)
	dst, dw, dh := c.pixels(c.drawFBO)
	if dx1 <= dx0 || dy1 <= dy0 || sx1 <= sx0 || sy1 <= sy0 {
		return
	}
	for y := max(dy0, 0); y < min(dy1, dh); y++ {
		sy := sy0 + (2*(y-dy0)+1)*(sy1-sy0)/(2*(dy1-dy0))
		if sy < 0 || sy >= sh {
			continue
		}
		for x := max(dx0, 0); x < min(dx1, dw); x++ {
			sx := sx0 + (2*(x-dx0)+1)*(sx1-sx0)/(2*(dx1-dx0))
			if sx < 0 || sx >= sw {
				continue
			}
			copy(dst[(y*dw+x)*4:(y*dw+x)*4+4], src[(sy*sw+sx)*4:])
		}
	}
}

func (c *Context) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	c.check()
	switch target {
	case gl.FRAMEBUFFER, gl.DRAW_FRAMEBUFFER:
		return c.status(c.drawFBO)
	case gl.READ_FRAMEBUFFER:
		return c.status(c.readFBO)
	}
	c.setErr(gl.INVALID_ENUM)
	return 0
}

func (c *Context) Clear(mask gl.Enum) {
	c.check()
	if mask != gl.COLOR_BUFFER_BIT {
		c.setErr(gl.INVALID_VALUE)
		return
	}
	if c.status(c.drawFBO) != gl.FRAMEBUFFER_COMPLETE {
		c.setErr(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	pix, _, _ := c.pixels(c.drawFBO)
	var px [4]byte
	for i, v := range c.clear {
		px[i] = toByte(v)
	}
	if c.drawFBO == 0 || c.attached(c.drawFBO).Format == gl.RGB8 {
		px[3] = 0xff
	}
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:], px[:])
	}
}

func (c *Context) ClearColor(red, green, blue, alpha float32) {
	c.check()
	c.clear = [4]float32{red, green, blue, alpha}
}

func (c *Context) CreateFramebuffer() gl.Framebuffer {
	c.check()
	v := c.next
	c.next++
	c.framebuffers[v] = new(framebuffer)
	return gl.Framebuffer{V: v}
}

func (c *Context) CreateRenderbuffer() gl.Renderbuffer {
	c.check()
	g := c.Group
	v := g.next
	g.next++
	g.renderbuffers[v] = new(Renderbuffer)
	return gl.Renderbuffer{V: v}
}

func (c *Context) DeleteFramebuffer(v gl.Framebuffer) {
	c.check()
	delete(c.framebuffers, v.V)
	if c.drawFBO == v.V {
		c.drawFBO = 0
	}
	if c.readFBO == v.V {
		c.readFBO = 0
	}
}

func (c *Context) DeleteRenderbuffer(v gl.Renderbuffer) {
	c.check()
	g := c.Group
	g.Deletes[v.V]++
	if rb, ok := g.renderbuffers[v.V]; ok {
		rb.deleted = true
		rb.pix = nil
	}
	if c.rb == v.V {
		c.rb = 0
	}
}

func (c *Context) Finish() {
	c.check()
}

func (c *Context) FramebufferRenderbuffer(target, attachment, renderbuffertarget gl.Enum, renderbuffer gl.Renderbuffer) {
	c.check()
	if attachment != gl.COLOR_ATTACHMENT0 || renderbuffertarget != gl.RENDERBUFFER {
		c.setErr(gl.INVALID_ENUM)
		return
	}
	var name uint
	switch target {
	case gl.FRAMEBUFFER, gl.DRAW_FRAMEBUFFER:
		name = c.drawFBO
	case gl.READ_FRAMEBUFFER:
		name = c.readFBO
	default:
		c.setErr(gl.INVALID_ENUM)
		return
	}
	if name == 0 {
		c.setErr(gl.INVALID_OPERATION)
		return
	}
	if renderbuffer.V != 0 {
		if _, ok := c.Group.Renderbuffer(renderbuffer.V); !ok {
			c.setErr(gl.INVALID_OPERATION)
			return
		}
	}
	c.framebuffers[name].color = renderbuffer.V
}

func (c *Context) GetError() gl.Enum {
	c.check()
	e := c.err
	c.err = gl.NO_ERROR
	return e
}

func (c *Context) GetInteger4(pname gl.Enum) [4]int {
	c.check()
	if pname != gl.VIEWPORT {
		c.setErr(gl.INVALID_ENUM)
		return [4]int{}
	}
	return c.viewport
}

func (c *Context) GetRenderbufferParameteri(target, pname gl.Enum) int {
	c.check()
	rb, ok := c.Group.Renderbuffer(c.rb)
	if target != gl.RENDERBUFFER || !ok {
		c.setErr(gl.INVALID_OPERATION)
		return 0
	}
	switch pname {
	case gl.RENDERBUFFER_WIDTH:
		return rb.Width
	case gl.RENDERBUFFER_HEIGHT:
		return rb.Height
	case gl.RENDERBUFFER_INTERNAL_FORMAT:
		return int(rb.Format)
	}
	c.setErr(gl.INVALID_ENUM)
	return 0
}

func (c *Context) GetString(pname gl.Enum) string {
	c.check()
	switch pname {
	case gl.VERSION:
		if v := c.disp.Version; v != "" {
			return v
		}
		return "3.3 gltest"
	case gl.RENDERER:
		return "gltest"
	case gl.VENDOR:
		return "gioui.org"
	}
	c.setErr(gl.INVALID_ENUM)
	return ""
}

func (c *Context) ReadBuffer(src gl.Enum) {
	c.check()
	if c.readFBO == 0 && src != gl.BACK {
		c.setErr(gl.INVALID_OPERATION)
	}
}

func (c *Context) ReadPixels(x, y, width, height int, format, ty gl.Enum, data []byte) {
	c.check()
	if format != gl.RGBA || ty != gl.UNSIGNED_BYTE {
		c.setErr(gl.INVALID_ENUM)
		return
	}
	if len(data) < width*height*4 {
		c.setErr(gl.INVALID_OPERATION)
		return
	}
	if c.status(c.readFBO) != gl.FRAMEBUFFER_COMPLETE {
		c.setErr(gl.INVALID_FRAMEBUFFER_OPERATION)
		return
	}
	src, sw, sh := c.pixels(c.readFBO)
	for j := 0; j < height; j++ {
		sy := y + j
		if sy < 0 || sy >= sh {
			continue
		}
		for i := 0; i < width; i++ {
			sx := x + i
			if sx < 0 || sx >= sw {
				continue
			}
			copy(data[(j*width+i)*4:(j*width+i)*4+4], src[(sy*sw+sx)*4:])
		}
	}
}

func (c *Context) RenderbufferStorage(target, internalformat gl.Enum, width, height int) {
	c.check()
	if target != gl.RENDERBUFFER {
		c.setErr(gl.INVALID_ENUM)
		return
	}
	rb, ok := c.Group.Renderbuffer(c.rb)
	if !ok {
		c.setErr(gl.INVALID_OPERATION)
		return
	}
	if width < 0 || height < 0 {
		c.setErr(gl.INVALID_VALUE)
		return
	}
	if internalformat != gl.RGB8 && internalformat != gl.RGBA8 {
		c.setErr(gl.INVALID_ENUM)
		return
	}
	if limit := c.Group.MaxSize; limit > 0 {
		width, height = min(width, limit), min(height, limit)
	}
	rb.storage(internalformat, width, height)
	c.Group.Allocations++
}

func (c *Context) Viewport(x, y, width, height int) {
	c.check()
	if width < 0 || height < 0 {
		c.setErr(gl.INVALID_VALUE)
		return
	}
	c.viewport = [4]int{x, y, width, height}
}

func (c *Context) status(name uint) gl.Enum {
	if name == 0 {
		if c.surf == nil {
			return gl.FRAMEBUFFER_UNDEFINED
		}
		return gl.FRAMEBUFFER_COMPLETE
	}
	fb := c.framebuffers[name]
	if fb.color == 0 {
		return gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	}
	rb, ok := c.Group.Renderbuffer(fb.color)
	if !ok || rb.Width == 0 || rb.Height == 0 {
		return gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT
	}
	return gl.FRAMEBUFFER_COMPLETE
}

func (c *Context) attached(name uint) *Renderbuffer {
	rb, _ := c.Group.Renderbuffer(c.framebuffers[name].color)
	return rb
}

// pixels returns the color storage of a complete framebuffer.
func (c *Context) pixels(name uint) ([]byte, int, int) {
	if name == 0 {
		return c.surf.back, c.surf.Width, c.surf.Height
	}
	rb := c.attached(name)
	return rb.pix, rb.Width, rb.Height
}

func toByte(v float32) byte {
	return byte(math.Round(math.Max(0, math.Min(1, float64(v))) * 0xff))
}

func (c *Context) String() string {
	return fmt.Sprintf("gltest context %p", c)
}
