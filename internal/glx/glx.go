// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

// Package glx implements a display backend on GLX 1.3 framebuffer
// configurations. Importing it registers the backend as "glx".
package glx

/*
#cgo LDFLAGS: -lGL -lX11

#include <X11/Xlib.h>
#include <GL/glx.h>

static int lastError;

static int handleError(Display *dpy, XErrorEvent *ev) {
	lastError = ev->error_code;
	return 0;
}

static void installErrorHandler(void) {
	XSetErrorHandler(handleError);
}

// takeError waits for outstanding requests and returns the first X
// error code since the last call, or 0.
static int takeError(Display *dpy) {
	XSync(dpy, False);
	int err = lastError;
	lastError = 0;
	return err;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/BurntSushi/xgb/glx"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gl"
	"gioui.org/offblit/internal/glimpl"
	"gioui.org/offblit/internal/x11"
)

type Backend struct{}

type Display struct {
	dpy    *C.Display
	screen C.int
	conn   *x11.Conn
}

type Config struct {
	cfg C.GLXFBConfig
	id  int
}

type Context struct {
	d   *Display
	ctx C.GLXContext
}

type Surface struct {
	d             *Display
	drawable      C.GLXDrawable
	pbuffer       bool
	width, height int
}

func init() {
	display.Register(Backend{})
}

func (Backend) Name() string { return "glx" }

// Probe checks for GLX 1.3 over a protocol connection, so that a
// missing extension is an error and not a fatal Xlib failure.
func (Backend) Probe(d display.NativeDisplay) error {
	if d == nil {
		return errors.New("glx: no X11 display")
	}
	c, err := x11.Dial(d)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := glx.Init(c.Conn); err != nil {
		return fmt.Errorf("glx: %w", err)
	}
	v, err := glx.QueryVersion(c.Conn, 1, 4).Reply()
	if err != nil {
		return fmt.Errorf("glx: QueryVersion: %w", err)
	}
	if v.MajorVersion < 1 || (v.MajorVersion == 1 && v.MinorVersion < 3) {
		return fmt.Errorf("glx: version %d.%d is older than 1.3", v.MajorVersion, v.MinorVersion)
	}
	return nil
}

func (Backend) Open(d display.NativeDisplay) (display.Display, error) {
	dpy := (*C.Display)(d)
	var errBase, evBase C.int
	if C.glXQueryExtension(dpy, &errBase, &evBase) == 0 {
		return nil, errors.New("glx: extension not present")
	}
	conn, err := x11.Dial(d)
	if err != nil {
		return nil, err
	}
	C.installErrorHandler()
	return &Display{
		dpy:    dpy,
		screen: C.XDefaultScreen(dpy),
		conn:   conn,
	}, nil
}

func (d *Display) Backend() string { return "glx" }

func (d *Display) xerror(op string) error {
	if code := C.takeError(d.dpy); code != 0 {
		return fmt.Errorf("glx: %s: X error %d", op, int(code))
	}
	return nil
}

func (d *Display) attrib(cfg C.GLXFBConfig, attr C.int) int {
	var v C.int
	if C.glXGetFBConfigAttrib(d.dpy, cfg, attr, &v) != 0 {
		return 0
	}
	return int(v)
}

// Configs returns the double buffered RGBA configurations that render
// to both windows and pbuffers with the visual of w, in server order.
func (d *Display) Configs(w display.NativeWindow) ([]display.Config, error) {
	vis, err := d.conn.WindowVisual(w)
	if err != nil {
		return nil, err
	}
	var n C.int
	ptr := C.glXGetFBConfigs(d.dpy, d.screen, &n)
	if ptr == nil {
		return nil, nil
	}
	defer C.XFree(unsafe.Pointer(ptr))
	var cfgs []display.Config
	for _, cfg := range unsafe.Slice(ptr, int(n)) {
		const types = C.GLX_WINDOW_BIT | C.GLX_PBUFFER_BIT
		switch {
		case d.attrib(cfg, C.GLX_DRAWABLE_TYPE)&types != types,
			d.attrib(cfg, C.GLX_RENDER_TYPE)&C.GLX_RGBA_BIT == 0,
			d.attrib(cfg, C.GLX_DOUBLEBUFFER) == 0,
			uint32(d.attrib(cfg, C.GLX_VISUAL_ID)) != vis:
			continue
		}
		cfgs = append(cfgs, Config{cfg: cfg, id: d.attrib(cfg, C.GLX_FBCONFIG_ID)})
	}
	return cfgs, nil
}

func (d *Display) NewContext(cfg display.Config, share display.Context) (display.Context, error) {
	var shareCtx C.GLXContext
	if share != nil {
		shareCtx = share.(*Context).ctx
	}
	ctx := C.glXCreateNewContext(d.dpy, cfg.(Config).cfg, C.GLX_RGBA_TYPE, shareCtx, C.True)
	err := d.xerror("glXCreateNewContext")
	if ctx == nil && err == nil {
		err = errors.New("glx: glXCreateNewContext returned no context")
	}
	if err != nil {
		if ctx != nil {
			C.glXDestroyContext(d.dpy, ctx)
		}
		return nil, fmt.Errorf("%w: %v", display.ErrContextCreationFailed, err)
	}
	return &Context{d: d, ctx: ctx}, nil
}

func (d *Display) NewWindowSurface(cfg display.Config, w display.NativeWindow, width, height int) (display.Surface, error) {
	win := C.glXCreateWindow(d.dpy, cfg.(Config).cfg, C.Window(w), nil)
	if err := d.xerror("glXCreateWindow"); win == 0 || err != nil {
		return nil, fmt.Errorf("glx: window surface for 0x%x: %v", uintptr(w), err)
	}
	return &Surface{d: d, drawable: C.GLXDrawable(win), width: width, height: height}, nil
}

// NewOffscreenSurface creates a 1x1 pbuffer. It only satisfies
// glXMakeContextCurrent; rendering goes to framebuffer objects.
func (d *Display) NewOffscreenSurface(cfg display.Config, w display.NativeWindow) (display.Surface, error) {
	attribs := []C.int{
		C.GLX_PBUFFER_WIDTH, 1,
		C.GLX_PBUFFER_HEIGHT, 1,
		C.None,
	}
	pb := C.glXCreatePbuffer(d.dpy, cfg.(Config).cfg, &attribs[0])
	if err := d.xerror("glXCreatePbuffer"); pb == 0 || err != nil {
		return nil, fmt.Errorf("glx: pbuffer surface: %v", err)
	}
	return &Surface{d: d, drawable: C.GLXDrawable(pb), pbuffer: true, width: 1, height: 1}, nil
}

// Release closes the protocol connection. The Xlib display belongs to
// the window system.
func (d *Display) Release() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (c Config) ID() int { return c.id }

func (c Config) String() string { return fmt.Sprintf("GLXFBConfig 0x%x", c.id) }

func (c *Context) MakeCurrent(s display.Surface) error {
	draw := s.(*Surface).drawable
	if C.glXMakeContextCurrent(c.d.dpy, draw, draw, c.ctx) == 0 {
		return fmt.Errorf("glXMakeContextCurrent failed: %v", c.d.xerror("glXMakeContextCurrent"))
	}
	return nil
}

func (c *Context) ReleaseCurrent() error {
	if C.glXMakeContextCurrent(c.d.dpy, C.None, C.None, nil) == 0 {
		return fmt.Errorf("glXMakeContextCurrent(None) failed: %v", c.d.xerror("glXMakeContextCurrent"))
	}
	return nil
}

func (c *Context) Functions() (gl.Functions, error) {
	f, err := glimpl.Load()
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c *Context) Release() {
	if c.ctx != nil {
		C.glXDestroyContext(c.d.dpy, c.ctx)
		c.ctx = nil
	}
}

func (s *Surface) Present() error {
	C.glXSwapBuffers(s.d.dpy, s.drawable)
	return s.d.xerror("glXSwapBuffers")
}

// Resize records the size. Window surfaces follow the X window; the
// pbuffer keeps its 1x1 storage.
func (s *Surface) Resize(width, height int) {
	s.width, s.height = width, height
}

func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

func (s *Surface) Release() {
	if s.drawable == 0 {
		return
	}
	if s.pbuffer {
		C.glXDestroyPbuffer(s.d.dpy, C.GLXPbuffer(s.drawable))
	} else {
		C.glXDestroyWindow(s.d.dpy, C.GLXWindow(s.drawable))
	}
	s.drawable = 0
}
