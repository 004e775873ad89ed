// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

// Package egl implements a display backend on EGL with the desktop
// OpenGL API bound. Importing it registers the backend as "egl".
package egl

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gl"
	"gioui.org/offblit/internal/glimpl"
	"gioui.org/offblit/internal/x11"
)

type Backend struct{}

type Display struct {
	disp        _EGLDisplay
	conn        *x11.Conn
	surfaceless bool
}

type Config struct {
	cfg     _EGLConfig
	id      int
	pbuffer bool
}

type Context struct {
	d   *Display
	ctx _EGLContext
}

type Surface struct {
	d             *Display
	surf          _EGLSurface
	width, height int
}

var (
	nilEGLDisplay _EGLDisplay
	nilEGLSurface _EGLSurface
	nilEGLContext _EGLContext
)

const (
	_EGL_BLUE_SIZE                   = 0x3022
	_EGL_CONFIG_CAVEAT               = 0x3027
	_EGL_CONFIG_ID                   = 0x3028
	_EGL_CONTEXT_MAJOR_VERSION       = 0x3098
	_EGL_CONTEXT_MINOR_VERSION       = 0x30fb
	_EGL_CONTEXT_OPENGL_CORE_BIT     = 0x1
	_EGL_CONTEXT_OPENGL_PROFILE_MASK = 0x30fd
	_EGL_EXTENSIONS                  = 0x3055
	_EGL_GREEN_SIZE                  = 0x3023
	_EGL_HEIGHT                      = 0x3056
	_EGL_NATIVE_VISUAL_ID            = 0x302e
	_EGL_NONE                        = 0x3038
	_EGL_OPENGL_API                  = 0x30a2
	_EGL_OPENGL_BIT                  = 0x8
	_EGL_PBUFFER_BIT                 = 0x1
	_EGL_RED_SIZE                    = 0x3024
	_EGL_RENDERABLE_TYPE             = 0x3040
	_EGL_SURFACE_TYPE                = 0x3033
	_EGL_WIDTH                       = 0x3057
	_EGL_WINDOW_BIT                  = 0x4
)

func init() {
	display.Register(Backend{})
}

func (Backend) Name() string { return "egl" }

// Probe only looks the display up; it does not initialize it.
func (Backend) Probe(d display.NativeDisplay) error {
	if d == nil {
		return errors.New("egl: no X11 display")
	}
	if eglGetDisplay(nativeDisplay(unsafe.Pointer(d))) == nilEGLDisplay {
		return fmt.Errorf("egl: eglGetDisplay failed: 0x%x", eglGetError())
	}
	return nil
}

func (Backend) Open(d display.NativeDisplay) (display.Display, error) {
	disp := eglGetDisplay(nativeDisplay(unsafe.Pointer(d)))
	if disp == nilEGLDisplay {
		return nil, fmt.Errorf("egl: eglGetDisplay failed: 0x%x", eglGetError())
	}
	major, minor, ok := eglInitialize(disp)
	if !ok {
		return nil, fmt.Errorf("egl: eglInitialize failed: 0x%x", eglGetError())
	}
	if major == 1 && minor < 4 {
		eglTerminate(disp)
		return nil, fmt.Errorf("egl: version %d.%d is older than 1.4", major, minor)
	}
	if !eglBindAPI(_EGL_OPENGL_API) {
		eglTerminate(disp)
		return nil, fmt.Errorf("egl: eglBindAPI(EGL_OPENGL_API) failed: 0x%x", eglGetError())
	}
	conn, err := x11.Dial(d)
	if err != nil {
		eglTerminate(disp)
		return nil, err
	}
	exts := strings.Split(eglQueryString(disp, _EGL_EXTENSIONS), " ")
	return &Display{
		disp:        disp,
		conn:        conn,
		surfaceless: hasExtension(exts, "EGL_KHR_surfaceless_context"),
	}, nil
}

func hasExtension(exts []string, ext string) bool {
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func (d *Display) Backend() string { return "egl" }

// Configs returns the 8 bit RGB desktop GL configurations whose native
// visual matches w, in the order eglChooseConfig ranks them.
func (d *Display) Configs(w display.NativeWindow) ([]display.Config, error) {
	vis, err := d.conn.WindowVisual(w)
	if err != nil {
		return nil, err
	}
	attribs := []_EGLint{
		_EGL_RENDERABLE_TYPE, _EGL_OPENGL_BIT,
		_EGL_SURFACE_TYPE, _EGL_WINDOW_BIT,
		_EGL_RED_SIZE, 8,
		_EGL_GREEN_SIZE, 8,
		_EGL_BLUE_SIZE, 8,
		_EGL_CONFIG_CAVEAT, _EGL_NONE,
		_EGL_NONE,
	}
	all, ok := eglChooseConfig(d.disp, attribs)
	if !ok {
		return nil, fmt.Errorf("egl: eglChooseConfig failed: 0x%x", eglGetError())
	}
	var cfgs []display.Config
	for _, c := range all {
		visID, ok := eglGetConfigAttrib(d.disp, c, _EGL_NATIVE_VISUAL_ID)
		if !ok || uint32(visID) != vis {
			continue
		}
		id, _ := eglGetConfigAttrib(d.disp, c, _EGL_CONFIG_ID)
		types, _ := eglGetConfigAttrib(d.disp, c, _EGL_SURFACE_TYPE)
		cfg := Config{cfg: c, id: int(id), pbuffer: types&_EGL_PBUFFER_BIT != 0}
		if !cfg.pbuffer && !d.surfaceless {
			continue
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func (d *Display) NewContext(cfg display.Config, share display.Context) (display.Context, error) {
	shareCtx := nilEGLContext
	if share != nil {
		shareCtx = share.(*Context).ctx
	}
	c := cfg.(Config).cfg
	ctxAttribs := []_EGLint{
		_EGL_CONTEXT_MAJOR_VERSION, 3,
		_EGL_CONTEXT_MINOR_VERSION, 3,
		_EGL_CONTEXT_OPENGL_PROFILE_MASK, _EGL_CONTEXT_OPENGL_CORE_BIT,
		_EGL_NONE,
	}
	ctx := eglCreateContext(d.disp, c, shareCtx, ctxAttribs)
	if ctx == nilEGLContext {
		// Fall back to whatever version the driver defaults to.
		ctx = eglCreateContext(d.disp, c, shareCtx, []_EGLint{_EGL_NONE})
		if ctx == nilEGLContext {
			return nil, fmt.Errorf("%w: eglCreateContext: 0x%x", display.ErrContextCreationFailed, eglGetError())
		}
	}
	return &Context{d: d, ctx: ctx}, nil
}

func (d *Display) NewWindowSurface(cfg display.Config, w display.NativeWindow, width, height int) (display.Surface, error) {
	surf := eglCreateWindowSurface(d.disp, cfg.(Config).cfg, nativeWindow(uintptr(w)), []_EGLint{_EGL_NONE})
	if surf == nilEGLSurface {
		return nil, fmt.Errorf("egl: eglCreateWindowSurface failed: 0x%x", eglGetError())
	}
	return &Surface{d: d, surf: surf, width: width, height: height}, nil
}

// NewOffscreenSurface returns a 1x1 pbuffer, or no surface at all if
// the configuration lacks pbuffer support and contexts may be made
// current surfaceless.
func (d *Display) NewOffscreenSurface(cfg display.Config, w display.NativeWindow) (display.Surface, error) {
	c := cfg.(Config)
	if !c.pbuffer {
		if !d.surfaceless {
			return nil, errors.New("egl: neither pbuffers nor EGL_KHR_surfaceless_context are supported")
		}
		return &Surface{d: d, width: 1, height: 1}, nil
	}
	attribs := []_EGLint{
		_EGL_WIDTH, 1,
		_EGL_HEIGHT, 1,
		_EGL_NONE,
	}
	surf := eglCreatePbufferSurface(d.disp, c.cfg, attribs)
	if surf == nilEGLSurface {
		return nil, fmt.Errorf("egl: eglCreatePbufferSurface failed: 0x%x", eglGetError())
	}
	return &Surface{d: d, surf: surf, width: 1, height: 1}, nil
}

func (d *Display) Release() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	if d.disp != nilEGLDisplay {
		eglTerminate(d.disp)
		eglReleaseThread()
		d.disp = nilEGLDisplay
	}
}

func (c Config) ID() int { return c.id }

func (c Config) String() string { return fmt.Sprintf("EGLConfig 0x%x", c.id) }

func (c *Context) MakeCurrent(s display.Surface) error {
	surf := s.(*Surface).surf
	if !eglMakeCurrent(c.d.disp, surf, surf, c.ctx) {
		return fmt.Errorf("eglMakeCurrent error 0x%x", eglGetError())
	}
	return nil
}

func (c *Context) ReleaseCurrent() error {
	if !eglMakeCurrent(c.d.disp, nilEGLSurface, nilEGLSurface, nilEGLContext) {
		return fmt.Errorf("eglMakeCurrent(EGL_NO_CONTEXT) error 0x%x", eglGetError())
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
	if c.ctx != nilEGLContext {
		eglDestroyContext(c.d.disp, c.ctx)
		c.ctx = nilEGLContext
	}
}

func (s *Surface) Present() error {
	if s.surf == nilEGLSurface {
		return nil
	}
	if !eglSwapBuffers(s.d.disp, s.surf) {
		return fmt.Errorf("eglSwapBuffers failed (%x)", eglGetError())
	}
	return nil
}

// Resize records the size. EGL tracks the size of X11 windows itself.
func (s *Surface) Resize(width, height int) {
	s.width, s.height = width, height
}

func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

func (s *Surface) Release() {
	if s.surf != nilEGLSurface {
		eglDestroySurface(s.d.disp, s.surf)
		s.surf = nilEGLSurface
	}
}
