// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"
	"image"
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"gioui.org/offblit/gpu"
	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gl"
	"gioui.org/offblit/internal/glctx"
)

// Options configure Run.
type Options struct {
	Config Config
	// Logger receives progress and every window event at debug level.
	// A nil Logger discards.
	Logger *log.Logger
	// Backends, if set, replaces the backends named by Config.
	Backends []display.Backend
	// OnFrame, if set, receives every frame read back from the window
	// before it is presented.
	OnFrame func(img *image.RGBA)
}

var (
	errEmptyWindow = errors.New("app: window has zero size")
	errGLVersion   = errors.New("app: OpenGL 3.0 or newer required")
)

type runner struct {
	w       Window
	log     *log.Logger
	cfg     Config
	onFrame func(img *image.RGBA)

	disp display.Display
	m    *glctx.Manager
	gpu  *gpu.GPU

	closing bool
}

// Run renders into w until it terminates. The window must outlive Run.
func Run(w Window, opts Options) error {
	// GL contexts are current per thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r := &runner{
		w:       w,
		log:     opts.Logger,
		cfg:     opts.Config,
		onFrame: opts.OnFrame,
	}
	if r.log == nil {
		r.log = log.New(io.Discard)
	}
	if err := r.cfg.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	backends := opts.Backends
	if backends == nil {
		bs, err := display.Lookup(r.cfg.Backends)
		if err != nil {
			return err
		}
		backends = bs
	}
	if err := r.init(backends); err != nil {
		return errors.Join(err, r.teardown())
	}
	return r.loop()
}

func (r *runner) init(backends []display.Backend) error {
	nd, nw := r.w.Native()
	sel := display.Selector{
		Backends: backends,
		Rejected: func(name string, err error) {
			r.log.Debug("backend rejected", "backend", name, "err", err)
		},
	}
	disp, cfg, err := sel.Select(nd, nw)
	if err != nil {
		return err
	}
	r.disp = disp
	r.log.Info("display", "backend", disp.Backend(), "config", cfg)

	size := r.w.Size()
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("%w: %v", errEmptyWindow, size)
	}
	compute, err := disp.NewContext(cfg, nil)
	if err != nil {
		return err
	}
	presentation, err := disp.NewContext(cfg, compute)
	if err != nil {
		compute.Release()
		return err
	}
	win, err := disp.NewWindowSurface(cfg, nw, size.X, size.Y)
	if err != nil {
		presentation.Release()
		compute.Release()
		return err
	}
	off, err := disp.NewOffscreenSurface(cfg, nw)
	if err != nil {
		win.Release()
		presentation.Release()
		compute.Release()
		return err
	}
	r.m = glctx.NewManager(presentation, win, compute, off)
	if err := r.m.Do(glctx.Compute, r.checkVersion); err != nil {
		return err
	}
	g, err := gpu.New(r.m, size, gpu.SkipRedundantResize(r.cfg.SkipRedundantResize))
	if err != nil {
		return err
	}
	r.gpu = g
	r.log.Debug("pipeline ready", "size", size)
	return nil
}

// checkVersion logs the GL implementation and rejects one without
// framebuffer blits.
func (r *runner) checkVersion(c *glctx.Current) error {
	f := c.Functions()
	s := f.GetString(gl.VERSION)
	ver, err := gl.ParseGLVersion(s)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	r.log.Info("OpenGL", "version", s, "renderer", f.GetString(gl.RENDERER))
	if ver[0] < 3 {
		return fmt.Errorf("%w: got %d.%d", errGLVersion, ver[0], ver[1])
	}
	return nil
}

func (r *runner) loop() error {
	r.w.RequestRedraw()
	for {
		e := r.w.NextEvent()
		r.log.Debug("event", "event", e)
		var err error
		switch e := e.(type) {
		case ResizedEvent:
			err = r.resize(e)
		case RedrawEvent:
			if !r.closing {
				err = r.frame()
			}
		case CloseEvent:
			r.closing = true
			r.w.Close()
		case TerminateEvent:
			return r.teardown()
		}
		if err != nil {
			return errors.Join(err, r.teardown())
		}
	}
}

func (r *runner) resize(e ResizedEvent) error {
	if r.closing {
		return nil
	}
	if e.Width == 0 || e.Height == 0 {
		r.log.Debug("ignoring empty resize", "width", e.Width, "height", e.Height)
		return nil
	}
	r.log.Info("resize", "width", e.Width, "height", e.Height)
	if err := r.gpu.Resize(image.Pt(int(e.Width), int(e.Height))); err != nil {
		return err
	}
	r.w.RequestRedraw()
	return nil
}

func (r *runner) frame() error {
	if r.onFrame == nil {
		return r.gpu.Frame(r.cfg.ClearColor)
	}
	img, err := r.gpu.Capture(r.cfg.ClearColor)
	if err != nil {
		return err
	}
	r.onFrame(img)
	return nil
}

// teardown releases what init created, in reverse order.
func (r *runner) teardown() error {
	var errs []error
	if r.gpu != nil {
		r.log.Info("teardown")
		errs = append(errs, r.gpu.Release())
		r.gpu = nil
	}
	if r.m != nil {
		errs = append(errs, r.m.Destroy())
		r.m = nil
	}
	if r.disp != nil {
		r.disp.Release()
		r.disp = nil
	}
	return errors.Join(errs...)
}
