// SPDX-License-Identifier: Unlicense OR MIT

// Package display selects a windowing system GL binding and a surface
// configuration compatible with a native window.
package display

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"gioui.org/offblit/internal/gl"
)

type (
	// NativeDisplay is the platform display connection, an Xlib
	// Display pointer on X11.
	NativeDisplay unsafe.Pointer
	// NativeWindow is the platform window, an X11 Window id.
	NativeWindow uintptr
)

var (
	ErrNoDisplayBackend      = errors.New("display: no display backend")
	ErrNoCompatibleConfig    = errors.New("display: no compatible surface configuration")
	ErrContextCreationFailed = errors.New("display: context creation failed")
	ErrSwapFailed            = errors.New("display: swap buffers failed")
)

// Backend is one way of binding GL to a native display.
type Backend interface {
	Name() string
	// Probe reports whether the backend can serve the display. It
	// must not create any lasting state.
	Probe(d NativeDisplay) error
	Open(d NativeDisplay) (Display, error)
}

// Display is an initialized connection to a Backend.
type Display interface {
	Backend() string
	// Configs lists the window-capable configurations matching the
	// visual of w, in the order the driver enumerates them.
	Configs(w NativeWindow) ([]Config, error)
	// NewContext creates a context. A non-nil share places the new
	// context in the share group of share.
	NewContext(cfg Config, share Context) (Context, error)
	NewWindowSurface(cfg Config, w NativeWindow, width, height int) (Surface, error)
	// NewOffscreenSurface creates the 1x1 surface used to make a
	// context current without presenting to w.
	NewOffscreenSurface(cfg Config, w NativeWindow) (Surface, error)
	Release()
}

type Config interface {
	// ID is the driver's identifier for the configuration.
	ID() int
	String() string
}

// Context is a native GL context. Implementations are not safe for
// concurrent use and must be driven from a single locked OS thread.
type Context interface {
	MakeCurrent(s Surface) error
	ReleaseCurrent() error
	// Functions returns the GL entry points. Only valid while the
	// context is current.
	Functions() (gl.Functions, error)
	Release()
}

// Surface is a native drawable.
type Surface interface {
	// Present swaps the surface. The owning context must be current.
	Present() error
	Resize(width, height int)
	Size() (width, height int)
	Release()
}

var (
	mu       sync.Mutex
	backends = make(map[string]Backend)
)

// Register makes a backend available to Lookup. It is meant to be
// called from init functions.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := backends[b.Name()]; dup {
		panic(fmt.Errorf("display: backend %q registered twice", b.Name()))
	}
	backends[b.Name()] = b
}

// Lookup returns the registered backends in the order of names.
func Lookup(names []string) ([]Backend, error) {
	mu.Lock()
	defer mu.Unlock()
	var res []Backend
	for _, n := range names {
		b, ok := backends[n]
		if !ok {
			return nil, fmt.Errorf("display: unknown backend %q (available: %v)", n, registered())
		}
		res = append(res, b)
	}
	return res, nil
}

func registered() []string {
	names := maps.Keys(backends)
	slices.Sort(names)
	return names
}

// Selector walks an ordered list of backends.
type Selector struct {
	Backends []Backend
	// Rejected, if set, is called for every backend that fails to
	// probe or open before one succeeds.
	Rejected func(backend string, err error)
}

// Select tries each backend in order and returns the first display that
// opens, together with its first configuration compatible with w.
func Select(bs []Backend, d NativeDisplay, w NativeWindow) (Display, Config, error) {
	s := Selector{Backends: bs}
	return s.Select(d, w)
}

func (s *Selector) Select(d NativeDisplay, w NativeWindow) (Display, Config, error) {
	var errs []error
	for _, b := range s.Backends {
		disp, err := open(b, d)
		if err != nil {
			err = fmt.Errorf("%s: %w", b.Name(), err)
			errs = append(errs, err)
			if s.Rejected != nil {
				s.Rejected(b.Name(), err)
			}
			continue
		}
		cfgs, err := disp.Configs(w)
		if err != nil {
			disp.Release()
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrNoCompatibleConfig, b.Name(), err)
		}
		if len(cfgs) == 0 {
			disp.Release()
			return nil, nil, fmt.Errorf("%w: %s", ErrNoCompatibleConfig, b.Name())
		}
		return disp, cfgs[0], nil
	}
	if len(errs) == 0 {
		return nil, nil, ErrNoDisplayBackend
	}
	return nil, nil, fmt.Errorf("%w: %w", ErrNoDisplayBackend, errors.Join(errs...))
}

func open(b Backend, d NativeDisplay) (Display, error) {
	if err := b.Probe(d); err != nil {
		return nil, err
	}
	return b.Open(d)
}
