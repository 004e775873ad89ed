// SPDX-License-Identifier: Unlicense OR MIT

// Package glctx arbitrates which of two GL contexts is current on the
// rendering thread.
//
// A Manager owns a presentation context bound to the window surface and
// a compute context bound to an offscreen surface. At most one of them
// is current at any time. Acquire makes a context current and returns
// the only handle through which GL may be called; Release gives it back.
// All methods must be called from the same locked OS thread.
package glctx

import (
	"errors"
	"fmt"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/gl"
)

type Which uint8

const (
	Presentation Which = iota
	Compute
)

type State uint8

const (
	NotCurrent State = iota
	IsCurrent
)

var (
	// ErrDoubleAcquire is returned by Acquire while a context is
	// already current.
	ErrDoubleAcquire = errors.New("glctx: context acquired twice")
	// ErrStuckContext is returned when a context could not be made
	// not-current. The manager refuses every later acquire.
	ErrStuckContext = errors.New("glctx: context stuck current")
	// ErrHandleReleased is returned when releasing a handle that is
	// stale or belongs to the other context.
	ErrHandleReleased = errors.New("glctx: handle already released")
)

// Manager holds the two contexts and their surfaces.
type Manager struct {
	slots [2]slot
	// cur is the handle handed out by the last Acquire, or nil.
	cur   *Current
	stuck error
}

type slot struct {
	ctx   display.Context
	surf  display.Surface
	funcs gl.Functions
	state State
}

// Current is the capability to issue GL calls against an acquired
// context. It is invalid after Release.
type Current struct {
	m     *Manager
	which Which
}

func (w Which) String() string {
	switch w {
	case Presentation:
		return "presentation"
	case Compute:
		return "compute"
	default:
		panic("invalid context")
	}
}

func (s State) String() string {
	if s == IsCurrent {
		return "current"
	}
	return "not current"
}

// NewManager takes ownership of both contexts and surfaces. None of
// them may be current.
func NewManager(presentation display.Context, window display.Surface, compute display.Context, offscreen display.Surface) *Manager {
	m := new(Manager)
	m.slots[Presentation] = slot{ctx: presentation, surf: window}
	m.slots[Compute] = slot{ctx: compute, surf: offscreen}
	return m
}

// State reports whether which is current.
func (m *Manager) State(which Which) State {
	return m.slots[which].state
}

// Acquire makes which current on the calling thread.
func (m *Manager) Acquire(which Which) (*Current, error) {
	if m.stuck != nil {
		return nil, m.stuck
	}
	if m.cur != nil {
		return nil, fmt.Errorf("%w: acquiring %s while %s is current", ErrDoubleAcquire, which, m.cur.which)
	}
	s := &m.slots[which]
	if s.ctx == nil {
		return nil, errors.New("glctx: manager released")
	}
	if err := s.ctx.MakeCurrent(s.surf); err != nil {
		return nil, fmt.Errorf("glctx: make %s current: %w", which, err)
	}
	if s.funcs == nil {
		f, err := s.ctx.Functions()
		if err != nil {
			if rerr := s.ctx.ReleaseCurrent(); rerr != nil {
				m.stuck = fmt.Errorf("%w: %s: %v", ErrStuckContext, which, rerr)
			}
			return nil, err
		}
		s.funcs = f
	}
	s.state = IsCurrent
	m.cur = &Current{m: m, which: which}
	return m.cur, nil
}

// Release makes the context held by c not current and invalidates c.
func (m *Manager) Release(which Which, c *Current) error {
	if c == nil || c != m.cur {
		return fmt.Errorf("%w: %s", ErrHandleReleased, which)
	}
	if c.which != which {
		return fmt.Errorf("%w: handle for %s released as %s", ErrHandleReleased, c.which, which)
	}
	s := &m.slots[which]
	m.cur = nil
	c.m = nil
	if err := s.ctx.ReleaseCurrent(); err != nil {
		m.stuck = fmt.Errorf("%w: %s: %v", ErrStuckContext, which, err)
		return m.stuck
	}
	s.state = NotCurrent
	return nil
}

// Do acquires which, runs f and releases which, also when f fails or
// panics. The error of f takes precedence over a release error.
func (m *Manager) Do(which Which, f func(c *Current) error) (err error) {
	c, err := m.Acquire(which)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := m.Release(which, c); err == nil {
			err = rerr
		}
	}()
	return f(c)
}

// Destroy releases both contexts and surfaces. Neither context may be
// current. A manager with a stuck context releases nothing.
func (m *Manager) Destroy() error {
	if m.stuck != nil {
		return m.stuck
	}
	if m.cur != nil {
		return fmt.Errorf("%w: releasing manager while %s is current", ErrStuckContext, m.cur.which)
	}
	for i := range m.slots {
		s := &m.slots[i]
		if s.surf != nil {
			s.surf.Release()
		}
		if s.ctx != nil {
			s.ctx.Release()
		}
		*s = slot{}
	}
	return nil
}

func (c *Current) valid() {
	if c.m == nil || c.m.cur != c {
		panic("glctx: use of released context handle")
	}
}

// Which reports the context c refers to.
func (c *Current) Which() Which {
	return c.which
}

// Functions returns the GL entry points of the acquired context.
func (c *Current) Functions() gl.Functions {
	c.valid()
	return c.m.slots[c.which].funcs
}

// Surface returns the surface bound with the acquired context.
func (c *Current) Surface() display.Surface {
	c.valid()
	return c.m.slots[c.which].surf
}

// Present swaps the surface bound with the acquired context.
func (c *Current) Present() error {
	c.valid()
	if err := c.m.slots[c.which].surf.Present(); err != nil {
		return fmt.Errorf("%w: %s: %v", display.ErrSwapFailed, c.which, err)
	}
	return nil
}
