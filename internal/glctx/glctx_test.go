// SPDX-License-Identifier: Unlicense OR MIT

package glctx_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/offblit/internal/display"
	"gioui.org/offblit/internal/glctx"
	"gioui.org/offblit/internal/gltest"
)

type fixture struct {
	disp      *gltest.Display
	present   *gltest.Context
	compute   *gltest.Context
	window    *gltest.Surface
	offscreen *gltest.Surface
	m         *glctx.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := gltest.NewDisplay(1)
	cfgs, err := d.Configs(0)
	require.NoError(t, err)
	compute, err := d.NewContext(cfgs[0], nil)
	require.NoError(t, err)
	present, err := d.NewContext(cfgs[0], compute)
	require.NoError(t, err)
	window, err := d.NewWindowSurface(cfgs[0], 0, 32, 32)
	require.NoError(t, err)
	offscreen, err := d.NewOffscreenSurface(cfgs[0], 0)
	require.NoError(t, err)
	return &fixture{
		disp:      d,
		present:   present.(*gltest.Context),
		compute:   compute.(*gltest.Context),
		window:    window.(*gltest.Surface),
		offscreen: offscreen.(*gltest.Surface),
		m:         glctx.NewManager(present, window, compute, offscreen),
	}
}

func TestAcquireRelease(t *testing.T) {
	f := newFixture(t)
	c, err := f.m.Acquire(glctx.Compute)
	require.NoError(t, err)
	assert.Equal(t, glctx.Compute, c.Which())
	assert.Equal(t, glctx.IsCurrent, f.m.State(glctx.Compute))
	assert.Equal(t, glctx.NotCurrent, f.m.State(glctx.Presentation))
	assert.Same(t, f.compute, f.disp.Current())
	assert.Same(t, f.offscreen, c.Surface())

	require.NoError(t, f.m.Release(glctx.Compute, c))
	assert.Equal(t, glctx.NotCurrent, f.m.State(glctx.Compute))
	assert.Nil(t, f.disp.Current())
}

func TestDoubleAcquire(t *testing.T) {
	f := newFixture(t)
	c, err := f.m.Acquire(glctx.Presentation)
	require.NoError(t, err)
	for _, w := range []glctx.Which{glctx.Presentation, glctx.Compute} {
		_, err := f.m.Acquire(w)
		assert.ErrorIs(t, err, glctx.ErrDoubleAcquire, w.String())
	}
	// The failed acquires leave the first one in place.
	assert.Same(t, f.present, f.disp.Current())
	assert.Equal(t, glctx.IsCurrent, f.m.State(glctx.Presentation))
	require.NoError(t, f.m.Release(glctx.Presentation, c))
	assert.Zero(t, f.disp.Violations)
}

// TestAtMostOneCurrent drives random acquire and release sequences and
// checks that the manager state always matches the display.
func TestAtMostOneCurrent(t *testing.T) {
	f := newFixture(t)
	rnd := rand.New(rand.NewSource(42))
	var held *glctx.Current
	for i := 0; i < 1000; i++ {
		w := glctx.Which(rnd.Intn(2))
		if rnd.Intn(2) == 0 {
			c, err := f.m.Acquire(w)
			if held != nil {
				require.ErrorIs(t, err, glctx.ErrDoubleAcquire)
			} else {
				require.NoError(t, err)
				held = c
			}
		} else {
			err := f.m.Release(w, held)
			if held != nil && held.Which() == w {
				require.NoError(t, err)
				held = nil
			} else {
				require.ErrorIs(t, err, glctx.ErrHandleReleased)
			}
		}
		n := 0
		for _, w := range []glctx.Which{glctx.Presentation, glctx.Compute} {
			if f.m.State(w) == glctx.IsCurrent {
				n++
			}
		}
		require.LessOrEqual(t, n, 1)
		require.Equal(t, n == 1, f.disp.Current() != nil)
	}
	assert.Zero(t, f.disp.Violations)
}

func TestReleaseStaleHandle(t *testing.T) {
	f := newFixture(t)
	c, err := f.m.Acquire(glctx.Compute)
	require.NoError(t, err)
	assert.ErrorIs(t, f.m.Release(glctx.Presentation, c), glctx.ErrHandleReleased)
	require.NoError(t, f.m.Release(glctx.Compute, c))
	assert.ErrorIs(t, f.m.Release(glctx.Compute, c), glctx.ErrHandleReleased)
	assert.ErrorIs(t, f.m.Release(glctx.Compute, nil), glctx.ErrHandleReleased)
	assert.Panics(t, func() { c.Functions() })
	assert.Panics(t, func() { c.Surface() })
}

func TestStuckContext(t *testing.T) {
	f := newFixture(t)
	f.compute.ReleaseErr = errors.New("driver refused")
	c, err := f.m.Acquire(glctx.Compute)
	require.NoError(t, err)
	err = f.m.Release(glctx.Compute, c)
	require.ErrorIs(t, err, glctx.ErrStuckContext)
	assert.Contains(t, err.Error(), "driver refused")

	// The manager is poisoned, even for the other context.
	f.compute.ReleaseErr = nil
	_, err = f.m.Acquire(glctx.Presentation)
	assert.ErrorIs(t, err, glctx.ErrStuckContext)
	_, err = f.m.Acquire(glctx.Compute)
	assert.ErrorIs(t, err, glctx.ErrStuckContext)
}

func TestMakeCurrentFailure(t *testing.T) {
	f := newFixture(t)
	f.present.MakeCurrentErr = errors.New("bad match")
	_, err := f.m.Acquire(glctx.Presentation)
	require.Error(t, err)
	assert.Equal(t, glctx.NotCurrent, f.m.State(glctx.Presentation))

	// A failed acquire does not count as current.
	c, err := f.m.Acquire(glctx.Compute)
	require.NoError(t, err)
	require.NoError(t, f.m.Release(glctx.Compute, c))
}

func TestFunctionsFailure(t *testing.T) {
	f := newFixture(t)
	f.compute.FunctionsErr = errors.New("no GL")
	_, err := f.m.Acquire(glctx.Compute)
	require.Error(t, err)
	assert.Nil(t, f.disp.Current())
	assert.Equal(t, glctx.NotCurrent, f.m.State(glctx.Compute))
}

func TestDo(t *testing.T) {
	f := newFixture(t)
	err := f.m.Do(glctx.Presentation, func(c *glctx.Current) error {
		assert.Same(t, f.present, f.disp.Current())
		gf := c.Functions()
		gf.ClearColor(0, 0, 0, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, f.disp.Current())

	errBoom := errors.New("boom")
	err = f.m.Do(glctx.Compute, func(c *glctx.Current) error {
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, f.disp.Current())

	assert.Panics(t, func() {
		f.m.Do(glctx.Compute, func(c *glctx.Current) error {
			panic("boom")
		})
	})
	assert.Nil(t, f.disp.Current())
	assert.Equal(t, glctx.NotCurrent, f.m.State(glctx.Compute))
}

func TestDoNested(t *testing.T) {
	f := newFixture(t)
	err := f.m.Do(glctx.Compute, func(c *glctx.Current) error {
		return f.m.Do(glctx.Presentation, func(c *glctx.Current) error {
			return nil
		})
	})
	assert.ErrorIs(t, err, glctx.ErrDoubleAcquire)
	assert.Nil(t, f.disp.Current())
}

func TestPresent(t *testing.T) {
	f := newFixture(t)
	err := f.m.Do(glctx.Presentation, func(c *glctx.Current) error {
		return c.Present()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.window.Presents)
	assert.Equal(t, 0, f.offscreen.Presents)

	f.offscreen.PresentErr = errors.New("lost")
	err = f.m.Do(glctx.Compute, func(c *glctx.Current) error {
		return c.Present()
	})
	assert.ErrorIs(t, err, display.ErrSwapFailed)
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	c, err := f.m.Acquire(glctx.Compute)
	require.NoError(t, err)
	assert.ErrorIs(t, f.m.Destroy(), glctx.ErrStuckContext)
	require.NoError(t, f.m.Release(glctx.Compute, c))

	require.NoError(t, f.m.Destroy())
	assert.True(t, f.present.Released)
	assert.True(t, f.compute.Released)
	assert.True(t, f.window.Released)
	assert.True(t, f.offscreen.Released)
	_, err = f.m.Acquire(glctx.Compute)
	assert.Error(t, err)
}
