// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

// Package glimpl implements gl.Functions on top of the go-gl bindings.
package glimpl

import (
	"fmt"
	"sync"
	"unsafe"

	gogl "github.com/go-gl/gl/v3.3-core/gl"

	"gioui.org/offblit/internal/gl"
)

type Functions struct{}

var (
	initOnce sync.Once
	initErr  error
)

// Load resolves the GL entry points. A context must be current on the
// calling thread. Entry points are resolved once per process; contexts
// of one share group use the same driver, so the pointers stay valid for
// every context created afterwards.
func Load() (*Functions, error) {
	initOnce.Do(func() {
		if err := gogl.Init(); err != nil {
			initErr = fmt.Errorf("glimpl: failed to load OpenGL: %w", err)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return new(Functions), nil
}

func (f *Functions) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	gogl.BindFramebuffer(uint32(target), uint32(fb.V))
}

func (f *Functions) BindRenderbuffer(target gl.Enum, rb gl.Renderbuffer) {
	gogl.BindRenderbuffer(uint32(target), uint32(rb.V))
}

func (f *Functions) BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask gl.Enum, filter gl.Enum) {
	gogl.BlitFramebuffer(int32(sx0), int32(sy0), int32(sx1), int32(sy1), int32(dx0), int32(dy0), int32(dx1), int32(dy1), uint32(mask), uint32(filter))
}

func (f *Functions) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	return gl.Enum(gogl.CheckFramebufferStatus(uint32(target)))
}

func (f *Functions) Clear(mask gl.Enum) {
	gogl.Clear(uint32(mask))
}

func (f *Functions) ClearColor(red, green, blue, alpha float32) {
	gogl.ClearColor(red, green, blue, alpha)
}

func (f *Functions) CreateFramebuffer() gl.Framebuffer {
	var fb uint32
	gogl.GenFramebuffers(1, &fb)
	return gl.Framebuffer{V: uint(fb)}
}

func (f *Functions) CreateRenderbuffer() gl.Renderbuffer {
	var rb uint32
	gogl.GenRenderbuffers(1, &rb)
	return gl.Renderbuffer{V: uint(rb)}
}

func (f *Functions) DeleteFramebuffer(v gl.Framebuffer) {
	fb := uint32(v.V)
	gogl.DeleteFramebuffers(1, &fb)
}

func (f *Functions) DeleteRenderbuffer(v gl.Renderbuffer) {
	rb := uint32(v.V)
	gogl.DeleteRenderbuffers(1, &rb)
}

func (f *Functions) Finish() {
	gogl.Finish()
}

func (f *Functions) FramebufferRenderbuffer(target, attachment, renderbuffertarget gl.Enum, renderbuffer gl.Renderbuffer) {
	gogl.FramebufferRenderbuffer(uint32(target), uint32(attachment), uint32(renderbuffertarget), uint32(renderbuffer.V))
}

func (f *Functions) GetError() gl.Enum {
	return gl.Enum(gogl.GetError())
}

func (f *Functions) GetInteger4(pname gl.Enum) [4]int {
	var p [4]int32
	gogl.GetIntegerv(uint32(pname), &p[0])
	return [4]int{int(p[0]), int(p[1]), int(p[2]), int(p[3])}
}

func (f *Functions) GetRenderbufferParameteri(target, pname gl.Enum) int {
	var p int32
	gogl.GetRenderbufferParameteriv(uint32(target), uint32(pname), &p)
	return int(p)
}

func (f *Functions) GetString(pname gl.Enum) string {
	return gogl.GoStr(gogl.GetString(uint32(pname)))
}

func (f *Functions) ReadBuffer(src gl.Enum) {
	gogl.ReadBuffer(uint32(src))
}

func (f *Functions) ReadPixels(x, y, width, height int, format, ty gl.Enum, data []byte) {
	gogl.ReadPixels(int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(ty), unsafe.Pointer(&data[0]))
}

func (f *Functions) RenderbufferStorage(target, internalformat gl.Enum, width, height int) {
	gogl.RenderbufferStorage(uint32(target), uint32(internalformat), int32(width), int32(height))
}

func (f *Functions) Viewport(x, y, width, height int) {
	gogl.Viewport(int32(x), int32(y), int32(width), int32(height))
}
