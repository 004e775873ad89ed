// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package egl

/*
#cgo linux pkg-config: egl
#cgo freebsd LDFLAGS: -lEGL
#cgo freebsd CFLAGS: -I/usr/local/include
#cgo freebsd LDFLAGS: -L/usr/local/lib
#cgo CFLAGS: -DEGL_NO_X11

#include <EGL/egl.h>
#include <EGL/eglext.h>
*/
import "C"

import "unsafe"

type (
	_EGLint           = C.EGLint
	_EGLDisplay       = C.EGLDisplay
	_EGLConfig        = C.EGLConfig
	_EGLContext       = C.EGLContext
	_EGLSurface       = C.EGLSurface
	NativeDisplayType = C.EGLNativeDisplayType
	NativeWindowType  = C.EGLNativeWindowType
)

func eglBindAPI(api _EGLint) bool {
	return C.eglBindAPI(C.EGLenum(api)) == C.EGL_TRUE
}

// eglChooseConfig returns every matching configuration, best first.
func eglChooseConfig(disp _EGLDisplay, attribs []_EGLint) ([]_EGLConfig, bool) {
	var n _EGLint
	if C.eglChooseConfig(disp, &attribs[0], nil, 0, &n) != C.EGL_TRUE {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	cfgs := make([]_EGLConfig, n)
	if C.eglChooseConfig(disp, &attribs[0], &cfgs[0], n, &n) != C.EGL_TRUE {
		return nil, false
	}
	return cfgs[:n], true
}

func eglCreateContext(disp _EGLDisplay, cfg _EGLConfig, shareCtx _EGLContext, attribs []_EGLint) _EGLContext {
	return C.eglCreateContext(disp, cfg, shareCtx, &attribs[0])
}

func eglCreateWindowSurface(disp _EGLDisplay, cfg _EGLConfig, win NativeWindowType, attribs []_EGLint) _EGLSurface {
	return C.eglCreateWindowSurface(disp, cfg, win, &attribs[0])
}

func eglCreatePbufferSurface(disp _EGLDisplay, cfg _EGLConfig, attribs []_EGLint) _EGLSurface {
	return C.eglCreatePbufferSurface(disp, cfg, &attribs[0])
}

func eglDestroySurface(disp _EGLDisplay, surf _EGLSurface) bool {
	return C.eglDestroySurface(disp, surf) == C.EGL_TRUE
}

func eglDestroyContext(disp _EGLDisplay, ctx _EGLContext) bool {
	return C.eglDestroyContext(disp, ctx) == C.EGL_TRUE
}

func eglGetConfigAttrib(disp _EGLDisplay, cfg _EGLConfig, attr _EGLint) (_EGLint, bool) {
	var val _EGLint
	ret := C.eglGetConfigAttrib(disp, cfg, attr, &val)
	return val, ret == C.EGL_TRUE
}

func eglGetDisplay(disp NativeDisplayType) _EGLDisplay {
	return C.eglGetDisplay(disp)
}

func eglGetError() _EGLint {
	return C.eglGetError()
}

func eglInitialize(disp _EGLDisplay) (_EGLint, _EGLint, bool) {
	var maj, min _EGLint
	ret := C.eglInitialize(disp, &maj, &min)
	return maj, min, ret == C.EGL_TRUE
}

func eglMakeCurrent(disp _EGLDisplay, draw, read _EGLSurface, ctx _EGLContext) bool {
	return C.eglMakeCurrent(disp, draw, read, ctx) == C.EGL_TRUE
}

func eglReleaseThread() bool {
	return C.eglReleaseThread() == C.EGL_TRUE
}

func eglSwapBuffers(disp _EGLDisplay, surf _EGLSurface) bool {
	return C.eglSwapBuffers(disp, surf) == C.EGL_TRUE
}

func eglTerminate(disp _EGLDisplay) bool {
	return C.eglTerminate(disp) == C.EGL_TRUE
}

func eglQueryString(disp _EGLDisplay, name _EGLint) string {
	s := C.eglQueryString(disp, name)
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func nativeDisplay(p unsafe.Pointer) NativeDisplayType {
	return NativeDisplayType(p)
}

func nativeWindow(w uintptr) NativeWindowType {
	return NativeWindowType(w)
}
