// SPDX-License-Identifier: Unlicense OR MIT

package gl

type (
	Attrib uint
	Enum   uint
)

const (
	BACK                         = 0x0405
	COLOR_ATTACHMENT0            = 0x8ce0
	COLOR_BUFFER_BIT             = 0x4000
	DRAW_FRAMEBUFFER             = 0x8ca9
	FRAMEBUFFER                  = 0x8d40
	FRAMEBUFFER_COMPLETE         = 0x8cd5
	FRAMEBUFFER_UNDEFINED        = 0x8219
	INVALID_ENUM                 = 0x0500
	INVALID_OPERATION            = 0x0502
	INVALID_VALUE                = 0x0501
	LINEAR                       = 0x2601
	NEAREST                      = 0x2600
	NO_ERROR                     = 0x0
	OUT_OF_MEMORY                = 0x0505
	READ_FRAMEBUFFER             = 0x8ca8
	RENDERBUFFER                 = 0x8d41
	RENDERBUFFER_HEIGHT          = 0x8d43
	RENDERBUFFER_INTERNAL_FORMAT = 0x8d44
	RENDERBUFFER_WIDTH           = 0x8d42
	RENDERER                     = 0x1f01
	RGB8                         = 0x8051
	RGBA                         = 0x1908
	RGBA8                        = 0x8058
	UNSIGNED_BYTE                = 0x1401
	VENDOR                       = 0x1f00
	VERSION                      = 0x1f02
	VIEWPORT                     = 0x0ba2

	FRAMEBUFFER_INCOMPLETE_ATTACHMENT         = 0x8cd6
	FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT = 0x8cd7
	FRAMEBUFFER_UNSUPPORTED                   = 0x8cdd
	INVALID_FRAMEBUFFER_OPERATION             = 0x0506
)

// Functions is the subset of the OpenGL API needed to render into a
// shared renderbuffer and blit it to a window. Every method operates
// on the context current on the calling thread.
type Functions interface {
	BindFramebuffer(target Enum, fb Framebuffer)
	BindRenderbuffer(target Enum, rb Renderbuffer)
	BlitFramebuffer(sx0, sy0, sx1, sy1, dx0, dy0, dx1, dy1 int, mask Enum, filter Enum)
	CheckFramebufferStatus(target Enum) Enum
	Clear(mask Enum)
	ClearColor(red, green, blue, alpha float32)
	CreateFramebuffer() Framebuffer
	CreateRenderbuffer() Renderbuffer
	DeleteFramebuffer(v Framebuffer)
	DeleteRenderbuffer(v Renderbuffer)
	Finish()
	FramebufferRenderbuffer(target, attachment, renderbuffertarget Enum, renderbuffer Renderbuffer)
	GetError() Enum
	GetInteger4(pname Enum) [4]int
	GetRenderbufferParameteri(target, pname Enum) int
	GetString(pname Enum) string
	ReadBuffer(src Enum)
	ReadPixels(x, y, width, height int, format, ty Enum, data []byte)
	RenderbufferStorage(target, internalformat Enum, width, height int)
	Viewport(x, y, width, height int)
}
