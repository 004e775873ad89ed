// SPDX-License-Identifier: Unlicense OR MIT

package gl

import (
	"errors"
	"fmt"
)

// ErrFramebufferIncomplete is returned when an attachment or a
// storage reallocation leaves a framebuffer incomplete.
var ErrFramebufferIncomplete = errors.New("gl: framebuffer incomplete")

// Error returns the pending GL error, if any.
func Error(f Functions) error {
	if st := f.GetError(); st != NO_ERROR {
		return fmt.Errorf("glGetError: %s", errorString(st))
	}
	return nil
}

// CheckFramebuffer checks the completeness of the framebuffer bound to
// target.
func CheckFramebuffer(f Functions, target Enum) error {
	if st := f.CheckFramebufferStatus(target); st != FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status %s, err %#x", ErrFramebufferIncomplete, statusString(st), f.GetError())
	}
	return nil
}

func ParseGLVersion(glVer string) ([2]int, error) {
	var ver [2]int
	if _, err := fmt.Sscanf(glVer, "OpenGL ES %d.%d", &ver[0], &ver[1]); err == nil {
		return ver, nil
	} else if _, err := fmt.Sscanf(glVer, "%d.%d", &ver[0], &ver[1]); err == nil {
		return ver, nil
	}
	return ver, fmt.Errorf("failed to parse OpenGL version (%s)", glVer)
}

func errorString(e Enum) string {
	switch e {
	case INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("%#x", uint(e))
	}
}

func statusString(st Enum) string {
	switch st {
	case FRAMEBUFFER_UNDEFINED:
		return "GL_FRAMEBUFFER_UNDEFINED"
	case FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return "GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT"
	case FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return "GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT"
	case FRAMEBUFFER_UNSUPPORTED:
		return "GL_FRAMEBUFFER_UNSUPPORTED"
	default:
		return fmt.Sprintf("%#x", uint(st))
	}
}
