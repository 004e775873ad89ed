// SPDX-License-Identifier: Unlicense OR MIT

package gl

import (
	"errors"
	"testing"
)

func TestParseGLVersion(t *testing.T) {
	tests := []struct {
		in   string
		want [2]int
	}{
		{"4.6 (Compatibility Profile) Mesa 23.2.1", [2]int{4, 6}},
		{"3.3.0 NVIDIA 535.54.03", [2]int{3, 3}},
		{"OpenGL ES 3.2 Mesa 23.2.1", [2]int{3, 2}},
	}
	for _, test := range tests {
		got, err := ParseGLVersion(test.in)
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("%q: got %v, expected %v", test.in, got, test.want)
		}
	}
	if _, err := ParseGLVersion("garbage"); err == nil {
		t.Error("expected error for unparseable version")
	}
}

type statusFuncs struct {
	Functions
	status Enum
	err    Enum
}

func (s *statusFuncs) CheckFramebufferStatus(target Enum) Enum { return s.status }

func (s *statusFuncs) GetError() Enum {
	e := s.err
	s.err = NO_ERROR
	return e
}

func TestCheckFramebuffer(t *testing.T) {
	f := &statusFuncs{status: FRAMEBUFFER_COMPLETE}
	if err := CheckFramebuffer(f, FRAMEBUFFER); err != nil {
		t.Fatalf("complete framebuffer: %v", err)
	}
	f.status = FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	err := CheckFramebuffer(f, FRAMEBUFFER)
	if !errors.Is(err, ErrFramebufferIncomplete) {
		t.Fatalf("got %v, expected ErrFramebufferIncomplete", err)
	}
}

func TestError(t *testing.T) {
	f := &statusFuncs{err: OUT_OF_MEMORY}
	if err := Error(f); err == nil {
		t.Fatal("expected pending error")
	}
	if err := Error(f); err != nil {
		t.Fatalf("error not cleared: %v", err)
	}
}
