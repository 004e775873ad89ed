// SPDX-License-Identifier: Unlicense OR MIT

package gltest

import (
	"errors"
	"image"
	"image/color"
)

// Surface is a double buffered software surface.
type Surface struct {
	disp   *Display
	Window bool

	Width, Height int
	// back and front hold RGBA rows bottom-up.
	back, front []byte

	Presents int
	Resizes  int
	// PresentErr, if set, makes Present fail.
	PresentErr error
	Released   bool
}

func (s *Surface) Present() error {
	if c := s.disp.current; c == nil || c.surf != s {
		return errors.New("gltest: present of a surface that is not current")
	}
	if s.PresentErr != nil {
		return s.PresentErr
	}
	copy(s.front, s.back)
	s.Presents++
	return nil
}

func (s *Surface) Resize(width, height int) {
	if s.back != nil {
		s.Resizes++
	}
	s.Width, s.Height = width, height
	s.back = make([]byte, width*height*4)
	s.front = make([]byte, width*height*4)
}

func (s *Surface) Size() (int, int) {
	return s.Width, s.Height
}

func (s *Surface) Release() {
	s.Released = true
}

// Front returns the visible pixels, top-down.
func (s *Surface) Front() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		src := s.front[(s.Height-1-y)*s.Width*4:]
		copy(img.Pix[y*img.Stride:y*img.Stride+s.Width*4], src)
	}
	return img
}

// At returns the visible pixel at (x, y), counted from the top left.
func (s *Surface) At(x, y int) color.RGBA {
	return s.Front().RGBAAt(x, y)
}
