// SPDX-License-Identifier: Unlicense OR MIT

package f32color

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// RGBA is a 32 bit floating point color with components in [0, 1],
// stored without premultiplication.
type RGBA struct {
	R, G, B, A float32
}

// NRGBA converts to 8 bit channels the way a fixed point color buffer
// stores them: clamped and rounded to nearest.
func (rgba RGBA) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: toByte(rgba.R),
		G: toByte(rgba.G),
		B: toByte(rgba.B),
		A: toByte(rgba.A),
	}
}

func (rgba RGBA) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", rgba.R, rgba.G, rgba.B, rgba.A)
}

// FromNRGBA converts 8 bit channels to floats.
func FromNRGBA(c color.NRGBA) RGBA {
	return RGBA{
		R: float32(c.R) / 0xff,
		G: float32(c.G) / 0xff,
		B: float32(c.B) / 0xff,
		A: float32(c.A) / 0xff,
	}
}

// Parse reads a color written as "#rgb", "#rrggbb", "#rrggbbaa", an SVG
// color name such as "hotpink", or four comma separated floats.
func Parse(s string) (RGBA, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.Contains(s, ","):
		return parseFloats(s)
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return RGBA{}, fmt.Errorf("f32color: unknown color %q", s)
	}
	return FromNRGBA(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}), nil
}

func parseHex(h string) (RGBA, error) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		fallthrough
	case 6:
		h += "ff"
	case 8:
	default:
		return RGBA{}, fmt.Errorf("f32color: invalid hex color #%s", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("f32color: invalid hex color #%s: %w", h, err)
	}
	return FromNRGBA(color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}), nil
}

func parseFloats(s string) (RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return RGBA{}, fmt.Errorf("f32color: expected 4 components in %q", s)
	}
	var c [4]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return RGBA{}, fmt.Errorf("f32color: %q: %w", s, err)
		}
		if v < 0 || v > 1 {
			return RGBA{}, fmt.Errorf("f32color: component %g out of range [0, 1]", v)
		}
		c[i] = float32(v)
	}
	return RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (rgba *RGBA) UnmarshalText(text []byte) error {
	c, err := Parse(string(text))
	if err != nil {
		return err
	}
	*rgba = c
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (rgba RGBA) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%g, %g, %g, %g", rgba.R, rgba.G, rgba.B, rgba.A)), nil
}

func toByte(v float32) uint8 {
	v = float32(math.Max(0, math.Min(1, float64(v))))
	return uint8(math.Round(float64(v) * 0xff))
}
