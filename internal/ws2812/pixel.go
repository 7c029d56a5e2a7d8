package ws2812

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrIndexRange is returned by Strip.Set for an index outside the strip.
var ErrIndexRange = errors.New("ws2812: pixel index out of range")

// Pixel is one LED's red, green and blue intensity.
type Pixel struct {
	R, G, B uint8
}

// Off is the all-dark pixel.
var Off = Pixel{}

// PixelFromColor converts any color to a Pixel. Alpha is applied as a brightness factor
// (non-premultiplied input is premultiplied by the color model).
func PixelFromColor(c color.Color) Pixel {
	r, g, b, _ := c.RGBA()
	return Pixel{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// NRGBA returns the opaque color of the pixel.
func (p Pixel) NRGBA() color.NRGBA {
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: 255}
}

// Scale dims the pixel by f, clamped to [0,1].
func (p Pixel) Scale(f float64) Pixel {
	if f >= 1 {
		return p
	}
	if f <= 0 {
		return Off
	}
	return Pixel{
		R: uint8(float64(p.R) * f),
		G: uint8(float64(p.G) * f),
		B: uint8(float64(p.B) * f),
	}
}

func (p Pixel) String() string {
	return fmt.Sprintf("%02x%02x%02x", p.R, p.G, p.B)
}

// Strip is the ordered pixel sequence of one LED string. Index 0 is the first LED on the
// wire. Its length is fixed by NewStrip.
type Strip struct {
	px []Pixel
}

// NewStrip allocates a dark strip of n LEDs.
func NewStrip(n int) Strip {
	if n < 0 {
		n = 0
	}
	return Strip{px: make([]Pixel, n)}
}

// StripOf builds a strip holding a copy of px.
func StripOf(px ...Pixel) Strip {
	s := NewStrip(len(px))
	copy(s.px, px)
	return s
}

func (s Strip) Len() int { return len(s.px) }

func (s Strip) At(i int) Pixel { return s.px[i] }

// Set assigns pixel i. Out of range indices are rejected rather than reaching the encoder.
func (s Strip) Set(i int, p Pixel) error {
	if i < 0 || i >= len(s.px) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexRange, i, len(s.px))
	}
	s.px[i] = p
	return nil
}

// SetColor is Set for any color.Color.
func (s Strip) SetColor(i int, c color.Color) error {
	return s.Set(i, PixelFromColor(c))
}

func (s Strip) Fill(p Pixel) {
	for i := range s.px {
		s.px[i] = p
	}
}

func (s Strip) Clear() { s.Fill(Off) }

// CopyFrom copies src into s. Both strips must have the same length.
func (s Strip) CopyFrom(src Strip) error {
	if src.Len() != s.Len() {
		return fmt.Errorf("ws2812: copy of %d pixels into strip of %d", src.Len(), s.Len())
	}
	copy(s.px, src.px)
	return nil
}

// Equal reports whether both strips hold the same pixels.
func (s Strip) Equal(o Strip) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.px {
		if s.px[i] != o.px[i] {
			return false
		}
	}
	return true
}
