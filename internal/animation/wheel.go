// Package animation provides color sources for the frame loop.
package animation

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/spistrip/internal/ws2812"
)

// Wheel is a rainbow running along the strip: LED i shows hue (step+i)*Spread, and every
// frame advances step by one.
type Wheel struct {
	// Spread is the hue distance in degrees between neighboring LEDs.
	Spread float64
	// Speed is the hue change in degrees per frame.
	Speed float64
	// Brightness scales every pixel, 0..1.
	Brightness float64

	step uint64
}

// NewWheel returns the classic 256-step wheel: one full turn over 256 LEDs or frames.
func NewWheel(brightness float64) *Wheel {
	return &Wheel{Spread: 360.0 / 256, Speed: 360.0 / 256, Brightness: brightness}
}

// Step is the number of frames produced so far.
func (w *Wheel) Step() uint64 { return w.step }

// Next implements schedule.Source.
func (w *Wheel) Next(strip ws2812.Strip) {
	base := float64(w.step) * w.Speed
	for i := 0; i < strip.Len(); i++ {
		// Set cannot fail for i in range
		_ = strip.Set(i, w.At(base+float64(i)*w.Spread))
	}
	w.step++
}

// At is the pixel for a hue in degrees.
func (w *Wheel) At(hue float64) ws2812.Pixel {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, 1, 1).RGB255()
	return ws2812.Pixel{R: r, G: g, B: b}.Scale(w.Brightness)
}
