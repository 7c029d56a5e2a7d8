package ws2812

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripSetRejectsOutOfRange(t *testing.T) {
	s := NewStrip(3)
	assert.NoError(t, s.Set(2, Pixel{R: 1}))
	assert.ErrorIs(t, s.Set(3, Pixel{R: 1}), ErrIndexRange)
	assert.ErrorIs(t, s.Set(-1, Pixel{R: 1}), ErrIndexRange)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, Pixel{R: 1}, s.At(2))
}

func TestStripFillClear(t *testing.T) {
	s := NewStrip(4)
	s.Fill(Pixel{G: 7})
	for i := 0; i < s.Len(); i++ {
		assert.Equal(t, Pixel{G: 7}, s.At(i))
	}
	s.Clear()
	assert.True(t, s.Equal(NewStrip(4)))
}

func TestStripCopyFrom(t *testing.T) {
	s := NewStrip(2)
	assert.NoError(t, s.CopyFrom(StripOf(Pixel{R: 1}, Pixel{B: 2})))
	assert.Equal(t, Pixel{B: 2}, s.At(1))
	assert.Error(t, s.CopyFrom(NewStrip(3)))
}

func TestPixelFromColor(t *testing.T) {
	assert.Equal(t, Pixel{R: 0x11, G: 0x22, B: 0x33}, PixelFromColor(color.NRGBA{0x11, 0x22, 0x33, 0xFF}))
	assert.Equal(t, Pixel{R: 0x80}, PixelFromColor(color.RGBA{0x80, 0, 0, 0xFF}))
	assert.Equal(t, color.NRGBA{1, 2, 3, 255}, Pixel{1, 2, 3}.NRGBA())
	assert.Equal(t, "0102ff", Pixel{1, 2, 255}.String())
}

func TestPixelScale(t *testing.T) {
	p := Pixel{R: 200, G: 100, B: 10}
	assert.Equal(t, p, p.Scale(1.5))
	assert.Equal(t, Off, p.Scale(-1))
	assert.Equal(t, Pixel{R: 100, G: 50, B: 5}, p.Scale(0.5))
}
