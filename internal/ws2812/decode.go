package ws2812

import (
	"errors"
	"fmt"
)

var (
	ErrFrameLength = errors.New("ws2812: frame length is not n*24+reset")
	ErrSymbol      = errors.New("ws2812: byte is not a bit symbol")
	ErrResetGap    = errors.New("ws2812: reset gap is not idle")
)

// Decode recovers the strip from an encoded frame.
func Decode(frame []byte) (Strip, error) {
	n := len(frame) - ResetBytes
	if n < 0 || n%BitsPerPixel != 0 {
		return Strip{}, fmt.Errorf("%w: %d bytes", ErrFrameLength, len(frame))
	}
	for i, b := range frame[n:] {
		if b != Idle {
			return Strip{}, fmt.Errorf("%w: byte %d is %#02x", ErrResetGap, n+i, b)
		}
	}
	s := NewStrip(n / BitsPerPixel)
	for i := range s.px {
		o := frame[i*BitsPerPixel:]
		var err error
		var p Pixel
		if p.G, err = collapse(o[0:8]); err != nil {
			return Strip{}, fmt.Errorf("led %d green: %w", i, err)
		}
		if p.R, err = collapse(o[8:16]); err != nil {
			return Strip{}, fmt.Errorf("led %d red: %w", i, err)
		}
		if p.B, err = collapse(o[16:24]); err != nil {
			return Strip{}, fmt.Errorf("led %d blue: %w", i, err)
		}
		s.px[i] = p
	}
	return s, nil
}

func collapse(src []byte) (byte, error) {
	var v byte
	for i, b := range src {
		switch b {
		case Bit1:
			v |= 0x80 >> i
		case Bit0:
		default:
			return 0, fmt.Errorf("%w: %#08b", ErrSymbol, b)
		}
	}
	return v, nil
}
