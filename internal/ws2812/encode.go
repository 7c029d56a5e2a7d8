// Package ws2812 turns pixel data into the byte stream that, shifted out of an SPI
// peripheral at DefaultClock, reproduces the WS2812 pulse timing.
//
// Each protocol bit is sent as one SPI byte. At 3 MHz a byte lasts 2.67µs and every SPI bit
// 333ns, so 0b11110000 gives a 1.33µs high pulse (logical 1) and 0b10000000 a 333ns high
// pulse (logical 0). The frame ends with ResetBytes idle bytes which hold the line low long
// enough for the strip to latch.
package ws2812

import "fmt"

const (
	// Bit1 is the SPI byte for a logical 1: long high, short low.
	Bit1 byte = 0b11110000
	// Bit0 is the SPI byte for a logical 0: short high, long low.
	Bit0 byte = 0b10000000
	// Idle is the level of the line between frames.
	Idle byte = 0x00

	// BitsPerPixel is the number of protocol bits (and SPI bytes) per LED.
	BitsPerPixel = 24
	// ResetBytes is the trailing idle gap: 160 SPI bit periods, ~53µs at 3 MHz.
	ResetBytes = 20
)

// FrameLength is the encoded size of a strip of ledCount LEDs.
func FrameLength(ledCount int) int {
	return ledCount*BitsPerPixel + ResetBytes
}

// Encode writes the bitstream of strip into out. The whole buffer is reset to Idle first so
// nothing from a previous frame survives. Channels go out green, red, blue, MSB first.
//
// len(out) must be FrameLength(strip.Len()); anything else is a programming error and panics.
func Encode(strip Strip, out []byte) {
	if want := FrameLength(strip.Len()); len(out) != want {
		panic(fmt.Sprintf("ws2812: encode of %d LEDs needs %d bytes, got %d", strip.Len(), want, len(out)))
	}
	for i := range out {
		out[i] = Idle
	}
	o := out
	for _, p := range strip.px {
		expand(p.G, o[0:8])
		expand(p.R, o[8:16])
		expand(p.B, o[16:24])
		o = o[BitsPerPixel:]
	}
}

func expand(v byte, dst []byte) {
	for i := 0; i < 8; i++ {
		if v&(0x80>>i) != 0 {
			dst[i] = Bit1
		} else {
			dst[i] = Bit0
		}
	}
}
