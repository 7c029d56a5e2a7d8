package engine

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/spistrip/internal/ws2812"
)

// NRZ sends strips through periph's nrzled driver instead of the double-buffered engine.
// It is useful to tell encoder problems from wiring problems on a new installation.
type NRZ struct {
	dev  *nrzled.Dev
	leds int
	raw  []byte
}

// nrzFreq is the only SPI clock nrzled accepts: 3 SPI bits per NRZ bit gives 800kbps.
const nrzFreq = 2500 * physic.KiloHertz

// NewNRZ opens an nrzled device with ledCount RGB pixels on port.
func NewNRZ(port spi.Port, ledCount int) (*NRZ, error) {
	if ledCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLEDCount, ledCount)
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: ledCount,
		Channels:  3,
		Freq:      nrzFreq,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &NRZ{dev: d, leds: ledCount, raw: make([]byte, ledCount*3)}, nil
}

func (n *NRZ) Transmit(strip ws2812.Strip) error {
	if strip.Len() != n.leds {
		return fmt.Errorf("%w: %d != %d", ErrStripLength, strip.Len(), n.leds)
	}
	for i := 0; i < n.leds; i++ {
		p := strip.At(i)
		n.raw[i*3+0] = p.R
		n.raw[i*3+1] = p.G
		n.raw[i*3+2] = p.B
	}
	if _, err := n.dev.Write(n.raw); err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return nil
}

// Clear turns the strip off.
func (n *NRZ) Clear() error {
	return n.dev.Halt()
}

func (n *NRZ) String() string { return n.dev.String() }
