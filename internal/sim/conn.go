// Package sim is a stand-in SPI connection for running without a strip attached. It
// decodes every frame it is sent, so encoding mistakes show up as errors.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/spistrip/internal/ws2812"
)

// Conn implements dma.Conn.
type Conn struct {
	mu     sync.Mutex
	clock  physic.Frequency
	last   ws2812.Strip
	frames uint64
	log    zerolog.Logger
}

// New returns a connection that takes as long as a real transfer at clock f. f of 0 makes
// transfers instant.
func New(f physic.Frequency) *Conn {
	return &Conn{clock: f, log: log.Logger.With().Str("component", "sim").Logger()}
}

func (c *Conn) WithLogger(l zerolog.Logger) *Conn {
	c.log = l
	return c
}

func (c *Conn) Tx(w, r []byte) error {
	if len(r) != 0 {
		return fmt.Errorf("sim: read not supported")
	}
	s, err := ws2812.Decode(w)
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if c.clock > 0 {
		time.Sleep(ws2812.FrameDuration(s.Len(), c.clock))
	}

	c.mu.Lock()
	c.last = s
	c.frames++
	n := c.frames
	c.mu.Unlock()

	if e := c.log.Debug(); e.Enabled() {
		first := ws2812.Off
		if s.Len() > 0 {
			first = s.At(0)
		}
		e.Uint64("frame", n).Int("leds", s.Len()).Stringer("first", first).Msg("frame")
	}
	return nil
}

// Last is the most recently received strip.
func (c *Conn) Last() ws2812.Strip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Conn) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Conn) String() string { return "sim" }
