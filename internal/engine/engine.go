// Package engine drives one WS2812 strip: every Transmit encodes the colors into the free
// frame, hands it to the transfer channel and blocks until the frame is back.
package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/spistrip/internal/dma"
	"github.com/coreman2200/spistrip/internal/frame"
	"github.com/coreman2200/spistrip/internal/ws2812"
)

var (
	ErrBusy        = errors.New("engine: transmit while transmitting")
	ErrStripLength = errors.New("engine: strip length does not match LED count")
	ErrTransfer    = errors.New("engine: transfer failed")
	ErrLEDCount    = errors.New("engine: LED count must be positive")
)

// Starter is the transfer primitive, satisfied by *dma.Channel.
type Starter interface {
	Start(f *frame.Frame) (dma.Transfer, error)
}

// State of the engine.
type State int32

const (
	Idle State = iota
	Transmitting
)

func (s State) String() string {
	if s == Transmitting {
		return "transmitting"
	}
	return "idle"
}

// Stats counts what the engine has sent.
type Stats struct {
	Frames   uint64
	Failures uint64
	LastTx   time.Duration
}

type Engine struct {
	leds   int
	ch     Starter
	frames *frame.Pair
	blank  ws2812.Strip
	state  atomic.Int32
	log    zerolog.Logger

	frameCount atomic.Uint64
	failCount  atomic.Uint64
	lastTx     atomic.Int64
}

// New allocates both frames for ledCount LEDs. Nothing is allocated per Transmit.
func New(ledCount int, ch Starter) (*Engine, error) {
	if ledCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLEDCount, ledCount)
	}
	return &Engine{
		leds:   ledCount,
		ch:     ch,
		frames: frame.NewPair(ws2812.FrameLength(ledCount)),
		blank:  ws2812.NewStrip(ledCount),
		log:    log.Logger.With().Str("component", "engine").Logger(),
	}, nil
}

// WithLogger replaces the engine's logger.
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	e.log = l
	return e
}

func (e *Engine) LEDs() int { return e.leds }

func (e *Engine) State() State { return State(e.state.Load()) }

// Frames exposes the double buffer for inspection.
func (e *Engine) Frames() *frame.Pair { return e.frames }

func (e *Engine) Stats() Stats {
	return Stats{
		Frames:   e.frameCount.Load(),
		Failures: e.failCount.Load(),
		LastTx:   time.Duration(e.lastTx.Load()),
	}
}

// Transmit sends one frame and returns once the hardware has finished with it. A failed
// transfer is reported, not retried.
func (e *Engine) Transmit(strip ws2812.Strip) error {
	if strip.Len() != e.leds {
		return fmt.Errorf("%w: %d != %d", ErrStripLength, strip.Len(), e.leds)
	}
	if !e.state.CompareAndSwap(int32(Idle), int32(Transmitting)) {
		return ErrBusy
	}
	defer e.state.Store(int32(Idle))

	f := e.frames.Take()
	ws2812.Encode(strip, f.Bytes())
	e.frames.Launch(f)

	start := time.Now()
	t, err := e.ch.Start(f)
	if err != nil {
		e.failCount.Add(1)
		return fmt.Errorf("%w: start: %w", ErrTransfer, err)
	}
	done, err := t.Wait()
	e.lastTx.Store(int64(time.Since(start)))
	e.frames.Land(done)
	if err != nil {
		e.failCount.Add(1)
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	n := e.frameCount.Add(1)
	e.log.Trace().Uint64("frame", n).Int("buffer", f.ID()).Dur("tx", time.Since(start)).Msg("frame sent")
	return nil
}

// Clear turns every LED off.
func (e *Engine) Clear() error {
	return e.Transmit(e.blank)
}
