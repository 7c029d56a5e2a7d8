package ws2812

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// DefaultClock is the SPI clock the Bit0/Bit1 symbols were sized for.
const DefaultClock = 3 * physic.MegaHertz

// Tolerances of the WS2812 input stage, see
// https://cpldcpu.wordpress.com/2014/01/14/light_ws2812-library-v2-0-part-i-understanding-the-ws2812/
const (
	t0HighMin = 200 * time.Nanosecond
	t0HighMax = 500 * time.Nanosecond
	t1HighMin = 625 * time.Nanosecond
	lowMax    = 5 * time.Microsecond
	resetMin  = 50 * time.Microsecond
)

var ErrTiming = errors.New("ws2812: clock out of protocol tolerance")

// PulseTiming is what the symbols turn into on the wire at a given clock.
type PulseTiming struct {
	Clock  physic.Frequency
	T0High time.Duration
	T0Low  time.Duration
	T1High time.Duration
	T1Low  time.Duration
	Reset  time.Duration
}

// Timing computes the pulse widths produced by Bit0, Bit1 and the reset gap at clock f.
func Timing(f physic.Frequency) PulseTiming {
	if f <= 0 {
		return PulseTiming{Clock: f}
	}
	// Period() truncates to whole nanoseconds; scale from the bit count instead.
	bits := func(n int64) time.Duration { return bitTime(n, f) }
	return PulseTiming{
		Clock:  f,
		T0High: bits(1),
		T0Low:  bits(7),
		T1High: bits(4),
		T1Low:  bits(4),
		Reset:  bits(ResetBytes * 8),
	}
}

// Check returns ErrTiming when the strip would misread the stream at this clock.
func (t PulseTiming) Check() error {
	switch {
	case t.Clock <= 0:
		return fmt.Errorf("%w: clock %s", ErrTiming, t.Clock)
	case t.T0High < t0HighMin || t.T0High > t0HighMax:
		return fmt.Errorf("%w: T0H %s not in [%s,%s]", ErrTiming, t.T0High, t0HighMin, t0HighMax)
	case t.T1High < t1HighMin:
		return fmt.Errorf("%w: T1H %s below %s", ErrTiming, t.T1High, t1HighMin)
	case t.T0Low > lowMax:
		return fmt.Errorf("%w: low time %s above %s", ErrTiming, t.T0Low, lowMax)
	case t.Reset < resetMin:
		return fmt.Errorf("%w: reset %s below %s", ErrTiming, t.Reset, resetMin)
	}
	return nil
}

// FrameDuration is how long one frame of ledCount LEDs occupies the line at clock f.
func FrameDuration(ledCount int, f physic.Frequency) time.Duration {
	if f <= 0 {
		return 0
	}
	return bitTime(int64(FrameLength(ledCount))*8, f)
}

// bitTime is the duration of n SPI bits at f. physic.Frequency counts µHz, so the integer
// product overflows for long frames.
func bitTime(n int64, f physic.Frequency) time.Duration {
	return time.Duration(float64(n) * float64(time.Second) * float64(physic.Hertz) / float64(f))
}
