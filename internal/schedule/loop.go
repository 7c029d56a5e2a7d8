// Package schedule runs the periodic frame task: fetch the next colors, transmit them,
// re-arm for one period after the previous scheduled time.
package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/spistrip/internal/ws2812"
)

const DefaultPeriod = time.Second / 30

var (
	ErrPeriod = errors.New("schedule: period must be positive")
	ErrLEDs   = errors.New("schedule: led count must be positive")
	ErrConfig = errors.New("schedule: source and transmitter are required")
)

// Transmitter sends one strip and returns when it is on the wire.
type Transmitter interface {
	Transmit(strip ws2812.Strip) error
}

// Source writes the colors of the next frame into strip.
type Source interface {
	Next(strip ws2812.Strip)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(strip ws2812.Strip)

func (f SourceFunc) Next(strip ws2812.Strip) { f(strip) }

type Config struct {
	LEDs   int
	Period time.Duration
	Source Source
	Out    Transmitter
	Clock  Clock           // System when nil
	Log    *zerolog.Logger // global logger when nil
	// Limit stops the loop after this many invocations. 0 runs until the context ends.
	Limit uint64
}

type Stats struct {
	Ticks   uint64
	Failed  uint64
	Skipped uint64
}

// Loop is a single periodic task. Invocations never overlap: each one finishes its
// transmit before the next is scheduled.
type Loop struct {
	cfg   Config
	strip ws2812.Strip
	log   zerolog.Logger

	ticks   atomic.Uint64
	failed  atomic.Uint64
	skipped atomic.Uint64
}

func New(cfg Config) (*Loop, error) {
	if cfg.Period <= 0 {
		return nil, ErrPeriod
	}
	if cfg.LEDs <= 0 {
		return nil, ErrLEDs
	}
	if cfg.Source == nil || cfg.Out == nil {
		return nil, ErrConfig
	}
	if cfg.Clock == nil {
		cfg.Clock = System
	}
	l := &Loop{cfg: cfg, strip: ws2812.NewStrip(cfg.LEDs)}
	if cfg.Log != nil {
		l.log = *cfg.Log
	} else {
		l.log = log.Logger.With().Str("component", "schedule").Logger()
	}
	return l, nil
}

// Run executes the task until ctx ends or Limit is reached. The context is only looked at
// between invocations; a transmit in progress always completes.
func (l *Loop) Run(ctx context.Context) error {
	clk := l.cfg.Clock
	period := l.cfg.Period
	next := clk.Now()
	l.log.Info().Dur("period", period).Int("leds", l.strip.Len()).Msg("loop starting")
	for {
		if err := clk.SleepUntil(ctx, next); err != nil {
			l.log.Info().Uint64("ticks", l.ticks.Load()).Msg("loop stopped")
			return err
		}
		l.invoke(next)
		if n := l.ticks.Add(1); l.cfg.Limit > 0 && n >= l.cfg.Limit {
			return nil
		}

		next = next.Add(period)
		if behind := clk.Now().Sub(next); behind >= period {
			missed := behind / period
			next = next.Add(missed * period)
			l.skipped.Add(uint64(missed))
			l.log.Warn().Int64("missed", int64(missed)).Dur("behind", behind).Msg("overrun, skipping periods")
		}
	}
}

func (l *Loop) invoke(scheduled time.Time) {
	l.cfg.Source.Next(l.strip)
	if err := l.cfg.Out.Transmit(l.strip); err != nil {
		l.failed.Add(1)
		l.log.Error().Err(err).Time("scheduled", scheduled).Msg("transmit failed, frame skipped")
	}
}

func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:   l.ticks.Load(),
		Failed:  l.failed.Load(),
		Skipped: l.skipped.Load(),
	}
}
