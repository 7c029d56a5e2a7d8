package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/spistrip/internal/animation"
	"github.com/coreman2200/spistrip/internal/config"
	"github.com/coreman2200/spistrip/internal/dma"
	"github.com/coreman2200/spistrip/internal/engine"
	"github.com/coreman2200/spistrip/internal/schedule"
	"github.com/coreman2200/spistrip/internal/sim"
	"github.com/coreman2200/spistrip/internal/ws2812"
)

// output is what the loop drives, plus the blanking used at start and exit.
type output interface {
	schedule.Transmitter
	Clear() error
}

func main() {
	def := config.Default()

	// ---- Flags (config.yaml overrides what it sets) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		leds       = flag.Int("leds", def.LEDs, "number of LEDs on the strip")
		spiDev     = flag.String("spi", def.SPI.Dev, "SPI port name, empty for the first one")
		speedHz    = flag.Int("hz", def.SPI.SpeedHz, "SPI clock in Hz")
		period     = flag.Duration("period", def.Period, "frame period")
		driver     = flag.String("driver", def.Driver, "driver: spi | nrzled | sim")
		brightness = flag.Float64("brightness", *def.Brightness, "rainbow brightness 0..1")
		logLevel   = flag.String("log-level", def.LogLevel, "trace | debug | info | warn | error")
		frames     = flag.Uint64("frames", 0, "stop after this many frames, 0 runs until interrupted")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg := config.Config{
		Driver:     *driver,
		LEDs:       *leds,
		Period:     *period,
		Brightness: brightness,
		LogLevel:   *logLevel,
		SPI:        config.SPI{Dev: *spiDev, SpeedHz: *speedHz},
	}
	if c, err := config.Load(*configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		}
	} else {
		cfg.Merge(c)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level; using info")
	} else {
		zerolog.SetGlobalLevel(lvl)
	}

	clock := physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
	if err := ws2812.Timing(clock).Check(); err != nil {
		log.Warn().Err(err).Stringer("clock", clock).Msg("SPI clock does not match the WS2812 symbols; colors will be wrong")
	}

	out, closer, err := openOutput(cfg, clock)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("output init failed")
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}()

	if err := out.Clear(); err != nil {
		log.Error().Err(err).Msg("initial blank failed")
	}

	loop, err := schedule.New(schedule.Config{
		LEDs:   cfg.LEDs,
		Period: cfg.Period,
		Source: animation.NewWheel(*cfg.Brightness),
		Out:    out,
		Limit:  *frames,
	})
	if err != nil {
		log.Error().Err(err).Msg("loop setup failed")
		return
	}

	// ---- Run until signal ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("loop ended")
	}
	st := loop.Stats()
	log.Info().Uint64("ticks", st.Ticks).Uint64("failed", st.Failed).Uint64("skipped", st.Skipped).Msg("shutting down")

	if err := out.Clear(); err != nil {
		log.Error().Err(err).Msg("final blank failed")
	}
}

// openOutput builds the selected driver. A missing SPI port falls back to the simulator.
// On error everything it opened is closed again.
func openOutput(cfg config.Config, clock physic.Frequency) (output, io.Closer, error) {
	if cfg.Driver == config.DriverSim {
		return simOutput(cfg, clock)
	}

	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("host init failed; falling back to SIM")
		return simOutput(cfg, clock)
	}
	port, err := spireg.Open(cfg.SPI.Dev)
	if err != nil {
		log.Warn().Err(err).Str("dev", cfg.SPI.Dev).Msg("no SPI port; falling back to SIM")
		return simOutput(cfg, clock)
	}

	if cfg.Driver == config.DriverNRZLED {
		n, err := engine.NewNRZ(port, cfg.LEDs)
		if err != nil {
			_ = port.Close()
			return nil, nil, err
		}
		log.Info().Str("driver", cfg.Driver).Stringer("dev", n).Int("leds", cfg.LEDs).Msg("output ready")
		return n, port, nil
	}

	ch, err := dma.Open(port, clock, ws2812.FrameLength(cfg.LEDs))
	if err != nil {
		_ = port.Close()
		return nil, nil, fmt.Errorf("spi %s: %w", port, err)
	}
	e, err := engine.New(cfg.LEDs, ch)
	if err != nil {
		_ = closers{ch, port}.Close()
		return nil, nil, err
	}
	log.Info().
		Str("driver", cfg.Driver).
		Stringer("port", port).
		Stringer("clock", clock).
		Int("leds", cfg.LEDs).
		Int("frame_bytes", ws2812.FrameLength(cfg.LEDs)).
		Dur("frame_time", ws2812.FrameDuration(cfg.LEDs, clock)).
		Msg("output ready")
	return e, closers{ch, port}, nil
}

func simOutput(cfg config.Config, clock physic.Frequency) (output, io.Closer, error) {
	ch := dma.New(sim.New(clock))
	e, err := engine.New(cfg.LEDs, ch)
	if err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	log.Info().Str("driver", config.DriverSim).Int("leds", cfg.LEDs).Msg("output ready")
	return e, ch, nil
}

// closers closes in order, keeping the first error.
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
