package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/spistrip/internal/config"
	"github.com/coreman2200/spistrip/internal/engine"
	"github.com/coreman2200/spistrip/internal/ws2812"
)

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func TestClosersKeepsFirstError(t *testing.T) {
	var order []int
	first := errors.New("first")
	cs := closers{
		closeFunc(func() error { order = append(order, 1); return nil }),
		closeFunc(func() error { order = append(order, 2); return first }),
		closeFunc(func() error { order = append(order, 3); return errors.New("second") }),
	}
	assert.ErrorIs(t, cs.Close(), first)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSimOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = config.DriverSim
	cfg.LEDs = 4

	out, closer, err := openOutput(cfg, 0)
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer func(c io.Closer) { assert.NoError(t, c.Close()) }(closer)

	e, ok := out.(*engine.Engine)
	require.True(t, ok)
	assert.Equal(t, 4, e.LEDs())

	require.NoError(t, out.Clear())
	s := ws2812.NewStrip(4)
	s.Fill(ws2812.Pixel{R: 1, G: 2, B: 3})
	require.NoError(t, out.Transmit(s))
	assert.Equal(t, uint64(2), e.Stats().Frames)
}

func TestSimOutputBadCount(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = config.DriverSim
	cfg.LEDs = 0

	out, closer, err := openOutput(cfg, 0)
	assert.ErrorIs(t, err, engine.ErrLEDCount)
	assert.Nil(t, out)
	assert.Nil(t, closer)
}
