package dma

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/spistrip/internal/frame"
)

// launched returns a hardware-owned frame holding payload.
func launched(p *frame.Pair, payload []byte) *frame.Frame {
	f := p.Take()
	copy(f.Bytes(), payload)
	p.Launch(f)
	return f
}

func TestChannelRecordsFrames(t *testing.T) {
	buf := bytes.Buffer{}
	ch, err := Open(spitest.NewRecordRaw(&buf), 3*physic.MegaHertz, 4)
	require.NoError(t, err)
	defer ch.Close()

	p := frame.NewPair(4)
	for _, payload := range [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}} {
		f := launched(p, payload)
		tr, err := ch.Start(f)
		require.NoError(t, err)
		assert.True(t, ch.Busy())
		got, err := tr.Wait()
		require.NoError(t, err)
		assert.Same(t, f, got)
		assert.False(t, ch.Busy())
		p.Land(got)
	}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf.Bytes())
}

// gateConn blocks every Tx until released.
type gateConn struct {
	entered chan struct{}
	release chan error
	n       int
}

func newGateConn() *gateConn {
	return &gateConn{entered: make(chan struct{}, 1), release: make(chan error)}
}

func (g *gateConn) Tx(w, r []byte) error {
	g.n++
	g.entered <- struct{}{}
	return <-g.release
}

func TestStartWhileBusy(t *testing.T) {
	g := newGateConn()
	ch := New(g)
	p := frame.NewPair(2)
	f := launched(p, []byte{1, 1})

	tr, err := ch.Start(f)
	require.NoError(t, err)
	<-g.entered

	_, err = ch.Start(f)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, ch.Close(), ErrBusy)

	g.release <- nil
	got, err := tr.Wait()
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = tr.Wait()
	assert.ErrorIs(t, err, ErrIdle)
	assert.NoError(t, ch.Close())
	assert.Equal(t, 1, g.n)
}

func TestTransferErrorReturnsFrame(t *testing.T) {
	g := newGateConn()
	ch := New(g)
	defer ch.Close()
	p := frame.NewPair(2)
	f := launched(p, nil)

	tr, err := ch.Start(f)
	require.NoError(t, err)
	<-g.entered
	boom := errors.New("bus fault")
	g.release <- boom
	got, err := tr.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Same(t, f, got)
	assert.False(t, ch.Busy())
}

func TestStartRequiresHardwareOwner(t *testing.T) {
	ch := New(newGateConn())
	defer ch.Close()
	p := frame.NewPair(2)
	f := p.Take()
	_, err := ch.Start(f)
	assert.ErrorIs(t, err, frame.ErrOwnership)
	assert.False(t, ch.Busy())
}

func TestStartAfterClose(t *testing.T) {
	ch := New(newGateConn())
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	p := frame.NewPair(2)
	_, err := ch.Start(launched(p, nil))
	assert.ErrorIs(t, err, ErrClosed)
}

// limitedPort hands out connections with a small MaxTxSize, like spidev's bufsiz.
type limitedPort struct {
	spi.Port
	max int
}

type limitedConn struct {
	spi.Conn
	max int
}

func (l *limitedConn) MaxTxSize() int { return l.max }

func (l *limitedPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	c, err := l.Port.Connect(f, mode, bits)
	if err != nil {
		return nil, err
	}
	return &limitedConn{Conn: c, max: l.max}, nil
}

func TestOpenRejectsOversizedFrame(t *testing.T) {
	buf := bytes.Buffer{}
	port := &limitedPort{Port: spitest.NewRecordRaw(&buf), max: 16}
	_, err := Open(port, 3*physic.MegaHertz, 17)
	assert.ErrorIs(t, err, ErrTooLarge)
}
