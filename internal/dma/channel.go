// Package dma is the hardware transfer primitive: it starts the transmission of a frame
// and hands the frame back when the peripheral is done with it.
//
// The blocking SPI write runs on one long-lived worker goroutine, which stands in for the
// DMA engine. Start hands the frame and the channel to the worker; Wait blocks until the
// worker signals completion and returns both.
package dma

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/coreman2200/spistrip/internal/frame"
)

var (
	ErrBusy     = errors.New("dma: transfer already in progress")
	ErrIdle     = errors.New("dma: no transfer in progress")
	ErrClosed   = errors.New("dma: channel closed")
	ErrTooLarge = errors.New("dma: frame exceeds peripheral transfer size")
)

// Conn is the half of spi.Conn the channel needs.
type Conn interface {
	Tx(w, r []byte) error
}

type result struct {
	f   *frame.Frame
	err error
}

// Channel owns the serial connection. It is idle or carrying exactly one frame.
type Channel struct {
	conn Conn

	mu     sync.Mutex
	busy   bool
	closed bool
	seq    uint64

	req  chan *frame.Frame
	done chan result
	quit chan struct{}
	wg   sync.WaitGroup
}

// Transfer is the handle of a started transfer.
type Transfer struct {
	ch  *Channel
	seq uint64
}

// Open connects port for WS2812 output: mode 0, 8 bit words, clock f. It fails when the
// connection cannot send frameLen bytes in one transfer, since a split frame would put idle
// gaps into the bitstream.
func Open(port spi.Port, f physic.Frequency, frameLen int) (*Channel, error) {
	c, err := port.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("dma: connect %s: %w", f, err)
	}
	if l, ok := c.(conn.Limits); ok {
		if n := l.MaxTxSize(); n > 0 && n < frameLen {
			return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, frameLen, n)
		}
	}
	return New(c), nil
}

// New starts a channel on an already configured connection.
func New(c Conn) *Channel {
	ch := &Channel{
		conn: c,
		req:  make(chan *frame.Frame),
		done: make(chan result, 1),
		quit: make(chan struct{}),
	}
	ch.wg.Add(1)
	go ch.run()
	return ch
}

func (ch *Channel) run() {
	defer ch.wg.Done()
	for {
		select {
		case f := <-ch.req:
			err := ch.conn.Tx(f.Wire(), nil)
			ch.done <- result{f: f, err: err}
		case <-ch.quit:
			return
		}
	}
}

// Start hands f, which must be hardware owned, to the peripheral.
func (ch *Channel) Start(f *frame.Frame) (Transfer, error) {
	if f.Owner() != frame.Hardware {
		return Transfer{}, fmt.Errorf("dma: start of %v: %w", f, frame.ErrOwnership)
	}
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return Transfer{}, ErrClosed
	}
	if ch.busy {
		ch.mu.Unlock()
		return Transfer{}, ErrBusy
	}
	ch.busy = true
	ch.seq++
	t := Transfer{ch: ch, seq: ch.seq}
	ch.mu.Unlock()

	ch.req <- f
	return t, nil
}

// Wait blocks until the peripheral has shifted out the frame, then returns it along with
// any transfer error. The channel is idle again afterwards. There is no timeout: a stuck
// peripheral blocks here.
func (t Transfer) Wait() (*frame.Frame, error) {
	ch := t.ch
	if ch == nil {
		return nil, ErrIdle
	}
	ch.mu.Lock()
	if !ch.busy || t.seq != ch.seq {
		ch.mu.Unlock()
		return nil, ErrIdle
	}
	ch.mu.Unlock()

	r := <-ch.done

	ch.mu.Lock()
	ch.busy = false
	ch.mu.Unlock()
	if r.err != nil {
		return r.f, fmt.Errorf("dma: tx %d bytes: %w", r.f.Len(), r.err)
	}
	return r.f, nil
}

// Busy reports whether a transfer is outstanding.
func (ch *Channel) Busy() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.busy
}

// Close stops the worker. An outstanding transfer must be waited for first.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	if ch.busy {
		ch.mu.Unlock()
		return ErrBusy
	}
	ch.closed = true
	ch.mu.Unlock()

	close(ch.quit)
	ch.wg.Wait()
	if c, ok := ch.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
