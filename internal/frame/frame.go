// Package frame holds the two transmit buffers and moves them between the software side
// (encoding) and the hardware side (transfer).
//
// Ownership is a runtime-checked tag on each Frame. Accessing a frame from the wrong side
// panics; so does any hand-off that would leave a side with zero or two frames.
package frame

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Owner is the side currently holding a frame.
type Owner int32

const (
	Software Owner = iota
	Hardware
)

func (o Owner) String() string {
	switch o {
	case Software:
		return "software"
	case Hardware:
		return "hardware"
	}
	return fmt.Sprintf("Owner(%d)", int32(o))
}

var (
	ErrNoFreeFrame  = errors.New("frame: no free frame")
	ErrOwnership    = errors.New("frame: accessed by wrong owner")
	ErrForeignFrame = errors.New("frame: frame not part of this hand-off")
)

// Frame is one fixed-size encoded buffer.
type Frame struct {
	id      int
	owner   atomic.Int32
	checked atomic.Bool // taken from the free slot and not yet launched
	data    []byte
}

func newFrame(id, length int, o Owner) *Frame {
	f := &Frame{id: id, data: make([]byte, length)}
	f.owner.Store(int32(o))
	return f
}

func (f *Frame) ID() int      { return f.id }
func (f *Frame) Len() int     { return len(f.data) }
func (f *Frame) Owner() Owner { return Owner(f.owner.Load()) }

// Bytes is the mutable view for the encoder. Only valid between Pair.Take and Pair.Launch.
func (f *Frame) Bytes() []byte {
	if f.Owner() != Software || !f.checked.Load() {
		panic(fmt.Errorf("%w: frame %d Bytes() while %s owned", ErrOwnership, f.id, f.Owner()))
	}
	return f.data
}

// Wire is the view handed to the transfer. Only valid while hardware owned.
func (f *Frame) Wire() []byte {
	if f.Owner() != Hardware {
		panic(fmt.Errorf("%w: frame %d Wire() while %s owned", ErrOwnership, f.id, f.Owner()))
	}
	return f.data
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame%d(%s)", f.id, f.Owner())
}
