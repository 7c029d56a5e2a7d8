package frame

import "fmt"

// Pair is the double buffer. At rest one frame waits in the free slot (software) and the
// other sits in the flight slot (hardware, last transfer completed).
//
//	Take    free   -> caller     (software, checked out)
//	Launch  caller -> flight     (hardware); previous flight occupant -> free
//	Land    flight stays put, checked to be the frame the transfer returned
type Pair struct {
	frames [2]*Frame
	free   chan *Frame
	flight chan *Frame
	out    *Frame
}

// NewPair allocates both frames of length bytes.
func NewPair(length int) *Pair {
	p := &Pair{
		free:   make(chan *Frame, 1),
		flight: make(chan *Frame, 1),
	}
	p.frames[0] = newFrame(0, length, Software)
	p.frames[1] = newFrame(1, length, Hardware)
	p.free <- p.frames[0]
	p.flight <- p.frames[1]
	return p
}

// Take checks out the free frame for encoding. An empty free slot means the hand-off is
// broken and panics.
func (p *Pair) Take() *Frame {
	select {
	case f := <-p.free:
		if f.Owner() != Software {
			panic(fmt.Errorf("%w: frame %d in free slot", ErrOwnership, f.id))
		}
		f.checked.Store(true)
		p.out = f
		return f
	default:
		panic(fmt.Errorf("%w: checked out %v", ErrNoFreeFrame, p.out))
	}
}

// Launch moves f, which must be the frame from the last Take, to the hardware side. The
// frame of the previous transfer comes back to the free slot.
func (p *Pair) Launch(f *Frame) {
	if f == nil || f != p.out {
		panic(fmt.Errorf("%w: launch of %v, checked out %v", ErrForeignFrame, f, p.out))
	}
	var prev *Frame
	select {
	case prev = <-p.flight:
	default:
		panic(fmt.Errorf("%w: flight slot empty", ErrNoFreeFrame))
	}
	f.checked.Store(false)
	f.owner.Store(int32(Hardware))
	p.out = nil
	p.flight <- f

	prev.owner.Store(int32(Software))
	select {
	case p.free <- prev:
	default:
		panic(fmt.Errorf("%w: free slot already holds a frame", ErrOwnership))
	}
}

// Land confirms the completed transfer returned the frame in flight.
func (p *Pair) Land(f *Frame) {
	select {
	case cur := <-p.flight:
		p.flight <- cur
		if cur != f {
			panic(fmt.Errorf("%w: transfer returned %v, in flight %v", ErrForeignFrame, f, cur))
		}
	default:
		panic(fmt.Errorf("%w: land of %v with empty flight slot", ErrForeignFrame, f))
	}
}

// Free is the id of the frame in the free slot, -1 when it is checked out.
func (p *Pair) Free() int { return peek(p.free) }

// InFlight is the id of the hardware-side frame.
func (p *Pair) InFlight() int { return peek(p.flight) }

func peek(c chan *Frame) int {
	select {
	case f := <-c:
		c <- f
		return f.id
	default:
		return -1
	}
}
