package frame

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// panicErr runs f and returns the error it panicked with.
func panicErr(t *testing.T, f func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		e, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		err = e
	}()
	f()
	return nil
}

func TestNewPairInitialRoles(t *testing.T) {
	p := NewPair(44)
	assert.Equal(t, 0, p.Free())
	assert.Equal(t, 1, p.InFlight())
	assert.Equal(t, Software, p.frames[0].Owner())
	assert.Equal(t, Hardware, p.frames[1].Owner())
	assert.Equal(t, 44, p.frames[0].Len())
}

func TestPairAlternates(t *testing.T) {
	p := NewPair(8)
	var sent []int
	for i := 0; i < 6; i++ {
		f := p.Take()
		assert.Equal(t, -1, p.Free())
		f.Bytes()[0] = byte(i)
		p.Launch(f)
		assert.Equal(t, f.ID(), p.InFlight())
		assert.NotEqual(t, f.ID(), p.Free())
		p.Land(f)
		sent = append(sent, f.ID())
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, sent)
	for k := 1; k < len(sent); k++ {
		assert.NotEqual(t, sent[k-1], sent[k], "frame reused on consecutive transfer %d", k)
	}
}

func TestTakeTwicePanics(t *testing.T) {
	p := NewPair(8)
	p.Take()
	err := panicErr(t, func() { p.Take() })
	assert.True(t, errors.Is(err, ErrNoFreeFrame), "%v", err)
}

func TestBytesRequiresCheckout(t *testing.T) {
	p := NewPair(8)
	f := p.Take()
	f.Bytes()
	p.Launch(f)
	err := panicErr(t, func() { f.Bytes() })
	assert.ErrorIs(t, err, ErrOwnership)
	assert.NotPanics(t, func() { f.Wire() })

	// the frame handed back by Launch is free but not checked out
	back := p.frames[1-f.ID()]
	assert.Equal(t, Software, back.Owner())
	assert.ErrorIs(t, panicErr(t, func() { back.Bytes() }), ErrOwnership)
	assert.ErrorIs(t, panicErr(t, func() { back.Wire() }), ErrOwnership)
}

func TestLaunchForeignFramePanics(t *testing.T) {
	p := NewPair(8)
	q := NewPair(8)
	p.Take()
	other := q.Take()
	assert.ErrorIs(t, panicErr(t, func() { p.Launch(other) }), ErrForeignFrame)
	assert.ErrorIs(t, panicErr(t, func() { p.Launch(nil) }), ErrForeignFrame)
}

func TestLandWrongFramePanics(t *testing.T) {
	p := NewPair(8)
	f := p.Take()
	p.Launch(f)
	stale := p.frames[1-f.ID()]
	assert.ErrorIs(t, panicErr(t, func() { p.Land(stale) }), ErrForeignFrame)
	assert.NotPanics(t, func() { p.Land(f) })
}

func TestNeverZeroOrTwoPerSide(t *testing.T) {
	p := NewPair(8)
	for i := 0; i < 4; i++ {
		f := p.Take()
		p.Launch(f)
		p.Land(f)
		assert.Len(t, p.free, 1)
		assert.Len(t, p.flight, 1)
		assert.NotEqual(t, p.Free(), p.InFlight())
	}
}
