package schedule

import (
	"context"
	"time"
)

// Clock tells time and sleeps until a deadline.
type Clock interface {
	Now() time.Time
	// SleepUntil returns at t, at once if t has passed, or with ctx.Err() when ctx ends first.
	SleepUntil(ctx context.Context, t time.Time) error
}

// System is the wall clock.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) SleepUntil(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
