package application

import (
	"context"
	"time"
)

// Clock interface supaya gampang ditest; Sleep is where simulated inference
// latency is spent.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InstantClock never waits. A non-zero T pins Now for tests; the zero value
// reads the wall clock (the --no-latency mode).
type InstantClock struct {
	T time.Time
}

func (c InstantClock) Now() time.Time {
	if c.T.IsZero() {
		return time.Now()
	}
	return c.T
}

func (InstantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
