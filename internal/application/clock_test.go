package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInstantClock(t *testing.T) {
	pinned := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := (InstantClock{T: pinned}).Now(); !got.Equal(pinned) {
		t.Errorf("pinned Now = %v", got)
	}
	if got := (InstantClock{}).Now(); got.IsZero() {
		t.Error("zero InstantClock should read the wall clock")
	}

	start := time.Now()
	if err := (InstantClock{}).Sleep(context.Background(), time.Hour); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > time.Second {
		t.Error("InstantClock slept")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (InstantClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v", err)
	}
}

func TestSystemClockSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := (SystemClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
