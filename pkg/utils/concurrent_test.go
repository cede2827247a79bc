package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGatherWithResultsBoundsConcurrency(t *testing.T) {
	limiter := NewLimiter(2)

	var running, peak int64
	work := func() (int, error) {
		n := atomic.AddInt64(&running, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return 1, nil
	}

	_, errs := GatherWithResults(context.Background(), limiter, work, work, work, work)
	for i, err := range errs {
		if err != nil {
			t.Errorf("errs[%d] = %v, want nil", i, err)
		}
	}
	if p := atomic.LoadInt64(&peak); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestGatherWithResultsPreservesOrder(t *testing.T) {
	limiter := NewLimiter(4)
	sentinel := errors.New("task two failed")

	results, errs := GatherWithResults(context.Background(), limiter,
		func() (int, error) { return 1, nil },
		func() (int, error) { return 0, sentinel },
		func() (int, error) { return 3, nil },
	)

	if results[0] != 1 || results[2] != 3 {
		t.Errorf("results = %v", results)
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
	if !errors.Is(errs[1], sentinel) {
		t.Errorf("errs[1] = %v, want %v", errs[1], sentinel)
	}
}

func TestGatherWithResultsRecoversPanic(t *testing.T) {
	limiter := NewLimiter(1)

	_, errs := GatherWithResults(context.Background(), limiter, func() (int, error) {
		panic("boom")
	})

	var panicErr *PanicError
	if !errors.As(errs[0], &panicErr) {
		t.Fatalf("errs[0] = %v, want PanicError", errs[0])
	}
}

func TestGatherWithResultsCancelledContext(t *testing.T) {
	limiter := NewLimiter(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := GatherWithResults(ctx, limiter, func() (int, error) { return 1, nil })
	if !errors.Is(errs[0], context.Canceled) {
		t.Errorf("errs[0] = %v, want context.Canceled", errs[0])
	}
}

func TestNewLimiterNonPositiveFallsBackToDefault(t *testing.T) {
	limiter := NewLimiter(0)

	results, errs := GatherWithResults(context.Background(), limiter,
		func() (string, error) { return "ok", nil },
	)
	if errs[0] != nil || results[0] != "ok" {
		t.Errorf("results = %v, errs = %v", results, errs)
	}
}
