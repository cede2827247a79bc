// Package utils holds the low-level helpers shared across the read path:
// semaphore-bounded concurrent fan-out with panic recovery, and the vector
// math behind similarity scoring.
package utils

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultSemaphoreLimit returns the default bound for concurrent collaborator
// calls when no explicit limit is configured.
func DefaultSemaphoreLimit() int64 {
	n := runtime.GOMAXPROCS(0) * 4
	if n < 4 {
		n = 4
	}
	return int64(n)
}

// Limiter bounds concurrent work across all in-flight requests. A single
// Limiter is shared process-wide so one query's fan-out cannot starve others.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter allowing at most max concurrent executions.
// Non-positive values fall back to DefaultSemaphoreLimit.
func NewLimiter(max int64) *Limiter {
	if max <= 0 {
		max = DefaultSemaphoreLimit()
	}
	return &Limiter{sem: semaphore.NewWeighted(max)}
}

// GatherWithResults runs functions concurrently, each gated by the shared
// semaphore, and returns one result and one error per function, in order.
// A panic in a goroutine is recovered into a PanicError; a cancelled context
// is reported as the context's error for functions still waiting on the
// semaphore.
func GatherWithResults[T any](ctx context.Context, l *Limiter, functions ...func() (T, error)) ([]T, []error) {
	if len(functions) == 0 {
		return nil, nil
	}

	results := make([]T, len(functions))
	errs := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() (T, error)) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				errs[index] = err
			})

			if err := l.sem.Acquire(ctx, 1); err != nil {
				errs[index] = err
				return
			}
			defer l.sem.Release(1)

			results[index], errs[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results, errs
}

// PanicError carries a recovered panic value and the stack captured at the
// recovery point, so a crashed goroutine surfaces as an ordinary error.
type PanicError struct {
	Value      interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverWithCallback converts a panic in the deferring goroutine into a
// PanicError handed to callback. A nil callback still swallows the panic.
func RecoverWithCallback(callback func(error)) {
	if r := recover(); r != nil {
		err := &PanicError{Value: r, StackTrace: string(debug.Stack())}
		slog.Error("recovered from panic", "panic", r, "stack", err.StackTrace)
		if callback != nil {
			callback(err)
		}
	}
}
