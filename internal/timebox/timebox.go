// Package timebox runs blocking store operations against a time budget.
//
// An operation that exceeds its budget is abandoned from the caller's
// point of view. It keeps running in the background and its result is
// discarded.
package timebox

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Do when both the first attempt and the retry
// exceed their budgets.
var ErrTimeout = errors.New("timebox: operation timed out after retry")

// Outcome is the tagged result of a single time-boxed attempt.
type Outcome[T any] struct {
	Value    T
	Err      error
	TimedOut bool
}

// Completed reports whether the operation finished inside its budget.
func (o Outcome[T]) Completed() bool { return !o.TimedOut }

// Policy holds the budgets for the first attempt and the single retry.
type Policy struct {
	First time.Duration
	Retry time.Duration
}

// DefaultPolicy is 12s then 15s.
func DefaultPolicy() Policy {
	return Policy{First: 12 * time.Second, Retry: 15 * time.Second}
}

// Run races op against a timer. The result channel is buffered so an
// abandoned op can finish without blocking.
func Run[T any](ctx context.Context, budget time.Duration, op func(context.Context) (T, error)) Outcome[T] {
	done := make(chan Outcome[T], 1)
	go func() {
		v, err := op(ctx)
		done <- Outcome[T]{Value: v, Err: err}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case out := <-done:
		return out
	case <-timer.C:
		return Outcome[T]{TimedOut: true}
	case <-ctx.Done():
		return Outcome[T]{Err: ctx.Err()}
	}
}

// Do runs op with the first budget and, only if that attempt timed out,
// exactly once more with the retry budget. Errors other than a timeout are
// returned immediately.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	out := Run(ctx, p.First, op)
	if out.Completed() {
		return out.Value, out.Err
	}

	out = Run(ctx, p.Retry, op)
	if out.Completed() {
		return out.Value, out.Err
	}
	var zero T
	return zero, ErrTimeout
}
