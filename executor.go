package tuplecall

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultExecutorCapacity bounds concurrent in-flight waits when no
// executor is injected.
const DefaultExecutorCapacity = 64

// Executor runs the blocking wait of one dispatcher call. A bounded
// implementation keeps a stalled remote from consuming callers without
// limit; the capacity and rejection policy are a deployment concern, which
// is why the dispatcher accepts an injected executor instead of spawning
// its own workers.
type Executor interface {
	Do(ctx context.Context, fn func() error) error
}

// BoundedExecutor admits at most capacity concurrent calls, parking
// additional callers until a slot frees or their context is done. The
// function runs on the caller's goroutine; the semaphore only gates entry.
type BoundedExecutor struct {
	sem *semaphore.Weighted
}

// NewBoundedExecutor creates an executor admitting at most capacity
// concurrent calls. Non-positive capacities fall back to the default.
func NewBoundedExecutor(capacity int) *BoundedExecutor {
	if capacity <= 0 {
		capacity = DefaultExecutorCapacity
	}
	return &BoundedExecutor{sem: semaphore.NewWeighted(int64(capacity))}
}

// Do implements Executor
func (e *BoundedExecutor) Do(ctx context.Context, fn func() error) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)
	return fn()
}
