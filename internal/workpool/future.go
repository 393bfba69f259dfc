package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrCancelled resolves handles of jobs dropped by Pool.Cancel before they started.
	ErrCancelled = errors.New("workpool: job cancelled")
	// ErrPoolClosed resolves handles of jobs submitted while the pool is shutting
	// down, or left pending when a pool without workers is completed.
	ErrPoolClosed = errors.New("workpool: pool shut down")
)

// PanicError wraps a value recovered from a panicking job.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workpool: job panicked: %v", e.Value)
}

// Future is the result handle of one queued job.
// It is resolved exactly once: with the job's value, the job's error,
// a *PanicError, ErrCancelled or ErrPoolClosed.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve stores the outcome. Only the first call has effect.
func (f *Future[T]) resolve(v T, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

func (f *Future[T]) fail(err error) bool {
	var zero T
	return f.resolve(zero, err)
}

// Done returns a channel closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the job is resolved or ctx is done.
// A ctx error does not cancel the job: it keeps its place in the queue.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while pending.
func (f *Future[T]) Result() (value T, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}

// Wait blocks until every future is resolved (or ctx is done) and returns
// the joined errors of the failed ones.
func Wait[T any](ctx context.Context, futures ...*Future[T]) error {
	var errs []error
	for _, f := range futures {
		if _, err := f.Get(ctx); err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}
