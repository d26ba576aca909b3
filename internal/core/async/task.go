// Package async provides a minimal future for running core operations in
// the background while letting the caller decide when to wait.
package async

import (
	"context"
	"fmt"
	"sync"
)

// Task is the pending result of a background operation.
type Task[T any] struct {
	done chan struct{}
	once sync.Once

	val T
	err error
}

// Go starts fn in a new goroutine and returns its Task.
// A panic in fn is recovered and reported as the task's error.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				t.finish(zero, fmt.Errorf("task panicked: %v", r))
			}
		}()
		val, err := fn(ctx)
		t.finish(val, err)
	}()
	return t
}

// Completed returns a Task that has already finished.
func Completed[T any](val T, err error) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	t.finish(val, err)
	return t
}

func (t *Task[T]) finish(val T, err error) {
	t.once.Do(func() {
		t.val, t.err = val, err
		close(t.done)
	})
}

// Done is closed when the task finishes.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. Cancelling ctx
// stops the wait, not the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking. finished is false while
// the task is still running.
func (t *Task[T]) Result() (val T, finished bool, err error) {
	select {
	case <-t.done:
		return t.val, true, t.err
	default:
		return val, false, nil
	}
}
