package containers

import "context"

type Result[T any] struct {
	Value T
	Err   error
}

func (r *Result[T]) IsErr() bool {
	return r.Err != nil
}

func (r *Result[T]) Unwrap() T {
	if r.IsErr() {
		panic("called Unwrap on an Err result")
	}
	return r.Value
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

func NewResult[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Future is a Result that is produced by one goroutine and consumed by another.
// It must be resolved exactly once.
type Future[T any] struct {
	ch chan Result[T]
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{ch: make(chan Result[T], 1)}
}

// Resolve stores the result. It never blocks.
func (f *Future[T]) Resolve(r Result[T]) {
	f.ch <- r
}

// Await blocks until the future is resolved or ctx is done.
func (f *Future[T]) Await(ctx context.Context) Result[T] {
	select {
	case r := <-f.ch:
		return r
	case <-ctx.Done():
		return Err[T](ctx.Err())
	}
}
