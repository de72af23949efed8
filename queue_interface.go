package combiner

import (
	"context"
	"errors"
)

var (
	// ErrNilQueue is returned when a nil input queue is registered.
	ErrNilQueue = errors.New("combiner: input queue is nil")

	// ErrInvalidWeight is returned for negative, NaN or infinite weights.
	ErrInvalidWeight = errors.New("combiner: invalid weight")

	// ErrInvalidTimeout is returned for a negative empty timeout.
	ErrInvalidTimeout = errors.New("combiner: invalid empty timeout")

	// ErrQueueNotComparable is returned when the queue's dynamic type
	// cannot be used as an identity (slices, maps, funcs).
	ErrQueueNotComparable = errors.New("combiner: input queue type is not comparable")

	// ErrRemoveFailed reports an unexpected fault while removing a queue.
	// A queue that is simply not tracked is not an error.
	ErrRemoveFailed = errors.New("combiner: failed to remove input queue")

	ErrAlreadyStarted = errors.New("combiner: already started")
	ErrClosed         = errors.New("combiner: closed")

	// ErrQueueFull is returned when a bounded BlockingQueue
	// cannot accept more items.
	ErrQueueFull = errors.New("queue: queue is full")
)

// InputQueue is a caller-owned FIFO source feeding the combiner.
//
// The queue value itself is its identity: two registrations refer to
// the same queue iff the interface values are equal, so implementations
// are expected to be pointer types.
type InputQueue[T any] interface {
	// Empty reports, without blocking, whether the queue holds no items.
	Empty() bool

	// Take removes and returns the head item, blocking until one is
	// available or ctx is done.
	Take(ctx context.Context) (T, error)
}

// TryTaker is optionally implemented by input queues that can remove
// their head without blocking. The combiner prefers it over Take so a
// queue drained by someone else between Empty and Take cannot stall it.
type TryTaker[T any] interface {
	TryTake() (T, bool)
}

// Output is the single sink of the combiner.
//
// Put must not return before a receiver accepted the item, or before
// ctx is done.
type Output[T any] interface {
	Put(ctx context.Context, item T) error
}

// OutputFunc adapts a function to Output.
type OutputFunc[T any] func(ctx context.Context, item T) error

func (f OutputFunc[T]) Put(ctx context.Context, item T) error {
	return f(ctx, item)
}
