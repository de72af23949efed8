package combiner

import "context"

var _ Output[int] = (*SyncQueue[int])(nil)

// SyncQueue is a zero-capacity handoff: every Put waits for a matching
// Take (or a receive on C).
type SyncQueue[T any] struct {
	ch chan T
}

func NewSyncQueue[T any]() *SyncQueue[T] {
	return &SyncQueue[T]{ch: make(chan T)}
}

// Put hands item to a receiver, blocking until one accepts it or ctx
// is done. On cancellation the item is not delivered.
func (s *SyncQueue[T]) Put(ctx context.Context, item T) error {
	select {
	case s.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Take receives the next handed-off item.
func (s *SyncQueue[T]) Take(ctx context.Context) (T, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// C exposes the receive side for use in select statements or range loops.
// The channel is never closed.
func (s *SyncQueue[T]) C() <-chan T {
	return s.ch
}
