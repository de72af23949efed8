package combiner

import (
	"context"
	"sync"
)

const (
	initialFifoCapacity = 64
)

var _ InputQueue[int] = (*BlockingQueue[int])(nil)
var _ TryTaker[int] = (*BlockingQueue[int])(nil)

// BlockingQueue is a thread-safe FIFO usable as a combiner input queue.
//
// Items are kept in a circular buffer that grows on demand. A positive
// capacity bounds the queue: Push then blocks and TryPush fails while
// the queue is full. Blocking operations wait on a broadcast channel
// that is replaced on every state change, so they can also select on
// a context.
type BlockingQueue[T any] struct {
	mu         sync.Mutex
	buf        []T // circular buffer
	head, tail int // read/write indices
	size       int // number of items currently buffered
	limit      int // 0 means unbounded

	waiting int
	changed chan struct{}
}

// NewBlockingQueue creates a queue holding at most capacity items.
// A capacity <= 0 makes the queue unbounded.
func NewBlockingQueue[T any](capacity int) *BlockingQueue[T] {
	if capacity < 0 {
		capacity = 0
	}
	initial := initialFifoCapacity
	if capacity > 0 && capacity < initial {
		initial = capacity
	}
	return &BlockingQueue[T]{
		buf:     make([]T, initial),
		limit:   capacity,
		changed: make(chan struct{}),
	}
}

// Len returns the number of items currently waiting in the queue.
func (q *BlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *BlockingQueue[T]) Empty() bool {
	return q.Len() == 0
}

// TryPush appends v unless the queue is full.
func (q *BlockingQueue[T]) TryPush(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full() {
		return false
	}
	q.push(v)
	return true
}

// Offer is TryPush reporting a full queue as ErrQueueFull.
func (q *BlockingQueue[T]) Offer(v T) error {
	if !q.TryPush(v) {
		return ErrQueueFull
	}
	return nil
}

// Push appends v, blocking while the queue is full.
func (q *BlockingQueue[T]) Push(ctx context.Context, v T) error {
	for {
		q.mu.Lock()
		if !q.full() {
			q.push(v)
			q.mu.Unlock()
			return nil
		}
		wait := q.park()
		q.mu.Unlock()

		if err := q.await(ctx, wait); err != nil {
			return err
		}
	}
}

// TryTake removes the head item if there is one.
func (q *BlockingQueue[T]) TryTake() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Take removes the head item, blocking until one is available.
func (q *BlockingQueue[T]) Take(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if q.size > 0 {
			v := q.pop()
			q.mu.Unlock()
			return v, nil
		}
		wait := q.park()
		q.mu.Unlock()

		if err := q.await(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}
}

func (q *BlockingQueue[T]) full() bool {
	return q.limit > 0 && q.size >= q.limit
}

// park registers a waiter and returns the channel closed on the next
// state change. Must be called with mu held.
func (q *BlockingQueue[T]) park() <-chan struct{} {
	q.waiting++
	return q.changed
}

func (q *BlockingQueue[T]) await(ctx context.Context, wait <-chan struct{}) error {
	var err error
	select {
	case <-wait:
	case <-ctx.Done():
		err = ctx.Err()
	}
	q.mu.Lock()
	q.waiting--
	q.mu.Unlock()
	return err
}

func (q *BlockingQueue[T]) push(v T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[q.tail] = v
	q.tail++
	if q.tail == len(q.buf) {
		q.tail = 0
	}
	q.size++
	q.notify()
}

func (q *BlockingQueue[T]) pop() T {
	var zero T
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.size--
	q.notify()
	return v
}

// grow doubles the buffer (capped by limit) and unwraps it so that
// head starts at index 0.
func (q *BlockingQueue[T]) grow() {
	newCap := len(q.buf) * 2
	if newCap == 0 {
		newCap = initialFifoCapacity
	}
	if q.limit > 0 && newCap > q.limit {
		newCap = q.limit
	}
	nb := make([]T, newCap)
	n := copy(nb, q.buf[q.head:])
	copy(nb[n:], q.buf[:q.head])
	q.buf = nb
	q.head = 0
	q.tail = q.size
}

func (q *BlockingQueue[T]) notify() {
	if q.waiting == 0 {
		return
	}
	close(q.changed)
	q.changed = make(chan struct{})
}
